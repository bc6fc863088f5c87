package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient completes prompts with Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model, timeout)
}

func newGeminiClient(ctx context.Context, cc *genai.ClientConfig, model string, timeout time.Duration) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	temperature := float32(in.Temperature)
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(in.Prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(in.System, genai.RoleUser),
		Temperature:       &temperature,
		MaxOutputTokens:   int32(in.MaxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.Code, Body: truncate(apiErr.Message, maxLoggedResponseBody)}
		}
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from Gemini", ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}
