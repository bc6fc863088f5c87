package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient completes prompts with the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string, timeout time.Duration) *AnthropicClient {
	return newAnthropicClient(model,
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	)
}

func newAnthropicClient(model string, opts ...option.RequestOption) *AnthropicClient {
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client: &client,
		model:  model,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(in.Temperature),
		System:      []anthropic.TextBlockParam{{Text: in.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(in.Prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.StatusCode, Body: truncate(apiErr.Error(), maxLoggedResponseBody)}
		}
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var result strings.Builder
	for _, block := range message.Content {
		if text := block.AsText().Text; text != "" {
			result.WriteString(text)
		}
	}
	if result.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from Claude", ErrInvalidResponse)
	}
	return result.String(), nil
}
