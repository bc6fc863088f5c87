// Package classifier assigns a category and a one-sentence summary to saved
// content by prompting a remote language model.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"socialsaver/internal/domain"
)

// Classifier labels content with a category from the closed set and a summary.
// Implementations never fail; problems degrade to CategoryOther and a fixed
// explanatory summary.
type Classifier interface {
	Classify(ctx context.Context, caption, title string) (domain.Category, string)
}

// CompletionRequest is one non-streaming chat completion.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer sends a prompt to a model and returns the raw text it produced.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

var (
	// ErrUpstreamStatus is wrapped when the model endpoint answers with a
	// non-success status.
	ErrUpstreamStatus = errors.New("model endpoint returned non-success status")
	// ErrInvalidResponse is wrapped when the body is not a usable completion.
	ErrInvalidResponse = errors.New("invalid model response")
)

// StatusError carries the status code and a truncated body for logging.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// Summaries returned when no model output could be used.
const (
	MsgNotConfigured      = "AI service not configured"
	MsgUnavailable        = "AI service unavailable"
	MsgInvalidResponse    = "AI response invalid"
	MsgUnableToSummarize  = "Unable to generate summary"
	placeholderContent    = "Social media content."
	systemInstruction     = "You are a strict formatter. Output only two lines: 'Category: ...' and 'Summary: ...'."
	defaultMaxTokens      = 120
	defaultTemperature    = 0.3
	maxLoggedResponseBody = 300
)

// BuildPrompt renders the user prompt for text.
func BuildPrompt(text string) string {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}

	var b strings.Builder
	b.WriteString("Classify the following content into ONE category from this list:\n")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString("\n\nThen write a short one sentence summary.\n\n")
	b.WriteString("Content:\n")
	b.WriteString(text)
	b.WriteString("\n\nRespond exactly like this:\n")
	b.WriteString("Category: <category>\n")
	b.WriteString("Summary: <summary>")
	return b.String()
}

// ParseResponse reads the two labelled lines out of a model answer. When a
// label repeats, the last line carrying it wins. Without a summary line the
// last non-blank line is used. The category is always normalized onto the
// closed set.
func ParseResponse(output string) (domain.Category, string) {
	rawCategory := string(domain.CategoryOther)
	summary := ""
	summaryFound := false

	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "category:") {
			rawCategory = valueAfterColon(line)
		}
		if strings.HasPrefix(lower, "summary:") {
			summary = valueAfterColon(line)
			summaryFound = true
		}
	}

	if !summaryFound {
		summary = MsgUnableToSummarize
		for _, line := range strings.Split(output, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				summary = trimmed
			}
		}
	}

	return domain.NormalizeCategory(rawCategory), summary
}

func valueAfterColon(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}
