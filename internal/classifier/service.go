package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"socialsaver/internal/domain"
)

// Options tunes the completion request. A nil Temperature means the default;
// an explicit zero is sent as zero.
type Options struct {
	MaxTokens   int
	Temperature *float64
}

// Observer is told how long each model round trip took and how it ended.
type Observer interface {
	ObserveClassification(outcome string, took time.Duration)
}

// Service implements Classifier on top of a Completer. A nil Completer means
// no credential is configured.
type Service struct {
	completer   Completer
	maxTokens   int
	temperature float64
	observer    Observer
	log         logrus.FieldLogger
}

// NewService creates a classifier. Zero options fall back to the defaults.
func NewService(completer Completer, opts Options, observer Observer, logger logrus.FieldLogger) *Service {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := defaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	log := logger.WithField("component", "classifier")
	if completer == nil {
		log.Warn("AI credential not configured; every item will be classified as Other")
	}
	return &Service{
		completer:   completer,
		maxTokens:   maxTokens,
		temperature: temperature,
		observer:    observer,
		log:         log,
	}
}

// Classify asks the model for a category and summary of the given text.
func (s *Service) Classify(ctx context.Context, caption, title string) (category domain.Category, summary string) {
	if s.completer == nil {
		return domain.CategoryOther, MsgNotConfigured
	}

	start := time.Now()
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("Classification panicked")
			category, summary = domain.CategoryOther, MsgUnableToSummarize
			outcome = "error"
		}
		if s.observer != nil {
			s.observer.ObserveClassification(outcome, time.Since(start))
		}
	}()

	text := strings.TrimSpace(title + "\n" + caption)
	if text == "" {
		text = placeholderContent
	}

	output, err := s.completer.Complete(ctx, CompletionRequest{
		System:      systemInstruction,
		Prompt:      BuildPrompt(text),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})

	switch {
	case errors.Is(err, ErrUpstreamStatus):
		s.log.WithError(err).Warn("Model endpoint returned non-success status")
		outcome = "unavailable"
		return domain.CategoryOther, MsgUnavailable
	case errors.Is(err, ErrInvalidResponse):
		s.log.WithError(err).Warn("Model response could not be used")
		outcome = "invalid"
		return domain.CategoryOther, MsgInvalidResponse
	case err != nil:
		s.log.WithError(err).Error("Model request failed")
		outcome = "error"
		return domain.CategoryOther, MsgUnableToSummarize
	}

	output = strings.TrimSpace(output)
	if output == "" {
		outcome = "invalid"
		return domain.CategoryOther, MsgInvalidResponse
	}

	category, summary = ParseResponse(output)
	s.log.WithField("category", category).Debug("Content classified")
	return category, summary
}
