package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 5 << 20

// HTTPFetcher downloads pages with a single GET request.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	log       logrus.FieldLogger
}

// NewHTTPFetcher creates a fetcher with a fixed per-request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string, logger logrus.FieldLogger) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       logger.WithField("component", "http_fetcher"),
	}
}

// Fetch returns the response body. Non-2xx statuses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	f.log.WithFields(logrus.Fields{
		"url":   rawURL,
		"bytes": len(body),
	}).Debug("Fetched page")
	return body, nil
}
