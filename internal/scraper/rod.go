package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodFetcher renders pages in a headless browser before handing back the
// HTML. Slower than HTTPFetcher, but sees meta tags injected by scripts.
type RodFetcher struct {
	timeout   time.Duration
	userAgent string
	log       logrus.FieldLogger
}

// NewRodFetcher creates a fetcher that launches a fresh browser per page.
func NewRodFetcher(timeout time.Duration, userAgent string, logger logrus.FieldLogger) *RodFetcher {
	return &RodFetcher{
		timeout:   timeout,
		userAgent: userAgent,
		log:       logger.WithField("component", "rod_fetcher"),
	}
}

// Fetch loads rawURL and returns the rendered document.
func (f *RodFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	log := f.log.WithField("url", rawURL)

	path, exists := launcher.LookPath()
	if !exists {
		return nil, errors.New("rod browser dependency not found")
	}
	l := launcher.New().Bin(path)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Error closing rod browser instance")
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Context(pageCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	if err := page.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", rawURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("scraping timed out for %s: %w", rawURL, pageCtx.Err())
		}
		return nil, fmt.Errorf("failed waiting for page load: %w", err)
	}

	doc, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered html: %w", err)
	}
	log.Debug("Rendered page with rod")
	return []byte(doc), nil
}
