package scraper

import (
	"context"

	"socialsaver/internal/domain"
)

// Scraper defines the interface for extracting metadata from a shared link.
type Scraper interface {
	// Extract identifies the link's platform and scrapes its metadata.
	// It never fails: on any problem it returns an empty Metadata tagged
	// with the platform so callers can still answer the user.
	Extract(ctx context.Context, rawURL string) Metadata
}

// Fetcher retrieves the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Metadata is what could be recovered from a page.
type Metadata struct {
	Platform     domain.Platform `json:"platform"`
	URL          string          `json:"original_url"`
	PostID       string          `json:"post_id,omitempty"`
	Caption      string          `json:"caption,omitempty"`
	Title        string          `json:"title,omitempty"`
	Hashtags     []string        `json:"hashtags"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
}

func emptyMetadata(platform domain.Platform, rawURL string) Metadata {
	return Metadata{
		Platform: platform,
		URL:      rawURL,
		Hashtags: []string{},
	}
}
