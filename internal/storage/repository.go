package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"socialsaver/internal/domain"
)

// ErrNotFound is returned when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("content not found")

// ListQuery selects one page of a user's records.
type ListQuery struct {
	UserID   string
	Offset   int
	Limit    int
	Archived bool
}

// SearchQuery filters a user's non-archived records. Empty fields match everything.
type SearchQuery struct {
	UserID string
	// Text is matched case-insensitively against caption, title, summary and hashtags.
	Text string
	// Category is a case-insensitive substring of the stored category.
	Category string
	Platform domain.Platform
}

// Repository defines the interface for content storage operations.
// This allows us to swap storage implementations (BadgerDB, SQLite, PostgreSQL)
// without changing the core application logic that uses it.
// Every read and write is scoped by user id.
type Repository interface {
	// Create assigns an ID and timestamps to c and stores it.
	Create(ctx context.Context, c *domain.SavedContent) error

	// Get returns one record, archived or not.
	Get(ctx context.Context, userID string, id uint64) (domain.SavedContent, error)

	// List returns a page of records ordered newest first.
	List(ctx context.Context, q ListQuery) ([]domain.SavedContent, error)

	// Search returns matching non-archived records ordered newest first.
	Search(ctx context.Context, q SearchQuery) ([]domain.SavedContent, error)

	// Update applies a partial patch and returns the stored result.
	Update(ctx context.Context, userID string, id uint64, patch domain.ContentUpdate) (domain.SavedContent, error)

	// Archive soft-deletes a record. Archiving twice is not an error.
	Archive(ctx context.Context, userID string, id uint64) error

	// Categories and Platforms list the distinct non-empty values over a
	// user's non-archived records, sorted.
	Categories(ctx context.Context, userID string) ([]string, error)
	Platforms(ctx context.Context, userID string) ([]string, error)

	// Users lists every user id that has saved something.
	Users(ctx context.Context) ([]string, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close gracefully shuts down the repository connection.
	Close() error
}

// prepareCreate fills the fields every backend sets on insert.
func prepareCreate(c *domain.SavedContent, now time.Time) {
	c.Category = domain.NormalizeCategory(string(c.Category))
	c.CreatedAt = now
	c.UpdatedAt = now
}

// matches reports whether c satisfies every set filter of q.
func (q SearchQuery) matches(c domain.SavedContent) bool {
	if c.UserID != q.UserID || c.IsArchived {
		return false
	}
	if q.Platform != "" && c.Platform != q.Platform {
		return false
	}
	if q.Category != "" && !containsFold(string(c.Category), q.Category) {
		return false
	}
	if q.Text == "" {
		return true
	}
	for _, field := range []string{c.Caption, c.Title, c.Summary, c.Hashtags} {
		if containsFold(field, q.Text) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// newestFirst orders records by creation time, breaking ties by id.
func newestFirst(items []domain.SavedContent) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
