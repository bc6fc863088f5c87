package domain

import (
	"strings"
	"time"
)

// SavedContent represents a link a user forwarded to the bot, together with
// the metadata scraped from it and the model's classification.
type SavedContent struct {
	// ID is assigned by the store when the record is created.
	ID uint64 `json:"id" gorm:"primaryKey;autoIncrement"`

	// UserID is the channel-supplied sender identifier (phone number or Telegram id).
	UserID string `json:"user_id" gorm:"size:50;not null;index"`

	// Platform is the source the link was identified as.
	Platform Platform `json:"platform" gorm:"size:50;not null"`

	// OriginalURL is the forwarded link with its query string removed.
	OriginalURL string `json:"original_url" gorm:"size:2048;not null"`

	// Caption is the post text or page description, if any was found.
	Caption string `json:"caption,omitempty" gorm:"type:text"`

	// Title is the article headline. Only blogs carry one.
	Title string `json:"title,omitempty" gorm:"size:1024"`

	Category Category `json:"category" gorm:"size:100"`
	Summary  string   `json:"summary" gorm:"type:text"`

	// Hashtags is the comma-joined list of tags found in the caption.
	Hashtags string `json:"hashtags" gorm:"size:1024"`

	// ThumbnailURL points to the Open Graph preview image.
	ThumbnailURL string `json:"thumbnail_url,omitempty" gorm:"size:2048"`

	// IsArchived marks a soft-deleted record. Records are never purged.
	IsArchived bool `json:"is_archived" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name used by the existing deployments.
func (SavedContent) TableName() string {
	return "saved_content"
}

// HashtagList splits the stored hashtags back into a slice.
func (c SavedContent) HashtagList() []string {
	if c.Hashtags == "" {
		return []string{}
	}
	return strings.Split(c.Hashtags, ",")
}

// JoinHashtags serializes hashtags the way they are stored.
func JoinHashtags(tags []string) string {
	return strings.Join(tags, ",")
}

// ContentUpdate is a partial patch. Nil fields are left untouched.
type ContentUpdate struct {
	Platform     *Platform `json:"platform"`
	OriginalURL  *string   `json:"original_url"`
	Caption      *string   `json:"caption"`
	Title        *string   `json:"title"`
	Category     *string   `json:"category"`
	Summary      *string   `json:"summary"`
	Hashtags     *string   `json:"hashtags"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	IsArchived   *bool     `json:"is_archived"`
}

// Apply copies the set fields of u onto c. Category is normalized onto the
// closed set.
func (u ContentUpdate) Apply(c *SavedContent) {
	if u.Platform != nil {
		c.Platform = *u.Platform
	}
	if u.OriginalURL != nil {
		c.OriginalURL = *u.OriginalURL
	}
	if u.Caption != nil {
		c.Caption = *u.Caption
	}
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Category != nil {
		c.Category = NormalizeCategory(*u.Category)
	}
	if u.Summary != nil {
		c.Summary = *u.Summary
	}
	if u.Hashtags != nil {
		c.Hashtags = *u.Hashtags
	}
	if u.ThumbnailURL != nil {
		c.ThumbnailURL = *u.ThumbnailURL
	}
	if u.IsArchived != nil {
		c.IsArchived = *u.IsArchived
	}
}
