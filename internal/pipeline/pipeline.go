// Package pipeline turns an inbound chat message into a saved, classified
// record and the confirmation text sent back to the user.
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"socialsaver/internal/classifier"
	"socialsaver/internal/domain"
	"socialsaver/internal/scraper"
	"socialsaver/internal/storage"
)

// User-facing replies.
const (
	ReplyNoURL = "❌ I didn't find a link in your message.\n\n" +
		"Please send me a link from Instagram, Twitter, or any blog."
	ReplyUnsupported = "⚠️ I support Instagram, Twitter, and blogs only."
	ReplyError       = "😅 Something went wrong. Please try again!"
)

// Outcome labels reported to the observer.
const (
	OutcomeSaved       = "saved"
	OutcomeNoURL       = "no_url"
	OutcomeUnsupported = "unsupported"
	OutcomeError       = "error"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Outcome is the result of processing one message. Record is set only when
// OK is true.
type Outcome struct {
	OK     bool
	Reply  string
	Record *domain.SavedContent
	Reason string
}

// Observer is told how each inbound message ended.
type Observer interface {
	ObserveMessage(channel, outcome string, took time.Duration)
}

// Pipeline wires the scraper, the classifier and the store together.
type Pipeline struct {
	scraper    scraper.Scraper
	classifier classifier.Classifier
	store      storage.Repository
	observer   Observer
	log        logrus.FieldLogger
}

// New creates a pipeline. store may be nil when only Process is used;
// observer may be nil.
func New(s scraper.Scraper, c classifier.Classifier, store storage.Repository, observer Observer, logger logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		scraper:    s,
		classifier: c,
		store:      store,
		observer:   observer,
		log:        logger.WithField("component", "pipeline"),
	}
}

// ExtractURL returns the first http(s) URL in text.
func ExtractURL(text string) (string, bool) {
	u := urlPattern.FindString(text)
	return u, u != ""
}

// StripQuery drops everything from the first '?' on.
func StripQuery(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "?")
	return base
}

// FormatReply renders the confirmation for a saved record.
func FormatReply(c domain.SavedContent) string {
	var b strings.Builder
	b.WriteString("✨ *Saved to your knowledge base!*\n\n")
	if c.Title != "" {
		fmt.Fprintf(&b, "*%s*\n", c.Title)
	}
	fmt.Fprintf(&b, "📁 Category: %s\n", c.Category)
	fmt.Fprintf(&b, "📝 Summary: %s\n", c.Summary)
	fmt.Fprintf(&b, "🔗 %s\n\n", c.OriginalURL)
	b.WriteString("Go to your dashboard to organize and search your saved content! 🚀")
	return b.String()
}

// Process extracts, scrapes and classifies the first link in text. It never
// panics and never returns an error; failures become an explanatory reply.
// Nothing is persisted.
func (p *Pipeline) Process(ctx context.Context, senderID, text string) (out Outcome) {
	log := p.log.WithField("sender", senderID)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Message processing panicked")
			out = Outcome{Reply: ReplyError, Reason: OutcomeError}
		}
	}()

	rawURL, ok := ExtractURL(text)
	if !ok {
		log.Info("No link found in message")
		return Outcome{Reply: ReplyNoURL, Reason: OutcomeNoURL}
	}
	link := StripQuery(rawURL)

	md := p.scraper.Extract(ctx, link)
	if md.Platform == domain.PlatformOther {
		log.WithField("url", link).Info("Unsupported platform")
		return Outcome{Reply: ReplyUnsupported, Reason: OutcomeUnsupported}
	}

	caption := md.Caption
	if caption == "" {
		caption = "Analyze this Instagram content: " + link
	}

	category, summary := p.classifier.Classify(ctx, caption, md.Title)

	record := &domain.SavedContent{
		UserID:       senderID,
		Platform:     md.Platform,
		OriginalURL:  link,
		Caption:      caption,
		Title:        md.Title,
		Category:     domain.NormalizeCategory(string(category)),
		Summary:      summary,
		Hashtags:     domain.JoinHashtags(md.Hashtags),
		ThumbnailURL: md.ThumbnailURL,
	}

	return Outcome{
		OK:     true,
		Reply:  FormatReply(*record),
		Record: record,
		Reason: OutcomeSaved,
	}
}

// Ingest runs Process and persists the record when it succeeded. channel
// only labels metrics and logs.
func (p *Pipeline) Ingest(ctx context.Context, channel, senderID, text string) Outcome {
	start := time.Now()
	out := p.Process(ctx, senderID, text)

	if out.OK && p.store != nil {
		if err := p.store.Create(ctx, out.Record); err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"channel": channel,
				"sender":  senderID,
			}).Error("Failed to save content")
			out = Outcome{Reply: ReplyError, Reason: OutcomeError}
		} else {
			p.log.WithFields(logrus.Fields{
				"channel":  channel,
				"id":       out.Record.ID,
				"platform": out.Record.Platform,
				"category": out.Record.Category,
			}).Info("Content saved")
		}
	}

	if p.observer != nil {
		p.observer.ObserveMessage(channel, out.Reason, time.Since(start))
	}
	return out
}
