package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"

	"socialsaver/internal/domain"
)

const (
	ogDescription   = `meta[property="og:description"]`
	ogImage         = `meta[property="og:image"]`
	metaDescription = `meta[name="description"]`
)

// fieldSelectors says where each metadata field lives for one platform.
type fieldSelectors struct {
	// titles are element selectors tried in order; the first non-empty text wins.
	titles []string
	// caption and thumbnail are meta selectors read through their content attribute.
	caption   string
	thumbnail string
	postID    *regexp.Regexp
	// readability fills caption and title from the article body when the
	// page carries no description meta.
	readability bool
}

var platformSelectors = map[domain.Platform]fieldSelectors{
	domain.PlatformInstagram: {
		caption:   ogDescription,
		thumbnail: ogImage,
		postID:    regexp.MustCompile(`/p/([^/?]+)`),
	},
	domain.PlatformTwitter: {
		caption: ogDescription,
		postID:  regexp.MustCompile(`/status/(\d+)`),
	},
	domain.PlatformBlog: {
		titles:      []string{"h1", "title"},
		caption:     metaDescription,
		thumbnail:   ogImage,
		readability: true,
	},
}

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// ExtractHashtags returns every #word token in text, in order, without the
// leading '#'. Case is preserved and duplicates are kept.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// Service implements Scraper on top of a Fetcher.
type Service struct {
	fetcher Fetcher
	log     logrus.FieldLogger
}

// NewService creates a new scraper service instance.
func NewService(fetcher Fetcher, logger logrus.FieldLogger) *Service {
	return &Service{
		fetcher: fetcher,
		log:     logger.WithField("component", "scraper"),
	}
}

// Extract identifies the platform of rawURL and scrapes its metadata.
func (s *Service) Extract(ctx context.Context, rawURL string) (md Metadata) {
	platform := IdentifyPlatform(rawURL)
	log := s.log.WithFields(logrus.Fields{
		"url":      rawURL,
		"platform": platform,
	})

	selectors, ok := platformSelectors[platform]
	if !ok {
		log.Debug("Unsupported platform, skipping scrape")
		return emptyMetadata(platform, rawURL)
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Metadata extraction panicked")
			md = emptyMetadata(platform, rawURL)
		}
	}()

	md, err := s.extract(ctx, platform, rawURL, selectors)
	if err != nil {
		log.WithError(err).Error("Metadata extraction failed")
		return emptyMetadata(platform, rawURL)
	}

	log.WithFields(logrus.Fields{
		"has_caption":   md.Caption != "",
		"has_title":     md.Title != "",
		"hashtag_count": len(md.Hashtags),
	}).Info("Metadata extraction completed")
	return md
}

func (s *Service) extract(ctx context.Context, platform domain.Platform, rawURL string, sel fieldSelectors) (Metadata, error) {
	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Metadata{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	md := emptyMetadata(platform, rawURL)
	for _, t := range sel.titles {
		if text := strings.TrimSpace(doc.Find(t).First().Text()); text != "" {
			md.Title = text
			break
		}
	}
	if sel.caption != "" {
		md.Caption = metaContent(doc, sel.caption)
	}
	if sel.thumbnail != "" {
		md.ThumbnailURL = metaContent(doc, sel.thumbnail)
	}
	if sel.postID != nil {
		if m := sel.postID.FindStringSubmatch(rawURL); m != nil {
			md.PostID = m[1]
		}
	}
	if sel.readability && md.Caption == "" {
		s.applyReadability(body, rawURL, &md)
	}

	md.Hashtags = ExtractHashtags(md.Caption)
	return md, nil
}

// applyReadability fills missing fields from the article body. Failures are
// not fatal; the page simply keeps what the selectors found.
func (s *Service) applyReadability(body []byte, rawURL string, md *Metadata) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		s.log.WithError(err).WithField("url", rawURL).Debug("Readability fallback failed")
		return
	}
	md.Caption = strings.TrimSpace(article.Excerpt)
	if md.Title == "" {
		md.Title = strings.TrimSpace(article.Title)
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	content, exists := doc.Find(selector).First().Attr("content")
	if !exists {
		return ""
	}
	return strings.TrimSpace(content)
}
