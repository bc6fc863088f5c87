package scraper

import (
	"strings"

	"socialsaver/internal/domain"
)

var (
	instagramDomains = []string{"instagram.com"}
	twitterDomains   = []string{"twitter.com", "x.com"}
	blogDomains      = []string{"medium.com", "dev.to", "hashnode.com", "linkedin.com"}
)

// IdentifyPlatform maps a URL to a platform by substring match on the raw
// string. Anything unrecognised is PlatformOther.
func IdentifyPlatform(rawURL string) domain.Platform {
	switch {
	case containsAny(rawURL, instagramDomains):
		return domain.PlatformInstagram
	case containsAny(rawURL, twitterDomains):
		return domain.PlatformTwitter
	case containsAny(rawURL, blogDomains):
		return domain.PlatformBlog
	default:
		return domain.PlatformOther
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
