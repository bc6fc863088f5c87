package domain

import "strings"

// Platform tags the social network or site a saved link came from.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformBlog      Platform = "blog"
	PlatformOther     Platform = "other"
)

// Platforms returns every supported platform tag.
func Platforms() []Platform {
	return []Platform{PlatformInstagram, PlatformTwitter, PlatformBlog, PlatformOther}
}

// ParsePlatform maps a raw tag to a Platform. The match is case-insensitive.
func ParsePlatform(raw string) (Platform, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, p := range Platforms() {
		if string(p) == raw {
			return p, true
		}
	}
	return "", false
}

// Supported reports whether links from p can be ingested.
func (p Platform) Supported() bool {
	return p == PlatformInstagram || p == PlatformTwitter || p == PlatformBlog
}
