// Package platform classifies submitted recipe links by the social platform
// they point to and canonicalizes them for deduplication.
package platform

import (
	"net/url"
	"strings"
)

// SourcePlatform identifies where a recipe post was published.
type SourcePlatform string

const (
	Instagram SourcePlatform = "INSTAGRAM"
	TikTok    SourcePlatform = "TIKTOK"
	Unknown   SourcePlatform = "UNKNOWN"
)

// Domain pairs a registrable domain with the platform it belongs to.
type Domain struct {
	Domain   string
	Platform SourcePlatform
}

// Domains is the ordered lookup table used by Detect. The first match wins.
var Domains = []Domain{
	{Domain: "instagram.com", Platform: Instagram},
	{Domain: "instagr.am", Platform: Instagram},
	{Domain: "tiktok.com", Platform: TikTok},
}

// Detect returns the platform for a hostname. A host matches a domain when it
// equals it or is a subdomain of it.
func Detect(hostname string) SourcePlatform {
	host := strings.ToLower(hostname)
	for _, d := range Domains {
		if matchesDomain(host, d.Domain) {
			return d.Platform
		}
	}
	return Unknown
}

func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// NormalizeURL returns the canonical form of a recipe link: fragment and query
// removed, and the trailing slash stripped from a non-root path. Repeated
// trailing slashes are all stripped so the result is a fixed point.
func NormalizeURL(u *url.URL) string {
	normalized := *u
	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.RawQuery = ""
	normalized.ForceQuery = false

	// Only literal slashes are trimmed; an escaped %2F belongs to the segment.
	if escaped := normalized.EscapedPath(); escaped != "/" && strings.HasSuffix(escaped, "/") {
		escaped = trimTrailingSlashes(escaped)
		if path, err := url.PathUnescape(escaped); err == nil {
			normalized.Path = path
			normalized.RawPath = escaped
		}
	}

	return normalized.String()
}

func trimTrailingSlashes(p string) string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// NormalizeString parses raw and normalizes it. Unparsable input is returned
// unchanged.
func NormalizeString(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return NormalizeURL(u)
}

// Label returns a human-readable platform name.
func Label(p SourcePlatform) string {
	switch p {
	case Instagram:
		return "Instagram"
	case TikTok:
		return "TikTok"
	default:
		return "Unknown"
	}
}

// Valid reports whether p is one of the known enumeration values.
func (p SourcePlatform) Valid() bool {
	switch p {
	case Instagram, TikTok, Unknown:
		return true
	}
	return false
}

// Supported reports whether links from p can be imported.
func (p SourcePlatform) Supported() bool {
	return p == Instagram || p == TikTok
}
