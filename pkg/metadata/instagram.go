package metadata

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/pkg/fetcher"
	"github.com/jmylchreest/itscooked/pkg/platform"
)

// MaxPageText bounds how much of an Instagram page is inspected, in
// characters.
const MaxPageText = 8000

// InstagramConfig configures InstagramSource.
type InstagramConfig struct {
	Fetcher   fetcher.Fetcher
	Extractor MetaExtractor
	UserAgent string
}

// InstagramSource scrapes Open Graph tags from the public post page.
// Instagram's oEmbed endpoint only serves embeds, so the page HTML is the
// only unauthenticated source of the caption.
type InstagramSource struct {
	fetcher   fetcher.Fetcher
	extractor MetaExtractor
	userAgent string
}

// NewInstagram creates an Instagram source. A nil extractor selects the regex
// extractor; an empty user agent selects fetcher.DefaultUserAgent.
func NewInstagram(cfg InstagramConfig) *InstagramSource {
	if cfg.Extractor == nil {
		cfg.Extractor = RegexExtractor{}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fetcher.DefaultUserAgent
	}
	return &InstagramSource{
		fetcher:   cfg.Fetcher,
		extractor: cfg.Extractor,
		userAgent: cfg.UserAgent,
	}
}

// Fetch implements Source.
func (s *InstagramSource) Fetch(ctx context.Context, url string) (*Metadata, error) {
	page, err := s.fetchPage(ctx, url)
	if err != nil {
		return nil, err
	}

	ogTitle := s.extractor.Property(page, "og:title")
	ogDescription := s.extractor.Property(page, "og:description")
	ogImage := s.extractor.Property(page, "og:image")

	description := ogDescription
	if description == "" {
		description = s.extractor.Property(page, "description")
	}

	var caption, author string
	if description != "" {
		caption, author = splitInstagramDescription(description)
	}
	if caption == "" {
		caption = description
	}

	title := ogTitle
	if title == "" {
		title = s.extractor.Title(page)
	}

	md := &Metadata{
		Title:        title,
		Description:  caption,
		AuthorName:   author,
		ThumbnailURL: ogImage,
	}
	logger.Debug("instagram metadata extracted",
		"url", url,
		"has_title", md.Title != "",
		"has_description", md.Description != "",
		"author", md.AuthorName)
	return md, nil
}

func (s *InstagramSource) fetchPage(ctx context.Context, url string) (string, error) {
	// Leave room for multi-byte runes; the text is cut to MaxPageText below.
	content, err := s.fetcher.Fetch(ctx, url, fetcher.Options{
		UserAgent:   s.userAgent,
		MaxBodySize: MaxPageText * 4,
	})
	if err != nil {
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) {
			return "", &FetchError{
				Platform: platform.Instagram,
				Message:  fmt.Sprintf("Failed to fetch page (%d).", statusErr.StatusCode),
				Err:      err,
			}
		}
		return "", &FetchError{
			Platform: platform.Instagram,
			Message:  "Failed to fetch page.",
			Err:      err,
		}
	}

	return truncateRunes(string(content.Body), MaxPageText), nil
}

var (
	instagramAuthorRe = regexp.MustCompile(`(?i)^(.+?) on Instagram:`)
	leadingQuotesRe   = regexp.MustCompile(`^["\x{201c}\x{201d}]+`)
	trailingQuotesRe  = regexp.MustCompile(`["\x{201c}\x{201d}]+$`)
	instagramSuffixRe = regexp.MustCompile(`(?i)\s*(?:Â)?·\s*Instagram$`)
)

// splitInstagramDescription splits the `<author> on Instagram: "<caption>"`
// convention into its caption and author parts. Either may be empty.
func splitInstagramDescription(description string) (caption, author string) {
	caption = description
	if loc := instagramAuthorRe.FindStringSubmatchIndex(description); loc != nil {
		author = trimmed(description[loc[2]:loc[3]])
		caption = trimmed(description[loc[1]:])
	}

	caption = leadingQuotesRe.ReplaceAllString(caption, "")
	caption = trailingQuotesRe.ReplaceAllString(caption, "")
	caption = instagramSuffixRe.ReplaceAllString(caption, "")
	return trimmed(caption), author
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
