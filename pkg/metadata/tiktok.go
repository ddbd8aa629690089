package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/pkg/fetcher"
	"github.com/jmylchreest/itscooked/pkg/platform"
)

// DefaultTikTokOEmbedURL is TikTok's public oEmbed endpoint.
const DefaultTikTokOEmbedURL = "https://www.tiktok.com/oembed"

// maxOEmbedBody bounds the oEmbed JSON payload.
const maxOEmbedBody = 64 << 10

// TikTokConfig configures TikTokSource.
type TikTokConfig struct {
	Fetcher  fetcher.Fetcher
	Endpoint string
}

// TikTokSource reads post metadata from the oEmbed endpoint.
type TikTokSource struct {
	fetcher  fetcher.Fetcher
	endpoint string
}

// NewTikTok creates a TikTok source.
func NewTikTok(cfg TikTokConfig) *TikTokSource {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultTikTokOEmbedURL
	}
	return &TikTokSource{
		fetcher:  cfg.Fetcher,
		endpoint: cfg.Endpoint,
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Fetch implements Source.
func (s *TikTokSource) Fetch(ctx context.Context, postURL string) (*Metadata, error) {
	endpoint, err := oembedURL(s.endpoint, postURL)
	if err != nil {
		return nil, &FetchError{
			Platform: platform.TikTok,
			Message:  "TikTok oEmbed endpoint is misconfigured.",
			Err:      err,
		}
	}
	logger.Debug("tiktok oembed request", "endpoint", endpoint)

	content, err := s.fetcher.Fetch(ctx, endpoint, fetcher.Options{
		MaxBodySize: maxOEmbedBody,
		Headers:     map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) {
			return nil, &FetchError{
				Platform: platform.TikTok,
				Message:  fmt.Sprintf("TikTok oEmbed failed (%d).", statusErr.StatusCode),
				Err:      err,
			}
		}
		return nil, &FetchError{
			Platform: platform.TikTok,
			Message:  "TikTok oEmbed request failed.",
			Err:      err,
		}
	}

	var data oembedResponse
	if err := json.Unmarshal(content.Body, &data); err != nil {
		return nil, &FetchError{
			Platform: platform.TikTok,
			Message:  "TikTok oEmbed returned an unreadable response.",
			Err:      fmt.Errorf("decode oembed response: %w", err),
		}
	}

	// The oEmbed title is the caption, so it doubles as the description.
	title := trimmed(data.Title)
	return &Metadata{
		Title:        title,
		Description:  title,
		AuthorName:   trimmed(data.AuthorName),
		ThumbnailURL: trimmed(data.ThumbnailURL),
	}, nil
}

func oembedURL(endpoint, postURL string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse oembed endpoint: %w", err)
	}
	q := u.Query()
	q.Set("url", postURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
