package importer

import (
	"time"

	"github.com/jmylchreest/itscooked/pkg/fetcher"
)

// Config holds Importer configuration.
type Config struct {
	// Network settings, used when no Fetcher is injected.
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int

	// Extractor selects the Instagram meta extractor ("regex" or "tokenizer").
	Extractor string

	// TikTokOEmbedURL overrides the TikTok oEmbed endpoint.
	TikTokOEmbedURL string

	// Injected dependencies. Nil values are built from the settings above.
	Fetcher  fetcher.Fetcher
	Metadata MetadataFetcher
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: fetcher.DefaultUserAgent,
		Timeout:   30 * time.Second,
		Extractor: "regex",
	}
}

// Option configures an Importer.
type Option func(*Config)

// WithUserAgent sets the user agent sent to Instagram.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		if ua != "" {
			c.UserAgent = ua
		}
	}
}

// WithTimeout sets the per-request network timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithMaxBodySize caps the bytes read from a single response.
func WithMaxBodySize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxBodySize = n
		}
	}
}

// WithExtractor selects the meta extractor by name.
func WithExtractor(name string) Option {
	return func(c *Config) {
		c.Extractor = name
	}
}

// WithTikTokOEmbedURL overrides the oEmbed endpoint.
func WithTikTokOEmbedURL(endpoint string) Option {
	return func(c *Config) {
		c.TikTokOEmbedURL = endpoint
	}
}

// WithFetcher injects the HTTP fetcher shared by both platform sources.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithMetadataFetcher replaces platform dispatch entirely. Mostly useful in
// tests.
func WithMetadataFetcher(m MetadataFetcher) Option {
	return func(c *Config) {
		c.Metadata = m
	}
}
