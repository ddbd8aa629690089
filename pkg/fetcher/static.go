package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/itscooked/internal/logger"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:   DefaultUserAgent,
		Timeout:     30 * time.Second,
		MaxBodySize: 1 << 20,
	}
}

// DefaultUserAgent is a desktop Chrome user agent. Instagram serves the Open
// Graph tags to browsers only.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StaticFetcher performs plain HTTP GETs through Colly. Redirects are
// followed and nothing is cached.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	def := DefaultStaticConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = def.MaxBodySize
	}
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves url using a fresh collector so no state is shared between
// calls.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	logger.Debug("static fetch starting", "url", targetURL)

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	maxBody := f.config.MaxBodySize
	if opts.MaxBodySize > 0 && (maxBody <= 0 || opts.MaxBodySize < maxBody) {
		maxBody = opts.MaxBodySize
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(maxBody),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	// Non-2xx responses still reach OnResponse so the status can be reported.
	c.ParseHTTPErrorResponse = true

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Cache-Control", "no-cache")
		r.Headers.Set("Pragma", "no-cache")
		for k, v := range opts.Headers {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		if r.Headers != nil {
			result.ContentType = r.Headers.Get("Content-Type")
		}
		result.Body = r.Body
		if r.Request != nil && r.Request.URL != nil {
			result.URL = r.Request.URL.String()
		}
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", humanize.Bytes(uint64(len(r.Body))))
	})

	if err := c.Visit(targetURL); err != nil {
		logger.Debug("static fetch visit failed", "url", targetURL, "error", err)
		if result.StatusCode != 0 && !IsSuccess(result.StatusCode) {
			return result, &StatusError{URL: targetURL, StatusCode: result.StatusCode}
		}
		return result, fmt.Errorf("failed to visit URL: %w", err)
	}

	if !IsSuccess(result.StatusCode) {
		return result, &StatusError{URL: targetURL, StatusCode: result.StatusCode}
	}

	logger.Debug("static fetch complete", "url", targetURL, "status", result.StatusCode)
	return result, nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
