// Package importer turns a validated social post URL into a best-effort
// recipe draft.
//
// An import never fails outright. Fetch problems and weak extraction are
// reported as ordered, human-readable warnings on the result, so a caller
// can always save the bare link.
package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/pkg/fetcher"
	"github.com/jmylchreest/itscooked/pkg/metadata"
	"github.com/jmylchreest/itscooked/pkg/platform"
	"github.com/jmylchreest/itscooked/pkg/recipetext"
)

// Warning messages attached to results.
const (
	WarnFetchFailed    = "Unable to fetch post metadata."
	WarnNoCaption      = "No caption text was available to parse."
	WarnNoIngredients  = "Ingredients were not detected."
	WarnNoInstructions = "Instructions were not detected."
)

// MetadataFetcher resolves post metadata for a platform. A nil result with a
// nil error means the platform has no metadata source.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string, p platform.SourcePlatform) (*metadata.Metadata, error)
}

// ImportResult is the outcome of one import. Empty strings are absent; the
// slices are never nil.
type ImportResult struct {
	Title           string   `json:"title,omitempty" yaml:"title,omitempty"`
	Ingredients     []string `json:"ingredients" yaml:"ingredients"`
	Instructions    []string `json:"instructions" yaml:"instructions"`
	OriginalCreator string   `json:"originalCreator,omitempty" yaml:"original_creator,omitempty"`
	ThumbnailURL    string   `json:"thumbnailUrl,omitempty" yaml:"thumbnail_url,omitempty"`
	Warnings        []string `json:"warnings" yaml:"warnings"`
}

// HasExtraction reports whether anything was classified.
func (r ImportResult) HasExtraction() bool {
	return len(r.Ingredients) > 0 || len(r.Instructions) > 0
}

// Record pairs a request with its result, as emitted by ImportMany.
type Record struct {
	Request platform.ImportRequest `json:"request" yaml:"request"`
	Result  ImportResult           `json:"result" yaml:"result"`
	Status  Status                 `json:"status" yaml:"status"`
}

// Importer runs the import pipeline: metadata fetch, line normalization,
// classification and title resolution.
type Importer struct {
	metadata MetadataFetcher
	config   Config
}

// New creates an Importer. Without an injected MetadataFetcher, Instagram and
// TikTok sources are registered over a shared static fetcher.
func New(opts ...Option) (*Importer, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	md := cfg.Metadata
	if md == nil {
		ext, err := metadata.NewExtractor(cfg.Extractor)
		if err != nil {
			return nil, fmt.Errorf("failed to create meta extractor: %w", err)
		}

		f := cfg.Fetcher
		if f == nil {
			f = fetcher.NewStatic(fetcher.StaticConfig{
				UserAgent:   cfg.UserAgent,
				Timeout:     cfg.Timeout,
				MaxBodySize: cfg.MaxBodySize,
			})
		}

		registry := metadata.NewRegistry()
		registry.Register(platform.Instagram, metadata.NewInstagram(metadata.InstagramConfig{
			Fetcher:   f,
			Extractor: ext,
			UserAgent: cfg.UserAgent,
		}))
		registry.Register(platform.TikTok, metadata.NewTikTok(metadata.TikTokConfig{
			Fetcher:  f,
			Endpoint: cfg.TikTokOEmbedURL,
		}))
		md = registry
	}

	return &Importer{
		metadata: md,
		config:   cfg,
	}, nil
}

// Import runs the pipeline for one request. The request is expected to have
// passed platform.ParseImportRequest.
func (i *Importer) Import(ctx context.Context, req platform.ImportRequest) ImportResult {
	warnings := []string{}

	md, err := i.metadata.Fetch(ctx, req.URL, req.Platform)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = WarnFetchFailed
		}
		logger.WarnContext(ctx, "metadata fetch failed",
			"url", req.URL,
			"platform", req.Platform,
			"error", err)
		warnings = append(warnings, msg)
		md = nil
	}

	var text string
	if md != nil {
		text = md.Description
		if text == "" {
			text = md.Title
		}
	}

	parsed := recipetext.ParsedRecipe{Ingredients: []string{}, Instructions: []string{}}
	if text == "" {
		warnings = append(warnings, WarnNoCaption)
	} else {
		parsed = recipetext.Parse(text)
		logger.DebugContext(ctx, "caption classified",
			"url", req.URL,
			"lines", len(recipetext.NormalizeLines(text)),
			"ingredients", len(parsed.Ingredients),
			"instructions", len(parsed.Instructions))
	}

	if len(parsed.Ingredients) == 0 {
		warnings = append(warnings, WarnNoIngredients)
	}
	if len(parsed.Instructions) == 0 {
		warnings = append(warnings, WarnNoInstructions)
	}

	result := ImportResult{
		Title:        resolveTitle(req.FallbackTitle, parsed.Title, md),
		Ingredients:  parsed.Ingredients,
		Instructions: parsed.Instructions,
		Warnings:     warnings,
	}
	if md != nil {
		result.OriginalCreator = md.AuthorName
		result.ThumbnailURL = md.ThumbnailURL
	}

	logger.DebugContext(ctx, "import complete",
		"url", req.URL,
		"platform", req.Platform,
		"status", DeriveStatus(result),
		"warnings", len(warnings))
	return result
}

// ImportMany imports several requests with at most concurrency in flight.
// Records arrive in completion order; the channel closes when all are done.
func (i *Importer) ImportMany(ctx context.Context, reqs []platform.ImportRequest, concurrency int) <-chan Record {
	if concurrency < 1 {
		concurrency = 1
	}

	records := make(chan Record, len(reqs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, req := range reqs {
		wg.Add(1)
		go func(r platform.ImportRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := i.Import(ctx, r)
			records <- Record{
				Request: r,
				Result:  result,
				Status:  DeriveStatus(result),
			}
		}(req)
	}

	go func() {
		wg.Wait()
		close(records)
	}()

	return records
}

// resolveTitle picks the user's title, then the detected one, then the
// platform's.
func resolveTitle(fallback, detected string, md *metadata.Metadata) string {
	if fallback != "" {
		return fallback
	}
	if detected != "" {
		return detected
	}
	if md != nil {
		return md.Title
	}
	return ""
}
