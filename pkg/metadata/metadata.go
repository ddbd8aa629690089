// Package metadata retrieves best-effort public metadata for a social post.
// Each platform has its own Source; Registry dispatches by platform.
package metadata

import (
	"context"
	"strings"

	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/pkg/platform"
)

// Metadata is what a platform exposes about a post. Empty fields are absent.
type Metadata struct {
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	AuthorName   string `json:"authorName,omitempty" yaml:"author_name,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty" yaml:"thumbnail_url,omitempty"`
}

// Source fetches metadata for one platform.
type Source interface {
	Fetch(ctx context.Context, url string) (*Metadata, error)
}

// FetchError is returned by sources when the remote call fails. Its message
// is written for end users; the underlying cause is available via Unwrap.
type FetchError struct {
	Platform platform.SourcePlatform
	Message  string
	Err      error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Registry maps platforms to sources.
type Registry struct {
	sources map[platform.SourcePlatform]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[platform.SourcePlatform]Source)}
}

// Register installs s for p, replacing any previous source.
func (r *Registry) Register(p platform.SourcePlatform, s Source) {
	r.sources[p] = s
}

// Fetch dispatches to the source registered for p. Platforms without a source
// (including Unknown) yield nil metadata and no error, without a network call.
func (r *Registry) Fetch(ctx context.Context, url string, p platform.SourcePlatform) (*Metadata, error) {
	s, ok := r.sources[p]
	if !ok || p == platform.Unknown {
		logger.Debug("no metadata source for platform", "platform", p)
		return nil, nil
	}
	return s.Fetch(ctx, url)
}

// trimmed returns the value with surrounding whitespace removed.
func trimmed(s string) string {
	return strings.TrimSpace(s)
}
