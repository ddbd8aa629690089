// Package fetcher defines how remote post pages and metadata endpoints are
// retrieved. Platform metadata sources depend on the Fetcher interface, so
// tests and alternative transports can be swapped in without touching them.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Fetcher abstracts a single GET of a remote resource.
type Fetcher interface {
	// Fetch retrieves the body of url. A non-2xx response is reported as a
	// *StatusError, with the partial Content still returned.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Type returns a string identifying the fetcher (e.g. "static").
	Type() string
}

// Options controls a single fetch.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	Headers     map[string]string
	MaxBodySize int // bytes; can only lower the fetcher's configured cap
}

// Content is a fetched response.
type Content struct {
	URL         string
	Body        []byte
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// StatusError reports a response outside the 2xx range.
// Check with errors.As(err, &fetcher.StatusError{}).
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s fetching %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// IsSuccess reports whether code is in the 2xx range.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
