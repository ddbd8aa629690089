package platform

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// The validate tags on submission are the source of truth for these limits
// and must be kept equal to them.
const (
	// MaxURLLength bounds submitted links.
	MaxURLLength = 2000
	// MaxTitleLength bounds user-supplied titles.
	MaxTitleLength = 140
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation error")

// ValidationError describes a rejected import submission. Message is
// suitable for showing to the user as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ImportRequest is a validated import submission.
type ImportRequest struct {
	URL           string         `json:"url" yaml:"url"`
	Platform      SourcePlatform `json:"platform" yaml:"platform"`
	FallbackTitle string         `json:"fallbackTitle,omitempty" yaml:"fallback_title,omitempty"`
}

type submission struct {
	URL   string `validate:"required,max=2000"`
	Title string `validate:"max=140"`
}

var validate = validator.New()

// ParseImportRequest validates a raw link and optional title and returns the
// normalized request. Both inputs are trimmed first. Oversized titles are
// rejected rather than truncated.
func ParseImportRequest(rawURL, rawTitle string) (ImportRequest, error) {
	sub := submission{
		URL:   strings.TrimSpace(rawURL),
		Title: strings.TrimSpace(rawTitle),
	}

	fieldErrs := map[string]string{}
	if err := validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ImportRequest{}, fmt.Errorf("validate submission: %w", err)
		}
		for _, fe := range verrs {
			fieldErrs[fe.Field()] = fe.Tag()
		}
	}

	switch fieldErrs["URL"] {
	case "required":
		return ImportRequest{}, &ValidationError{Field: "url", Message: "Recipe URL is required."}
	case "max":
		return ImportRequest{}, &ValidationError{Field: "url", Message: "Recipe URL is too long."}
	}

	u, err := url.Parse(sub.URL)
	if err != nil || u.Scheme == "" {
		return ImportRequest{}, &ValidationError{Field: "url", Message: "Recipe URL must be valid."}
	}
	if !isWebScheme(u.Scheme) {
		return ImportRequest{}, &ValidationError{Field: "url", Message: "Recipe URL must start with http or https."}
	}
	if u.Host == "" {
		return ImportRequest{}, &ValidationError{Field: "url", Message: "Recipe URL must be valid."}
	}

	p := Detect(u.Hostname())
	if p == Unknown {
		return ImportRequest{}, &ValidationError{Field: "url", Message: "Only Instagram or TikTok links are supported right now."}
	}

	if fieldErrs["Title"] != "" {
		return ImportRequest{}, &ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("Title must be %d characters or fewer.", MaxTitleLength),
		}
	}

	return ImportRequest{
		URL:           NormalizeURL(u),
		Platform:      p,
		FallbackTitle: sub.Title,
	}, nil
}

func isWebScheme(scheme string) bool {
	s := strings.ToLower(scheme)
	return s == "http" || s == "https"
}
