package store

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jmylchreest/itscooked/pkg/platform"
)

// Sort orders a recipe listing.
type Sort string

const (
	SortNewest Sort = "newest"
	SortOldest Sort = "oldest"
	SortTitle  Sort = "title"
)

// ParseSort resolves a sort name; empty means newest.
func ParseSort(name string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(name))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortTitle:
		return SortTitle, nil
	default:
		return "", fmt.Errorf("unknown sort: %s (use newest, oldest or title)", name)
	}
}

// ListOptions filters and orders a listing. Zero values match everything,
// newest first.
type ListOptions struct {
	Query    string
	Platform platform.SourcePlatform
	Sort     Sort
}

// List returns the user's recipes filtered and ordered by opts.
func (s *Store) List(ctx context.Context, userID string, opts ListOptions) ([]Recipe, error) {
	all, err := s.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Filter(all, opts), nil
}

// untitled is what a search matches for a recipe without a title.
const untitled = "Untitled recipe"

// Filter applies opts to recipes and returns a new slice.
//
// The query is case-folded and matched as a substring of the title (or
// "Untitled recipe"), the source host without "www.", and the creator.
// Title sorting uses root-locale collation.
func Filter(recipes []Recipe, opts ListOptions) []Recipe {
	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(opts.Query))

	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if opts.Platform != "" && r.SourcePlatform != opts.Platform {
			continue
		}
		if term != "" && !matches(fold, r, term) {
			continue
		}
		out = append(out, r)
	}

	switch opts.Sort {
	case SortTitle:
		c := collate.New(language.Und)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Title, out[j].Title) < 0
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

func matches(fold cases.Caser, r Recipe, term string) bool {
	title := r.Title
	if title == "" {
		title = untitled
	}
	for _, field := range []string{title, SourceHost(r.SourceURL), r.OriginalCreator} {
		if field != "" && strings.Contains(fold.String(field), term) {
			return true
		}
	}
	return false
}

// SourceHost returns the host of a source URL without a leading "www.".
func SourceHost(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Hostname() == "" {
		return "source link"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
