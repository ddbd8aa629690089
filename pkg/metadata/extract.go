package metadata

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// MetaExtractor pulls a small fixed set of values out of untrusted page HTML.
// Implementations return "" when the value is missing.
type MetaExtractor interface {
	// Property returns the content of the <meta> tag whose property or name
	// attribute equals key (case-insensitive).
	Property(page, key string) string

	// Title returns the text of the first <title> element.
	Title(page string) string
}

// NewExtractor returns the extractor registered under name: "regex" (the
// default when name is empty) or "tokenizer".
func NewExtractor(name string) (MetaExtractor, error) {
	switch name {
	case "", "regex":
		return RegexExtractor{}, nil
	case "tokenizer":
		return TokenizerExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown meta extractor: %s (use regex or tokenizer)", name)
	}
}

// RegexExtractor matches meta tags with targeted regular expressions. Both
// attribute orders are accepted: property/name before content and content
// before property/name.
type RegexExtractor struct{}

var (
	titleTagRe = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

	metaPatternsMu sync.Mutex
	metaPatterns   = map[string][2]*regexp.Regexp{}
)

func metaPatternsFor(key string) [2]*regexp.Regexp {
	metaPatternsMu.Lock()
	defer metaPatternsMu.Unlock()

	if p, ok := metaPatterns[key]; ok {
		return p
	}

	quoted := regexp.QuoteMeta(key)
	p := [2]*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["']` + quoted + `["'][^>]*content=["']([^"']+)["'][^>]*>`),
		regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]*(?:property|name)=["']` + quoted + `["'][^>]*>`),
	}
	metaPatterns[key] = p
	return p
}

// Property implements MetaExtractor.
func (RegexExtractor) Property(page, key string) string {
	for _, re := range metaPatternsFor(key) {
		if m := re.FindStringSubmatch(page); m != nil {
			return decodeEntities(strings.TrimSpace(m[1]))
		}
	}
	return ""
}

// Title implements MetaExtractor.
func (RegexExtractor) Title(page string) string {
	m := titleTagRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return decodeEntities(strings.TrimSpace(m[1]))
}

// TokenizerExtractor walks the page with the x/net/html tokenizer instead of
// regular expressions. It never builds a DOM. Entity decoding is done by the
// tokenizer, so the result covers every named entity, not only the common
// five.
type TokenizerExtractor struct{}

// Property implements MetaExtractor.
func (TokenizerExtractor) Property(page, key string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var matched bool
			var content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "property", "name":
					if strings.EqualFold(a.Val, key) {
						matched = true
					}
				case "content":
					content = a.Val
				}
			}
			if matched && strings.TrimSpace(content) != "" {
				return strings.TrimSpace(content)
			}
		}
	}
}

// Title implements MetaExtractor.
func (TokenizerExtractor) Title(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	inTitle := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(z.Text()))
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
)

// decodeEntities replaces the handful of entities that appear in Open Graph
// content attributes.
func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
