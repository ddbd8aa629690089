// Package recipetext turns free-form caption text into candidate ingredient
// and instruction lists.
//
// Everything here is pure and deterministic: the same text always yields the
// same lines in the same order.
package recipetext

import (
	"regexp"
	"strings"
)

// bulletReplacer turns inline bullet glyphs into "- " list items on their own
// line, and tabs into spaces.
var bulletReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u2022", "\n- ", // •
	"\u2023", "\n- ", // ‣
	"\u25e6", "\n- ", // ◦
	"\u2043", "\n- ", // ⁃
	"\u2219", "\n- ", // ∙
	"\u25aa", "\n- ", // ▪
	"\u25cf", "\n- ", // ●
	"\t", " ",
)

var (
	hashtagRe    = regexp.MustCompile(`#\w+`)
	listPrefixRe = regexp.MustCompile(`(?i)^([-*]|\d+\.|\d+\)|step\s+\d+:)\s*`)
)

// NormalizeLines splits text into cleaned, non-empty lines. Whitespace runs
// collapse to one space, hashtags are removed and lines that end up empty are
// dropped. Input order is preserved.
func NormalizeLines(text string) []string {
	normalized := bulletReplacer.Replace(text)

	lines := make([]string, 0, strings.Count(normalized, "\n")+1)
	for _, raw := range strings.Split(normalized, "\n") {
		line := strings.Join(strings.Fields(raw), " ")
		if line == "" {
			continue
		}
		line = strings.TrimSpace(hashtagRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// StripListPrefix removes one leading list marker ("-", "*", "1.", "1)" or
// "Step 1:") and trims the result.
func StripListPrefix(line string) string {
	return strings.TrimSpace(listPrefixRe.ReplaceAllString(line, ""))
}
