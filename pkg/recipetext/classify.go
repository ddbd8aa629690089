package recipetext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxLineLength is the rune cap applied to every emitted list item.
	MaxLineLength = 240

	// MaxTitleLength is the longest line, in runes, accepted as a title.
	MaxTitleLength = 80
)

// MeasureWords are the units and terms that mark a line as an ingredient on
// the headingless path.
var MeasureWords = []string{
	"cup", "cups",
	"tsp", "teaspoon",
	"tbsp", "tablespoon",
	"oz", "ounce",
	"g", "gram", "kg",
	"ml", "l",
	"lb", "pound",
	"pinch",
	"clove", "cloves",
	"slice", "slices",
}

var (
	ingredientHeadingRe  = regexp.MustCompile(`(?i)^(ingredients?|what you need|for the sauce)\b[:\s-]*`)
	instructionHeadingRe = regexp.MustCompile(`(?i)^(instructions?|directions?|method|steps?)\b[:\s-]*`)

	digitRe   = regexp.MustCompile(`\d`)
	measureRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(MeasureWords, "|") + `)\b`)
)

// ParsedRecipe is the classifier's best guess at a recipe. The slices are
// never nil.
type ParsedRecipe struct {
	Title        string   `json:"title,omitempty" yaml:"title,omitempty"`
	Ingredients  []string `json:"ingredients" yaml:"ingredients"`
	Instructions []string `json:"instructions" yaml:"instructions"`
}

type section int

const (
	sectionNone section = iota
	sectionIngredients
	sectionInstructions
)

// LooksLikeIngredient reports whether line contains a digit or a whole-word
// measurement term.
func LooksLikeIngredient(line string) bool {
	return digitRe.MatchString(line) || measureRe.MatchString(line)
}

// IsIngredientHeading reports whether line opens an ingredients section.
func IsIngredientHeading(line string) bool {
	return ingredientHeadingRe.MatchString(line)
}

// IsInstructionHeading reports whether line opens an instructions section.
// "Step 1: ..." matches too and is consumed as a heading.
func IsInstructionHeading(line string) bool {
	return instructionHeadingRe.MatchString(line)
}

// Parse classifies text into ingredients and instructions.
//
// When the text has at least one section heading, lines are filed under the
// most recent heading and lines before the first heading are dropped.
// Without headings every line is classified on its own: ingredient if it
// looks like one, instruction otherwise. Items are truncated to
// MaxLineLength runes.
func Parse(text string) ParsedRecipe {
	lines := NormalizeLines(text)

	ingredients, instructions, found := classifyByHeading(lines)
	if !found {
		ingredients, instructions = classifyByLine(lines)
	}

	return ParsedRecipe{
		Title:        titleCandidate(lines),
		Ingredients:  truncateAll(ingredients, MaxLineLength),
		Instructions: truncateAll(instructions, MaxLineLength),
	}
}

func classifyByHeading(lines []string) (ingredients, instructions []string, found bool) {
	current := sectionNone
	for _, line := range lines {
		switch {
		case IsIngredientHeading(line):
			current, found = sectionIngredients, true
			continue
		case IsInstructionHeading(line):
			current, found = sectionInstructions, true
			continue
		}

		cleaned := StripListPrefix(line)
		if cleaned == "" {
			continue
		}
		switch current {
		case sectionIngredients:
			ingredients = append(ingredients, cleaned)
		case sectionInstructions:
			instructions = append(instructions, cleaned)
		}
	}
	return ingredients, instructions, found
}

func classifyByLine(lines []string) (ingredients, instructions []string) {
	for _, line := range lines {
		cleaned := StripListPrefix(line)
		if cleaned == "" {
			continue
		}
		if LooksLikeIngredient(cleaned) {
			ingredients = append(ingredients, cleaned)
		} else {
			instructions = append(instructions, cleaned)
		}
	}
	return ingredients, instructions
}

// titleCandidate returns the first short line that is neither a heading nor
// ingredient-like. List markers are not stripped.
func titleCandidate(lines []string) string {
	for _, line := range lines {
		if IsIngredientHeading(line) || IsInstructionHeading(line) {
			continue
		}
		if LooksLikeIngredient(line) || utf8.RuneCountInString(line) > MaxTitleLength {
			continue
		}
		return line
	}
	return ""
}

func truncateAll(items []string, n int) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, truncate(item, n))
	}
	return out
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
