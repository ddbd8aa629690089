// Package grocery builds shopping checklists from saved ingredients.
package grocery

import "strings"

// List is a grocery checklist for one recipe.
type List struct {
	RecipeID string   `json:"recipeId,omitempty" yaml:"recipe_id,omitempty"`
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Items    []string `json:"items" yaml:"items"`
}

// Build trims the title and items and drops empty items.
func Build(recipeID, title string, ingredients []string) List {
	items := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			items = append(items, ing)
		}
	}
	return List{
		RecipeID: recipeID,
		Title:    strings.TrimSpace(title),
		Items:    items,
	}
}

// Empty reports whether there is nothing to buy.
func (l List) Empty() bool {
	return len(l.Items) == 0
}

// Text renders the list as plain text for copying: the title on its own
// line, when set, followed by one "- item" line per item.
func (l List) Text() string {
	lines := make([]string, 0, len(l.Items)+1)
	if l.Title != "" {
		lines = append(lines, l.Title)
	}
	for _, item := range l.Items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}
