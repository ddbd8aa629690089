package importer

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/itscooked/pkg/platform"
)

// UntitledRecipe is shown in place of an absent title.
const UntitledRecipe = "Untitled recipe"

// Text renders the record for terminal output.
func (r Record) Text() string {
	var sb strings.Builder

	title := r.Result.Title
	if title == "" {
		title = UntitledRecipe
	}
	sb.WriteString(title + "\n")
	fmt.Fprintf(&sb, "  Source:   %s (%s)\n", r.Request.URL, platform.Label(r.Request.Platform))
	fmt.Fprintf(&sb, "  Status:   %s\n", r.Status)
	if r.Result.OriginalCreator != "" {
		fmt.Fprintf(&sb, "  Creator:  %s\n", r.Result.OriginalCreator)
	}

	if len(r.Result.Ingredients) > 0 {
		sb.WriteString("\nIngredients:\n")
		for _, item := range r.Result.Ingredients {
			sb.WriteString("- " + item + "\n")
		}
	}
	if len(r.Result.Instructions) > 0 {
		sb.WriteString("\nInstructions:\n")
		for i, step := range r.Result.Instructions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
	}
	if len(r.Result.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range r.Result.Warnings {
			sb.WriteString("! " + w + "\n")
		}
	}
	return sb.String()
}
