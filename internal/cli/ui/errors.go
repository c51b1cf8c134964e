package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/annokit/annokit/errors"
)

// PrintError renders err for the terminal. Configuration errors use their
// structured form with code and suggestion; everything else gets a plain
// red line.
func PrintError(w io.Writer, err error, noColor bool) {
	if noColor {
		color.NoColor = true
	}
	if cfg := errors.AsConfig(err); cfg != nil {
		fmt.Fprintln(w, cfg.FormatForTerminal())
		return
	}
	red := color.New(color.FgRed, color.Bold)
	if noColor {
		red.DisableColor()
	}
	red.Fprintf(w, "Error: %v\n", err)
}

// PrintUnknownName renders an unknown-name error with fuzzy suggestions.
func PrintUnknownName(w io.Writer, kind, name string, known []string, noColor bool) {
	red := color.New(color.FgRed, color.Bold)
	if noColor {
		red.DisableColor()
	}
	red.Fprintf(w, "Error: unknown %s %q\n", kind, name)
	if similar := FindSimilar(name, known); len(similar) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(similar, ", "))
	}
}
