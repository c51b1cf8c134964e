package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/annokit/annokit/internal/cli/ui"
	"github.com/annokit/annokit/mapping"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every annotation type for configuration errors",
		Long: `Build the mapping graph of every registered type and report each
configuration error with its code: broken aliases, mirror groups with
missing or conflicting defaults, and unclaimed alias targets.`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	successColor := color.New(color.FgGreen, color.Bold)
	errorColor := color.New(color.FgRed, color.Bold)
	if ws.config.Output.NoColor {
		successColor.DisableColor()
		errorColor.DisableColor()
	}

	// Each type gets a fresh graph build so every failure is reported,
	// not just the first.
	mapping.ResetCache()

	failures := 0
	for _, name := range ws.registry.TypeNames() {
		if _, err := mapping.ForType(ws.registry, name, ws.config.Filter(), nil); err != nil {
			failures++
			errorColor.Fprintf(os.Stderr, "✗ %s\n", name)
			ui.PrintError(os.Stderr, err, ws.config.Output.NoColor)
		}
	}

	total := ws.registry.Len()
	if failures > 0 {
		return fmt.Errorf("%d of %d annotation types failed validation", failures, total)
	}
	successColor.Printf("✓ %d annotation types validated\n", total)
	return nil
}
