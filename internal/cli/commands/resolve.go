package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/annokit/annokit/internal/cli/ui"
	"github.com/annokit/annokit/search"
)

var (
	resolveJSON   bool
	resolveDirect bool
)

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [declaration] [type]",
		Short: "Resolve merged annotation values on a declaration",
		Long: `Scan a declaration (and its hierarchy) for an annotation type and print
the merged attribute values: explicit aliases collapsed onto the root,
mirrors resolved, and the closest declaration winning per attribute.

A third argument restricts the output to one attribute. With no arguments
the declaration and type are picked interactively.`,
		Args: cobra.MaximumNArgs(3),
		RunE: runResolve,
	}

	cmd.Flags().BoolVar(&resolveJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&resolveDirect, "direct", false, "Scan the declaration only, not its hierarchy")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	declName, typeName, err := resolveArgs(ws, args)
	if err != nil {
		return err
	}

	decl := ws.document.Declaration(declName)
	if decl == nil {
		ui.PrintUnknownName(os.Stderr, "declaration", declName, ws.document.DeclarationNames(), ws.config.Output.NoColor)
		return fmt.Errorf("declaration %q is not defined", declName)
	}

	strategy := search.StrategyHierarchy
	if resolveDirect {
		strategy = search.StrategyDirect
	}

	anns := search.From(ws.registry, decl, strategy, search.WithFilter(ws.config.Filter()))
	view, err := anns.Get(typeName)
	if err != nil {
		ui.PrintError(os.Stderr, err, ws.config.Output.NoColor)
		return err
	}
	if view == nil {
		return fmt.Errorf("annotation %q is not present on %q", typeName, declName)
	}

	if len(args) > 2 {
		value, verr := view.Value(args[2])
		if verr != nil {
			ui.PrintError(os.Stderr, verr, ws.config.Output.NoColor)
			return verr
		}
		if resolveJSON || ws.config.Output.Format == "json" {
			return json.NewEncoder(os.Stdout).Encode(map[string]any{args[2]: value})
		}
		fmt.Printf("%v\n", value)
		return nil
	}

	values, err := view.Synthesize()
	if err != nil {
		ui.PrintError(os.Stderr, err, ws.config.Output.NoColor)
		return err
	}

	if resolveJSON || ws.config.Output.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"declaration": declName,
			"type":        typeName,
			"distance":    view.Distance(),
			"aggregate":   view.AggregateIndex(),
			"values":      values,
		})
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	if ws.config.Output.NoColor {
		titleColor.DisableColor()
	}
	titleColor.Printf("%s on %s", typeName, declName)
	fmt.Printf(" (distance %d, aggregate %d)\n", view.Distance(), view.AggregateIndex())

	table := ui.NewTable(os.Stdout, []string{"ATTRIBUTE", "VALUE"}, ws.config.Output.NoColor)
	attrs := ws.registry.TypeOf(typeName).Attributes()
	for i := 0; i < attrs.Len(); i++ {
		name := attrs.At(i).Name
		if value, ok := values[name]; ok {
			table.AddRow(name, fmt.Sprintf("%v", value))
		}
	}
	table.Render()
	return nil
}

// resolveArgs fills missing positional arguments with interactive prompts
func resolveArgs(ws *workspace, args []string) (string, string, error) {
	var declName, typeName string
	if len(args) > 0 {
		declName = args[0]
	}
	if len(args) > 1 {
		typeName = args[1]
	}

	if declName == "" {
		declarations := ws.document.DeclarationNames()
		if len(declarations) == 0 {
			return "", "", fmt.Errorf("no declarations defined in %s", ws.config.Definitions)
		}
		prompt := &survey.Select{
			Message: "Which declaration?",
			Options: declarations,
		}
		if err := survey.AskOne(prompt, &declName); err != nil {
			return "", "", fmt.Errorf("selection cancelled: %w", err)
		}
	}

	if typeName == "" {
		prompt := &survey.Select{
			Message: "Which annotation type?",
			Options: ws.registry.TypeNames(),
		}
		if err := survey.AskOne(prompt, &typeName); err != nil {
			return "", "", fmt.Errorf("selection cancelled: %w", err)
		}
	}

	return declName, typeName, nil
}
