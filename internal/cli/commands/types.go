package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/annokit/annokit/internal/cli/ui"
)

var typesJSON bool

// NewTypesCommand creates the types command
func NewTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types [name]",
		Short: "List registered annotation types",
		Long: `List every annotation type in the definitions document, or show the
attributes, aliases, and meta-annotations of a single type.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTypes,
	}

	cmd.Flags().BoolVar(&typesJSON, "json", false, "Emit JSON instead of a table")

	return cmd
}

func runTypes(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return showType(ws, args[0])
	}
	return listTypes(ws)
}

func listTypes(ws *workspace) error {
	names := ws.registry.TypeNames()

	if typesJSON || ws.config.Output.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(names)
	}

	table := ui.NewTable(os.Stdout, []string{"TYPE", "ATTRIBUTES", "METAS", "ALIASES"}, ws.config.Output.NoColor)
	for _, name := range names {
		t := ws.registry.TypeOf(name)
		display := name
		if t.IsContainer() {
			display = name + " (container)"
		}
		table.AddRow(display,
			strconv.Itoa(t.Attributes().Len()),
			strconv.Itoa(len(t.MetaAnnotations())),
			strconv.Itoa(len(t.AliasDeclarations())))
	}
	table.Render()
	return nil
}

func showType(ws *workspace, name string) error {
	t := ws.registry.TypeOf(name)
	if t == nil {
		ui.PrintUnknownName(os.Stderr, "annotation type", name, ws.registry.TypeNames(), ws.config.Output.NoColor)
		return fmt.Errorf("annotation type %q is not registered", name)
	}

	if typesJSON || ws.config.Output.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(typeDetailOf(t))
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	if ws.config.Output.NoColor {
		titleColor.DisableColor()
	}
	titleColor.Println(t.Name())

	table := ui.NewTable(os.Stdout, []string{"ATTRIBUTE", "TYPE", "DEFAULT"}, ws.config.Output.NoColor)
	attrs := t.Attributes()
	for i := 0; i < attrs.Len(); i++ {
		attr := attrs.At(i)
		def := ""
		if attr.HasDefault {
			def = fmt.Sprintf("%v", attr.Default)
		}
		table.AddRow(attr.Name, attr.Type.String(), def)
	}
	table.Render()

	if aliases := t.AliasDeclarations(); len(aliases) > 0 {
		fmt.Println()
		titleColor.Println("Aliases")
		for _, a := range aliases {
			fmt.Printf("  %s -> %s.%s\n", a.Attribute, a.TargetType, a.TargetAttribute)
		}
	}
	if metas := t.MetaAnnotations(); len(metas) > 0 {
		fmt.Println()
		titleColor.Println("Meta-annotations")
		names := make([]string, 0, len(metas))
		for _, m := range metas {
			names = append(names, m.Type)
		}
		fmt.Printf("  %s\n", strings.Join(names, ", "))
	}
	return nil
}
