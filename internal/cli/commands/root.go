// Package commands implements the annokit CLI: inspection and validation of
// annotation type definitions and merged-annotation resolution.
package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "annokit",
		Short: "Annotation metadata inspection and resolution tooling",
		Long: color.CyanString(`Annokit - Meta-annotation resolution engine

Annokit loads annotation type definitions, builds their meta-annotation
mapping graphs, and resolves merged attribute values the way a framework
container sees them: explicit aliases collapse onto root attributes,
mirrored attributes stay consistent, and closer declarations win.

Commands:
  • types     - list and inspect registered annotation types
  • graph     - show the mapping graph for one type
  • resolve   - resolve merged annotation values on a declaration
  • validate  - check every definition for configuration errors
  • serve     - expose the registry over a read-only HTTP API`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewTypesCommand())
	rootCmd.AddCommand(NewGraphCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the annokit version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Print("Annokit version: ")
			valueColor.Println(Version)

			titleColor.Print("Git commit: ")
			valueColor.Println(GitCommit)

			titleColor.Print("Build date: ")
			valueColor.Println(BuildDate)

			titleColor.Print("Go version: ")
			valueColor.Println(goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
