package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// FormatForTerminal formats a ConfigError for terminal output with colors.
// Color output honors the global color.NoColor flag.
func (e *ConfigError) FormatForTerminal() string {
	var sb strings.Builder

	headerColor := severityColor(e.Severity)
	sb.WriteString(fmt.Sprintf("%s: %s\n",
		headerColor(strings.ToUpper(e.Severity.String())+" "+e.Code),
		e.Message))

	if e.Annotation != "" {
		sb.WriteString(fmt.Sprintf("  %s %s\n", color.CyanString("-->"), e.Annotation))
	}
	if len(e.Attributes) > 0 {
		sb.WriteString(fmt.Sprintf("  attributes: %s\n", strings.Join(e.Attributes, ", ")))
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  %s %s\n", color.GreenString("help:"), e.Suggestion))
	}

	if len(e.Related) > 0 {
		sb.WriteString(color.New(color.Bold).Sprint("\nRelated errors:\n"))
		for i, related := range e.Related {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, related.Code, related.Message))
		}
	}

	return sb.String()
}

func severityColor(s Severity) func(format string, a ...interface{}) string {
	switch s {
	case Warning:
		return color.YellowString
	case Info:
		return color.BlueString
	default:
		return color.RedString
	}
}
