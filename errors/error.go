package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// Severity represents the severity level of an error
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	switch str {
	case "info":
		*s = Info
	case "warning":
		*s = Warning
	case "error":
		*s = Error
	case "fatal":
		*s = Fatal
	default:
		*s = Error
	}
	return nil
}

// ConfigError represents a fatal annotation configuration error: a malformed
// alias declaration, an inconsistent mirror group, or a mapping that cannot
// be built. Configuration errors are deterministic - retrying the same
// construction fails the same way - so callers must not treat them as
// transient.
type ConfigError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Annotation string        `json:"annotation,omitempty"` // annotation type the error was detected on
	Attributes []string      `json:"attributes,omitempty"` // offending attribute names
	Severity   Severity      `json:"severity"`
	Suggestion string        `json:"suggestion,omitempty"`
	Related    []ConfigError `json:"related,omitempty"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Annotation != "" {
		return fmt.Sprintf("annotation %s: %s: %s", e.Annotation, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfigError creates a new ConfigError with Error severity
func NewConfigError(code, annotationType, message string) *ConfigError {
	return &ConfigError{
		Code:       code,
		Message:    message,
		Annotation: annotationType,
		Severity:   Error,
	}
}

// WithAttributes returns a copy of the error annotated with the offending
// attribute names
func (e *ConfigError) WithAttributes(names ...string) *ConfigError {
	clone := *e
	clone.Attributes = append([]string(nil), names...)
	return &clone
}

// WithSuggestion returns a copy of the error carrying a fix suggestion
func (e *ConfigError) WithSuggestion(suggestion string) *ConfigError {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// WithRelated returns a copy of the error with related errors attached
func (e *ConfigError) WithRelated(related ...ConfigError) *ConfigError {
	clone := *e
	clone.Related = append(clone.Related, related...)
	return &clone
}

// ToJSON serializes the error to JSON for tooling integration
func (e *ConfigError) ToJSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// IsConfig reports whether err is (or wraps) a ConfigError
func IsConfig(err error) bool {
	var ce *ConfigError
	return stderrors.As(err, &ce)
}

// AsConfig extracts the ConfigError from err, or nil if there is none
func AsConfig(err error) *ConfigError {
	var ce *ConfigError
	if stderrors.As(err, &ce) {
		return ce
	}
	return nil
}

// UnreadableError reports a single annotation attribute whose value could not
// be read (for example a type reference to a type that no longer exists).
// Unlike ConfigError it is recoverable: scanning layers catch it, discard the
// offending instance, and continue.
type UnreadableError struct {
	Annotation string // annotation type name
	Attribute  string // attribute that failed to read
	Cause      error
}

// Error implements the error interface
func (e *UnreadableError) Error() string {
	return fmt.Sprintf("annotation %s: attribute %q could not be read: %v",
		e.Annotation, e.Attribute, e.Cause)
}

// Unwrap returns the underlying read failure
func (e *UnreadableError) Unwrap() error {
	return e.Cause
}

// NewUnreadableError creates an UnreadableError for one attribute read failure
func NewUnreadableError(annotationType, attribute string, cause error) *UnreadableError {
	return &UnreadableError{Annotation: annotationType, Attribute: attribute, Cause: cause}
}

// IsUnreadable reports whether err is (or wraps) an UnreadableError
func IsUnreadable(err error) bool {
	var ue *UnreadableError
	return stderrors.As(err, &ue)
}
