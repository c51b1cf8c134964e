package mapping

import "strings"

// Filter excludes annotation types from mapping graph traversal. Filters are
// supplied by callers to cut irrelevant namespaces early; they are named so
// graphs can be cached per (root type, filter) pair.
type Filter struct {
	name    string
	matches func(typeName string) bool
}

// NewFilter creates a named filter. The predicate returns true for types
// that must be excluded from traversal.
func NewFilter(name string, matches func(typeName string) bool) Filter {
	return Filter{name: name, matches: matches}
}

// FilterNone excludes nothing
var FilterNone = Filter{name: "none"}

// FilterReserved excludes the reserved "annokit." marker namespace
var FilterReserved = NewFilter("reserved", func(typeName string) bool {
	return strings.HasPrefix(typeName, "annokit.")
})

// Matches reports whether the named type is filtered out
func (f Filter) Matches(typeName string) bool {
	if f.matches == nil {
		return false
	}
	return f.matches(typeName)
}

// Key identifies this filter for cache keying
func (f Filter) Key() string {
	if f.name == "" {
		return "none"
	}
	return f.name
}
