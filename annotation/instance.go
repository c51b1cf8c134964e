package annotation

import (
	"fmt"
	"reflect"
	"unicode"
)

// Resolvable is a lazily resolved attribute value, typically a reference to a
// named type that may no longer exist when the value is finally read. The
// error returned by Resolve is the "unreadable attribute" path: callers
// discard the owning instance instead of failing the broader scan.
type Resolvable interface {
	Resolve() (any, error)
}

// ResolveFunc adapts a function to the Resolvable interface
type ResolveFunc func() (any, error)

// Resolve implements Resolvable
func (f ResolveFunc) Resolve() (any, error) {
	return f()
}

// ValueExtractor pulls the raw value of one attribute out of an opaque value
// source. It returns (nil, nil) when the attribute is simply not set.
// Implementations exist for map sources and for reflective struct sources;
// the engine never knows which one is active.
type ValueExtractor func(attr *Attribute, source any) (any, error)

// Instance is one concrete occurrence of an annotation: a type name, an
// opaque value source, and the extraction strategy bound to that source.
// The zero Instance means "none".
type Instance struct {
	Type      string
	Source    any
	Extractor ValueExtractor
}

// IsPresent reports whether this instance holds an actual occurrence
func (in Instance) IsPresent() bool {
	return in.Type != ""
}

// Value extracts the raw value of attr from this instance, resolving lazy
// values. Returns (nil, nil) when the attribute is not set.
func (in Instance) Value(attr *Attribute) (any, error) {
	if !in.IsPresent() || in.Source == nil {
		return nil, nil
	}
	extractor := in.Extractor
	if extractor == nil {
		extractor = ExtractorFor(in.Source)
	}
	return extractor(attr, in.Source)
}

// NewInstance binds a value source to an annotation type, inferring the
// extraction strategy from the source kind.
func NewInstance(typeName string, source any) Instance {
	return Instance{Type: typeName, Source: source, Extractor: ExtractorFor(source)}
}

// ExtractorFor picks the extraction strategy for a value source:
// map[string]any sources use MapExtractor, everything else is read
// reflectively.
func ExtractorFor(source any) ValueExtractor {
	if _, ok := source.(map[string]any); ok {
		return MapExtractor
	}
	return ReflectExtractor
}

// MapExtractor reads attribute values from a map[string]any source.
// A missing key is absent; a Resolvable value is resolved on read.
func MapExtractor(attr *Attribute, source any) (any, error) {
	values, ok := source.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("map extractor: source is %T, not map[string]any", source)
	}
	value, ok := values[attr.Name]
	if !ok {
		return nil, nil
	}
	return resolveRaw(value)
}

// ReflectExtractor reads attribute values from exported struct fields. The
// attribute name maps to its exported form (key -> Key); a zero field value
// is treated as absent.
func ReflectExtractor(attr *Attribute, source any) (any, error) {
	v := reflect.ValueOf(source)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("reflect extractor: source is %T, not a struct", source)
	}
	field := v.FieldByName(exportedName(attr.Name))
	if !field.IsValid() || field.IsZero() {
		return nil, nil
	}
	return resolveRaw(field.Interface())
}

func resolveRaw(value any) (any, error) {
	if r, ok := value.(Resolvable); ok {
		return r.Resolve()
	}
	return value, nil
}

func exportedName(name string) string {
	if name == "" {
		return ""
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
