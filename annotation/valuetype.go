package annotation

import "strings"

// Kind identifies the category of values an attribute can hold.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindTypeRef
	KindEnum
	KindAnnotation
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTypeRef:
		return "typeref"
	case KindEnum:
		return "enum"
	case KindAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// ParseKind parses the string form produced by Kind.String.
// Unknown strings parse as KindString.
func ParseKind(s string) Kind {
	switch strings.ToLower(s) {
	case "bool":
		return KindBool
	case "int":
		return KindInt
	case "float":
		return KindFloat
	case "typeref":
		return KindTypeRef
	case "enum":
		return KindEnum
	case "annotation":
		return KindAnnotation
	default:
		return KindString
	}
}

// ValueType is the declared type of an annotation attribute.
type ValueType struct {
	Kind       Kind
	Array      bool
	Annotation string // annotation type name when Kind is KindAnnotation
}

// String returns a readable representation such as "[]string" or "annotation:Cached"
func (t ValueType) String() string {
	base := t.Kind.String()
	if t.Kind == KindAnnotation && t.Annotation != "" {
		base = "annotation:" + t.Annotation
	}
	if t.Array {
		return "[]" + base
	}
	return base
}

// ArrayOf returns the array form of t
func ArrayOf(t ValueType) ValueType {
	t.Array = true
	return t
}

// AnnotationOf returns the nested-annotation type for the named annotation type
func AnnotationOf(name string) ValueType {
	return ValueType{Kind: KindAnnotation, Annotation: name}
}

// Convenience scalar types
var (
	TypeString  = ValueType{Kind: KindString}
	TypeBool    = ValueType{Kind: KindBool}
	TypeInt     = ValueType{Kind: KindInt}
	TypeFloat   = ValueType{Kind: KindFloat}
	TypeTypeRef = ValueType{Kind: KindTypeRef}
	TypeEnum    = ValueType{Kind: KindEnum}
)

// CompatibleTarget reports whether an attribute of type t may alias an
// attribute of type target. Types are compatible when they are equal or when
// the target is the array form of the source.
func (t ValueType) CompatibleTarget(target ValueType) bool {
	if t == target {
		return true
	}
	if target.Array && !t.Array {
		elem := target
		elem.Array = false
		return t == elem
	}
	return false
}

// MayFail reports whether reading a value of this type can legitimately fail
// at runtime, for example a type reference to a type that is no longer
// available. Callers must treat such read failures as "instance invalid"
// rather than crashing a scan.
func (t ValueType) MayFail() bool {
	return t.Kind == KindTypeRef || t.Kind == KindEnum
}

// Nested reports whether values of this type are annotation instances
// (or arrays of them)
func (t ValueType) Nested() bool {
	return t.Kind == KindAnnotation
}
