package annotation

import (
	"fmt"

	"github.com/annokit/annokit/errors"
)

// AliasDeclaration declares that one attribute is an explicit alias for an
// attribute of an annotation type that is meta-present on the declaring type.
// Declarations are recorded verbatim at definition time and resolved into
// concrete attribute pairs when a mapping graph is built, because the target
// type may not be registered yet (meta-annotation graphs may be cyclic).
type AliasDeclaration struct {
	Attribute       string `json:"attribute"`
	TargetType      string `json:"target_type"`
	TargetAttribute string `json:"target_attribute"`
}

// AttributeSpec declares one attribute of an annotation type.
// HasDefault is implied when Default is non-nil.
type AttributeSpec struct {
	Name       string
	Type       ValueType
	Default    any
	HasDefault bool
}

// InstanceSpec declares a meta-annotation occurrence on a type definition
type InstanceSpec struct {
	Type   string
	Values map[string]any
}

// TypeSpec is the declarative definition of an annotation type.
type TypeSpec struct {
	Name       string
	Attributes []AttributeSpec
	Aliases    []AliasDeclaration
	Metas      []InstanceSpec

	// ContainedType marks this type as a repeatable-group container whose
	// "value" attribute batches occurrences of the named type.
	ContainedType string
}

// Type is an immutable annotation type: an identifier, its attribute table,
// the meta-annotations declared on it, and its local alias declarations.
// Types are built once by a Registry and shared by reference.
type Type struct {
	name          string
	attributes    *AttributeTable
	metas         []Instance
	aliases       []AliasDeclaration
	containedType string
}

func newType(spec TypeSpec) (*Type, error) {
	if spec.Name == "" {
		return nil, errors.NewConfigError(errors.ErrBadAttribute, "", "annotation type with empty name")
	}

	attrs := make([]Attribute, 0, len(spec.Attributes))
	for _, as := range spec.Attributes {
		attrs = append(attrs, Attribute{
			Name:       as.Name,
			Type:       as.Type,
			HasDefault: as.HasDefault || as.Default != nil,
			Default:    as.Default,
		})
	}
	table, err := newAttributeTable(spec.Name, attrs)
	if err != nil {
		return nil, err
	}

	for _, alias := range spec.Aliases {
		if table.IndexOf(alias.Attribute) == -1 {
			return nil, errors.NewConfigError(errors.ErrAliasTargetMissing, spec.Name,
				fmt.Sprintf("alias declared for unknown attribute %q", alias.Attribute)).
				WithAttributes(alias.Attribute)
		}
		if alias.TargetType == spec.Name && alias.TargetAttribute == alias.Attribute {
			return nil, errors.NewConfigError(errors.ErrAliasSelfReference, spec.Name,
				fmt.Sprintf("attribute %q is declared as an alias for itself", alias.Attribute)).
				WithAttributes(alias.Attribute).
				WithSuggestion("point the alias at a different attribute, or remove it")
		}
	}

	metas := make([]Instance, 0, len(spec.Metas))
	for _, ms := range spec.Metas {
		metas = append(metas, Instance{Type: ms.Type, Source: anyMap(ms.Values), Extractor: MapExtractor})
	}

	return &Type{
		name:          spec.Name,
		attributes:    table,
		metas:         metas,
		aliases:       append([]AliasDeclaration(nil), spec.Aliases...),
		containedType: spec.ContainedType,
	}, nil
}

func anyMap(values map[string]any) any {
	if values == nil {
		return map[string]any{}
	}
	return values
}

// Name returns the annotation type identifier
func (t *Type) Name() string {
	return t.name
}

// Attributes returns the attribute table
func (t *Type) Attributes() *AttributeTable {
	return t.attributes
}

// MetaAnnotations returns the meta-annotation instances declared directly on
// this type, in declaration order. The returned slice is shared and must not
// be mutated.
func (t *Type) MetaAnnotations() []Instance {
	return t.metas
}

// AliasDeclarations returns the local alias declarations. Shared, read-only.
func (t *Type) AliasDeclarations() []AliasDeclaration {
	return t.aliases
}

// HasAlias reports whether this type declares attribute as an alias for
// targetType.targetAttribute
func (t *Type) HasAlias(attribute, targetType, targetAttribute string) bool {
	for _, alias := range t.aliases {
		if alias.Attribute == attribute && alias.TargetType == targetType &&
			alias.TargetAttribute == targetAttribute {
			return true
		}
	}
	return false
}

// ContainedType returns the repeated annotation type this container batches,
// or "" when this type is not a repeatable-group container.
func (t *Type) ContainedType() string {
	return t.containedType
}

// IsContainer reports whether this type is a repeatable-group container
func (t *Type) IsContainer() bool {
	return t.containedType != ""
}
