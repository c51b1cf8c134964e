package annotation

import (
	"fmt"
	"sort"

	"github.com/annokit/annokit/errors"
)

// ValueAttribute is the reserved "primary value" attribute name. It is
// excluded from convention mapping and from non-root value overrides.
const ValueAttribute = "value"

// Attribute describes a single attribute of an annotation type.
type Attribute struct {
	Name       string
	Type       ValueType
	HasDefault bool
	Default    any
}

// MayFail reports whether reading this attribute can legitimately fail
func (a *Attribute) MayFail() bool {
	return a.Type.MayFail()
}

// Nested reports whether this attribute holds nested annotation instances
func (a *Attribute) Nested() bool {
	return a.Type.Nested()
}

// AttributeTable is the name-sorted, index-addressable list of attributes
// declared by one annotation type. It is immutable after construction and is
// built exactly once per Type, so attribute indexes are stable for the
// process lifetime and safe to share across goroutines.
type AttributeTable struct {
	attributes []Attribute
	hasDefault bool
	canFail    bool
	hasNested  bool
}

// newAttributeTable validates, sorts and indexes the attribute list.
func newAttributeTable(typeName string, attrs []Attribute) (*AttributeTable, error) {
	sorted := append([]Attribute(nil), attrs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	table := &AttributeTable{attributes: sorted}
	for i := range sorted {
		attr := &sorted[i]
		if attr.Name == "" {
			return nil, errors.NewConfigError(errors.ErrBadAttribute, typeName,
				"attribute with empty name")
		}
		if i > 0 && sorted[i-1].Name == attr.Name {
			return nil, errors.NewConfigError(errors.ErrBadAttribute, typeName,
				fmt.Sprintf("duplicate attribute %q", attr.Name)).WithAttributes(attr.Name)
		}
		if attr.HasDefault && attr.Default == nil {
			return nil, errors.NewConfigError(errors.ErrBadAttribute, typeName,
				fmt.Sprintf("attribute %q declares a nil default value", attr.Name)).WithAttributes(attr.Name)
		}
		table.hasDefault = table.hasDefault || attr.HasDefault
		table.canFail = table.canFail || attr.MayFail()
		table.hasNested = table.hasNested || attr.Nested()
	}
	return table, nil
}

// Len returns the number of attributes
func (t *AttributeTable) Len() int {
	return len(t.attributes)
}

// At returns the attribute at index i. The returned pointer is stable and
// identifies the attribute for the process lifetime.
func (t *AttributeTable) At(i int) *Attribute {
	return &t.attributes[i]
}

// IndexOf returns the index of the named attribute, or -1
func (t *AttributeTable) IndexOf(name string) int {
	lo, hi := 0, len(t.attributes)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.attributes[mid].Name < name {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(t.attributes) && t.attributes[lo].Name == name {
		return lo
	}
	return -1
}

// Get returns the named attribute, or nil
func (t *AttributeTable) Get(name string) *Attribute {
	if i := t.IndexOf(name); i != -1 {
		return &t.attributes[i]
	}
	return nil
}

// HasNested reports whether any attribute holds nested annotations
func (t *AttributeTable) HasNested() bool {
	return t.hasNested
}

// CanFail reports whether any attribute is flagged may-fail-to-resolve
func (t *AttributeTable) CanFail() bool {
	return t.canFail
}

// Validate attempts to read every may-fail attribute from the instance and
// returns the first read failure as an UnreadableError, or nil when the
// instance is fully readable.
func (t *AttributeTable) Validate(inst Instance) error {
	if !t.canFail {
		return nil
	}
	for i := range t.attributes {
		attr := &t.attributes[i]
		if !attr.MayFail() {
			continue
		}
		if _, err := inst.Value(attr); err != nil {
			return errors.NewUnreadableError(inst.Type, attr.Name, err)
		}
	}
	return nil
}

// IsValid reports whether every may-fail attribute of the instance can be
// read. Scanning layers use this to discard unreadable instances without
// aborting the scan.
func (t *AttributeTable) IsValid(inst Instance) bool {
	return t.Validate(inst) == nil
}
