package mapping

import (
	"fmt"
	"reflect"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
)

// MirrorSets tracks the mirror groups of one node: groups of two or more
// local attributes that belong to the same alias closure and therefore must
// agree on a single effective value. Groups are discovered incrementally as
// alias closures are processed during graph construction and are immutable
// once the graph is built.
type MirrorSets struct {
	node     *Node
	assigned []*MirrorSet
	sets     []*MirrorSet
}

// MirrorSet is one group of mutually aliased attribute indexes within a node
type MirrorSet struct {
	node    *Node
	indexes []int
}

func newMirrorSets(node *Node) *MirrorSets {
	return &MirrorSets{
		node:     node,
		assigned: make([]*MirrorSet, node.attributes.Len()),
	}
}

// updateFrom assigns local attributes that appear in the closure to a shared
// mirror set. A set is only created when at least two local attributes are
// members of the same closure.
func (m *MirrorSets) updateFrom(closure []*annotation.Attribute) {
	var set *MirrorSet
	count := 0
	last := -1
	for i := 0; i < m.node.attributes.Len(); i++ {
		if !containsAttribute(closure, m.node.attributes.At(i)) {
			continue
		}
		count++
		if count > 1 {
			if set == nil {
				set = &MirrorSet{node: m.node}
				m.assigned[last] = set
			}
			m.assigned[i] = set
		}
		last = i
	}
	if set == nil {
		return
	}

	// Closures can merge previously distinct sets, so member indexes are
	// recomputed from the assignment array each time.
	m.sets = m.sets[:0]
	for _, s := range m.assigned {
		if s != nil {
			s.indexes = nil
		}
	}
	for i, s := range m.assigned {
		if s == nil {
			continue
		}
		if len(s.indexes) == 0 {
			m.sets = append(m.sets, s)
		}
		s.indexes = append(s.indexes, i)
	}
}

// Len returns the number of mirror sets
func (m *MirrorSets) Len() int {
	return len(m.sets)
}

// Get returns the mirror set at index i
func (m *MirrorSets) Get(i int) *MirrorSet {
	return m.sets[i]
}

// Assigned returns the mirror set the attribute at index i belongs to, or nil
func (m *MirrorSets) Assigned(i int) *MirrorSet {
	if i < 0 || i >= len(m.assigned) {
		return nil
	}
	return m.assigned[i]
}

// Resolve determines, for every attribute index, which sibling index is
// authoritative under the given value source. Attributes outside any mirror
// set map to themselves. Two mirrored attributes carrying different
// non-default values is an M003 configuration error; this is deliberately
// checked per concrete value source, not when the graph is built, because the
// same graph serves many differently-valued instances.
func (m *MirrorSets) Resolve(source any, extractor annotation.ValueExtractor) ([]int, error) {
	resolved := make([]int, m.node.attributes.Len())
	for i := range resolved {
		resolved[i] = i
	}
	for _, set := range m.sets {
		winner, err := set.resolve(source, extractor)
		if err != nil {
			return nil, err
		}
		for _, idx := range set.indexes {
			resolved[idx] = winner
		}
	}
	return resolved, nil
}

// validate enforces the construction-time invariant: every member of a
// mirror set declares a default value, and all members declare the same one.
func (m *MirrorSets) validate() error {
	for _, set := range m.sets {
		first := m.node.attributes.At(set.indexes[0])
		for _, idx := range set.indexes {
			attr := m.node.attributes.At(idx)
			if !attr.HasDefault {
				return errors.NewConfigError(errors.ErrMirrorNoDefault, m.node.typ.Name(),
					fmt.Sprintf("mirrored attribute %q must declare a default value", attr.Name)).
					WithAttributes(set.names()...)
			}
			if !reflect.DeepEqual(attr.Default, first.Default) {
				return errors.NewConfigError(errors.ErrMirrorDefaultMismatch, m.node.typ.Name(),
					fmt.Sprintf("mirrored attributes %q and %q must declare the same default value",
						first.Name, attr.Name)).
					WithAttributes(set.names()...)
			}
		}
	}
	return nil
}

// Indexes returns a copy of the member attribute indexes, in table order
func (s *MirrorSet) Indexes() []int {
	return append([]int(nil), s.indexes...)
}

func (s *MirrorSet) names() []string {
	names := make([]string, len(s.indexes))
	for i, idx := range s.indexes {
		names[i] = s.node.attributes.At(idx).Name
	}
	return names
}

// resolve picks the member index whose value is authoritative for the given
// source: the single member explicitly set to a non-default value, or the
// first member when all carry defaults. Members agreeing on the same
// non-default value are allowed; disagreeing ones are an M003 error.
func (s *MirrorSet) resolve(source any, extractor annotation.ValueExtractor) (int, error) {
	result := -1
	var lastIdx int
	var lastValue any
	for _, idx := range s.indexes {
		attr := s.node.attributes.At(idx)
		var value any
		if source != nil && extractor != nil {
			v, err := extractor(attr, source)
			if err != nil {
				return -1, err
			}
			value = v
		}
		isDefault := value == nil || (attr.HasDefault && reflect.DeepEqual(value, attr.Default))
		if isDefault || reflect.DeepEqual(lastValue, value) {
			if result == -1 {
				result = idx
			}
			continue
		}
		if lastValue != nil && !reflect.DeepEqual(lastValue, value) {
			return -1, errors.NewConfigError(errors.ErrMirrorValueConflict, s.node.typ.Name(),
				fmt.Sprintf("mirrored attributes %q and %q are declared with different values (%v and %v)",
					s.node.attributes.At(lastIdx).Name, attr.Name, lastValue, value)).
				WithAttributes(s.names()...).
				WithSuggestion("set only one attribute of the mirror group to a non-default value")
		}
		result = idx
		lastIdx = idx
		lastValue = value
	}
	return result, nil
}

func containsAttribute(attrs []*annotation.Attribute, attr *annotation.Attribute) bool {
	for _, a := range attrs {
		if a == attr {
			return true
		}
	}
	return false
}
