package mapping

import (
	"fmt"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
)

// Node is one annotation type's position within the mapping graph rooted at
// some root annotation type: its distance from the root, the meta-annotation
// instance bound at that position, and the per-attribute index arrays that
// drive alias, convention and mirror resolution. Nodes are immutable once
// their graph is built and are shared by reference across goroutines.
type Node struct {
	source   *Node
	root     *Node
	distance int
	typ      *annotation.Type
	instance annotation.Instance

	attributes *annotation.AttributeTable

	// aliasedBy indexes local alias declarations by target attribute
	aliasedBy map[*annotation.Attribute][]*annotation.Attribute
	claimed   map[*annotation.Attribute]bool

	// aliasMappings and conventionMappings hold, per local attribute index,
	// the equivalent attribute index on the root node, or -1.
	aliasMappings      []int
	conventionMappings []int

	// valueMappings and valueSources hold, per local attribute index, the
	// non-root override: the same-named or mirrored attribute on the node
	// between this one and the root whose value wins, or -1/nil.
	valueMappings []int
	valueSources  []*Node

	mirrors       *MirrorSets
	synthesizable bool
}

func newNode(reg *annotation.Registry, source *Node, typ *annotation.Type, instance annotation.Instance) (*Node, error) {
	n := &Node{
		source:     source,
		typ:        typ,
		instance:   instance,
		attributes: typ.Attributes(),
	}
	if source == nil {
		n.root = n
	} else {
		n.root = source.root
		n.distance = source.distance + 1
	}

	size := n.attributes.Len()
	n.aliasMappings = filledIndexes(size)
	n.conventionMappings = filledIndexes(size)
	n.valueMappings = filledIndexes(size)
	n.valueSources = make([]*Node, size)
	n.mirrors = newMirrorSets(n)
	n.aliasedBy = make(map[*annotation.Attribute][]*annotation.Attribute)
	n.claimed = make(map[*annotation.Attribute]bool)

	if err := n.resolveAliasedBy(reg); err != nil {
		return nil, err
	}
	if err := n.processAliases(); err != nil {
		return nil, err
	}
	n.addConventionMappings()
	n.addConventionValueMappings()
	return n, nil
}

func filledIndexes(size int) []int {
	indexes := make([]int, size)
	for i := range indexes {
		indexes[i] = -1
	}
	return indexes
}

// resolveAliasedBy resolves the local alias declarations into concrete
// (source, target) attribute pairs and indexes them by target. All structural
// alias invariants are enforced here; the "target actually meta-present"
// check needs the finished graph and runs in the finishing pass instead.
func (n *Node) resolveAliasedBy(reg *annotation.Registry) error {
	typeName := n.typ.Name()
	for _, decl := range n.typ.AliasDeclarations() {
		sourceAttr := n.attributes.Get(decl.Attribute)
		targetType := reg.TypeOf(decl.TargetType)
		if targetType == nil {
			return errors.NewConfigError(errors.ErrAliasTypeUnknown, typeName,
				fmt.Sprintf("attribute %q declares an alias for %s.%s, but %q is not registered",
					decl.Attribute, decl.TargetType, decl.TargetAttribute, decl.TargetType)).
				WithAttributes(decl.Attribute)
		}
		targetAttr := targetType.Attributes().Get(decl.TargetAttribute)
		if targetAttr == nil {
			return errors.NewConfigError(errors.ErrAliasTargetMissing, typeName,
				fmt.Sprintf("attribute %q declares an alias for %s.%s, which is not present",
					decl.Attribute, decl.TargetType, decl.TargetAttribute)).
				WithAttributes(decl.Attribute)
		}
		if targetAttr == sourceAttr {
			return errors.NewConfigError(errors.ErrAliasSelfReference, typeName,
				fmt.Sprintf("attribute %q is declared as an alias for itself", decl.Attribute)).
				WithAttributes(decl.Attribute)
		}
		if !sourceAttr.Type.CompatibleTarget(targetAttr.Type) {
			return errors.NewConfigError(errors.ErrAliasTypeMismatch, typeName,
				fmt.Sprintf("attribute %q (%s) and its alias target %s.%s (%s) declare incompatible types",
					decl.Attribute, sourceAttr.Type, decl.TargetType, decl.TargetAttribute, targetAttr.Type)).
				WithAttributes(decl.Attribute)
		}
		if decl.TargetType == typeName && !n.typ.HasAlias(decl.TargetAttribute, typeName, decl.Attribute) {
			return errors.NewConfigError(errors.ErrAliasPairAsymmetric, typeName,
				fmt.Sprintf("attribute %q is declared as an alias for %q, but %q does not declare the alias back",
					decl.Attribute, decl.TargetAttribute, decl.TargetAttribute)).
				WithAttributes(decl.Attribute, decl.TargetAttribute).
				WithSuggestion(fmt.Sprintf("declare %q as an alias for %q as well", decl.TargetAttribute, decl.Attribute))
		}
		n.aliasedBy[targetAttr] = append(n.aliasedBy[targetAttr], sourceAttr)
	}
	return nil
}

// processAliases computes the alias closure of every local attribute and,
// for closures of two or more attributes, distributes alias mappings, mirror
// groups and value overrides across this node's source chain.
func (n *Node) processAliases() error {
	for i := 0; i < n.attributes.Len(); i++ {
		closure := []*annotation.Attribute{n.attributes.At(i)}
		n.collectAliases(&closure)
		if len(closure) > 1 {
			if err := n.processAliasClosure(i, closure); err != nil {
				return err
			}
		}
	}
	return nil
}

// collectAliases grows the closure by unioning in, from this node and every
// node on its source chain, the attributes declared as aliases of a current
// member, until no growth occurs.
func (n *Node) collectAliases(closure *[]*annotation.Attribute) {
	for m := n; m != nil; m = m.source {
		for j := 0; j < len(*closure); j++ {
			for _, src := range m.aliasedBy[(*closure)[j]] {
				if !containsAttribute(*closure, src) {
					*closure = append(*closure, src)
				}
			}
		}
	}
}

func (n *Node) processAliasClosure(attrIndex int, closure []*annotation.Attribute) error {
	rootIdx := -1
	rootAttrs := n.root.attributes
	for i := 0; i < rootAttrs.Len(); i++ {
		if containsAttribute(closure, rootAttrs.At(i)) {
			rootIdx = i
			break
		}
	}
	for m := n; m != nil; m = m.source {
		if rootIdx != -1 && m != n.root {
			for j := 0; j < m.attributes.Len(); j++ {
				if containsAttribute(closure, m.attributes.At(j)) {
					m.aliasMappings[j] = rootIdx
				}
			}
		}
		m.mirrors.updateFrom(closure)
		for _, attr := range closure {
			m.claimed[attr] = true
		}
		if m.instance.IsPresent() {
			// A meta-annotation instance is fixed at definition time, so a
			// mirror conflict among its declared values is a construction
			// error here, unlike conflicts in caller-supplied root instances.
			resolved, err := m.mirrors.Resolve(m.instance.Source, extractorOf(m.instance))
			if err != nil {
				return err
			}
			for j := 0; j < m.attributes.Len(); j++ {
				if containsAttribute(closure, m.attributes.At(j)) {
					n.valueMappings[attrIndex] = resolved[j]
					n.valueSources[attrIndex] = m
				}
			}
		}
	}
	return nil
}

// addConventionMappings maps local attributes to same-named root attributes.
// The reserved "value" name never participates; mirror members share the
// convention target of any member that has one.
func (n *Node) addConventionMappings() {
	if n.distance == 0 {
		return
	}
	rootAttrs := n.root.attributes
	for i := 0; i < n.attributes.Len(); i++ {
		name := n.attributes.At(i).Name
		if name == annotation.ValueAttribute {
			continue
		}
		mapped := rootAttrs.IndexOf(name)
		if mapped == -1 {
			continue
		}
		n.conventionMappings[i] = mapped
		if set := n.mirrors.Assigned(i); set != nil {
			for _, idx := range set.indexes {
				n.conventionMappings[idx] = mapped
			}
		}
	}
}

// addConventionValueMappings records non-root overrides: a same-named
// attribute on a node strictly between this one and the root wins over this
// node's own value, the candidate closest to the root winning overall.
func (n *Node) addConventionValueMappings() {
	for i := 0; i < n.attributes.Len(); i++ {
		name := n.attributes.At(i).Name
		if name == annotation.ValueAttribute {
			continue
		}
		for m := n.source; m != nil && m.distance > 0; m = m.source {
			mapped := m.attributes.IndexOf(name)
			if mapped != -1 && n.isCloserValueSource(i, m) {
				n.valueMappings[i] = mapped
				n.valueSources[i] = m
			}
		}
	}
}

func (n *Node) isCloserValueSource(i int, m *Node) bool {
	if n.valueMappings[i] == -1 {
		return true
	}
	return m.distance < n.valueSources[i].distance
}

// validateAliasesClaimed checks that every locally declared alias ended up in
// some processed closure, which is only the case when the target annotation
// type is actually meta-present on this node's source chain.
func (n *Node) validateAliasesClaimed() error {
	for _, decl := range n.typ.AliasDeclarations() {
		attr := n.attributes.Get(decl.Attribute)
		if !n.claimed[attr] {
			return errors.NewConfigError(errors.ErrAliasTargetNotPresent, n.typ.Name(),
				fmt.Sprintf("attribute %q declares an alias for %s.%s, but %q is not meta-present on %q",
					decl.Attribute, decl.TargetType, decl.TargetAttribute, decl.TargetType, n.typ.Name())).
				WithAttributes(decl.Attribute).
				WithSuggestion(fmt.Sprintf("annotate %q with %q, or remove the alias", n.typ.Name(), decl.TargetType))
		}
	}
	return nil
}

func extractorOf(inst annotation.Instance) annotation.ValueExtractor {
	if inst.Extractor != nil {
		return inst.Extractor
	}
	if inst.Source == nil {
		return nil
	}
	return annotation.ExtractorFor(inst.Source)
}

// Source returns the parent node, or nil for the root node
func (n *Node) Source() *Node {
	return n.source
}

// Root returns the distance-0 node of this node's graph
func (n *Node) Root() *Node {
	return n.root
}

// Distance returns the number of meta-annotation hops from the root
func (n *Node) Distance() int {
	return n.distance
}

// Type returns the annotation type mapped at this position
func (n *Node) Type() *annotation.Type {
	return n.typ
}

// Instance returns the meta-annotation instance bound at this position.
// The root node has no bound instance until a query binds one.
func (n *Node) Instance() annotation.Instance {
	return n.instance
}

// Attributes returns the attribute table of this node's type
func (n *Node) Attributes() *annotation.AttributeTable {
	return n.attributes
}

// AliasMapping returns the root attribute index attribute i is an alias for,
// or -1
func (n *Node) AliasMapping(i int) int {
	if i < 0 || i >= len(n.aliasMappings) {
		return -1
	}
	return n.aliasMappings[i]
}

// ConventionMapping returns the root attribute index attribute i maps to by
// naming convention, or -1
func (n *Node) ConventionMapping(i int) int {
	if i < 0 || i >= len(n.conventionMappings) {
		return -1
	}
	return n.conventionMappings[i]
}

// ValueMapping returns the non-root override for attribute i: the attribute
// index and node whose value wins over this node's own, or (-1, nil)
func (n *Node) ValueMapping(i int) (int, *Node) {
	if i < 0 || i >= len(n.valueMappings) {
		return -1, nil
	}
	return n.valueMappings[i], n.valueSources[i]
}

// Mirrors returns this node's mirror sets
func (n *Node) Mirrors() *MirrorSets {
	return n.mirrors
}

// Synthesizable reports whether querying this node requires materializing a
// value object with overrides applied rather than returning raw values
func (n *Node) Synthesizable() bool {
	return n.synthesizable
}
