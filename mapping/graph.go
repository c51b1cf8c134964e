package mapping

import (
	"github.com/annokit/annokit/annotation"
)

// Graph is the ordered set of mapping nodes for one root annotation type,
// produced by a breadth-first walk of its meta-annotation hierarchy. Nodes
// appear in traversal order, so the first node matching a type is always the
// one nearest the root. Graphs are immutable after construction and cached
// for the process lifetime.
type Graph struct {
	rootType   *annotation.Type
	filter     Filter
	containers annotation.Containers
	nodes      []*Node
}

// RootType returns the annotation type this graph was built for
func (g *Graph) RootType() *annotation.Type {
	return g.rootType
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Get returns the node at position i in traversal order
func (g *Graph) Get(i int) *Node {
	return g.nodes[i]
}

// Root returns the distance-0 node
func (g *Graph) Root() *Node {
	return g.nodes[0]
}

// Nodes returns a copy of the ordered node list
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// First returns the node nearest the root whose type has the given name,
// or nil
func (g *Graph) First(typeName string) *Node {
	for _, node := range g.nodes {
		if node.typ.Name() == typeName {
			return node
		}
	}
	return nil
}

// Contains reports whether any node maps the named type
func (g *Graph) Contains(typeName string) bool {
	return g.First(typeName) != nil
}

// build runs the breadth-first construction for rootType. The visiting set
// tracks root types currently under construction so the nested-annotation
// synthesizable recursion terminates on cyclic attribute types.
func build(reg *annotation.Registry, rootType *annotation.Type, filter Filter,
	containers annotation.Containers, visiting map[string]bool) (*Graph, error) {

	g := &Graph{rootType: rootType, filter: filter, containers: containers}
	visiting[rootType.Name()] = true
	defer delete(visiting, rootType.Name())

	rootNode, err := newNode(reg, nil, rootType, annotation.Instance{})
	if err != nil {
		return nil, err
	}
	queue := []*Node{rootNode}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		g.nodes = append(g.nodes, node)
		if err := g.addMetaAnnotations(reg, &queue, node, node.typ.MetaAnnotations()); err != nil {
			return nil, err
		}
	}

	// Finishing pass: both checks need the complete node set, because alias
	// claims and mirror membership are distributed by descendants.
	for _, node := range g.nodes {
		if err := node.validateAliasesClaimed(); err != nil {
			return nil, err
		}
		if err := node.mirrors.validate(); err != nil {
			return nil, err
		}
	}

	for _, node := range g.nodes {
		node.synthesizable = computeSynthesizable(reg, node, filter, containers, visiting)
	}
	return g, nil
}

func (g *Graph) addMetaAnnotations(reg *annotation.Registry, queue *[]*Node, parent *Node,
	metas []annotation.Instance) error {

	for _, meta := range metas {
		if unwrapped, ok := g.containers.Unwrap(reg, meta); ok {
			if err := g.addMetaAnnotations(reg, queue, parent, unwrapped); err != nil {
				return err
			}
			continue
		}
		if !g.mappable(parent, meta) {
			continue
		}
		metaType := reg.TypeOf(meta.Type)
		if metaType == nil {
			// Unregistered meta-annotation types are skipped, not fatal:
			// they behave like types excluded by the caller's filter.
			continue
		}
		node, err := newNode(reg, parent, metaType, meta)
		if err != nil {
			return err
		}
		*queue = append(*queue, node)
	}
	return nil
}

// mappable applies the namespace filter and the cycle guard: a meta-annotation
// whose type already occurs on the path back to the root is not expanded again.
func (g *Graph) mappable(parent *Node, meta annotation.Instance) bool {
	if g.filter.Matches(meta.Type) {
		return false
	}
	for m := parent; m != nil; m = m.source {
		if m.typ.Name() == meta.Type {
			return false
		}
	}
	return true
}

// computeSynthesizable implements the synthesizability rule: a node needs
// synthesis when any of its attributes resolves somewhere else (alias or
// convention mapping), when it declares local aliases, or when a nested
// annotation attribute's own type is itself synthesizable.
func computeSynthesizable(reg *annotation.Registry, node *Node, filter Filter,
	containers annotation.Containers, visiting map[string]bool) bool {

	if len(node.aliasedBy) > 0 {
		return true
	}
	for i := 0; i < node.attributes.Len(); i++ {
		if node.aliasMappings[i] != -1 || node.conventionMappings[i] != -1 {
			return true
		}
	}
	if !node.attributes.HasNested() {
		return false
	}
	for i := 0; i < node.attributes.Len(); i++ {
		attr := node.attributes.At(i)
		if !attr.Nested() || attr.Type.Annotation == "" {
			continue
		}
		if synthesizableType(reg, attr.Type.Annotation, filter, containers, visiting) {
			return true
		}
	}
	return false
}

// synthesizableType reports whether the named annotation type's own root
// mapping is synthesizable. Types whose graphs are currently being built are
// reported as not synthesizable to terminate cyclic attribute types; every
// other nested graph goes through the shared cache, so a type referenced by
// many nodes is built at most once.
func synthesizableType(reg *annotation.Registry, typeName string, filter Filter,
	containers annotation.Containers, visiting map[string]bool) bool {

	if visiting[typeName] {
		return false
	}
	if reg.TypeOf(typeName) == nil {
		return false
	}
	nested, err := forType(reg, typeName, filter, containers, visiting)
	if err != nil {
		return false
	}
	return nested.Root().synthesizable
}
