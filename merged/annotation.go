// Package merged computes effective annotation attribute values: given a
// mapping node and a concrete annotation instance at the root, it answers
// queries through the alias, convention and mirror rules of the node's graph,
// so that values declared closer to the root always win over remote
// meta-annotation declarations.
package merged

import (
	"fmt"
	"reflect"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
	"github.com/annokit/annokit/mapping"
)

// Options configures view construction
type Options struct {
	// Filter and Containers must match the policies the mapping graph was
	// (or will be) built under.
	Filter     mapping.Filter
	Containers annotation.Containers

	// AggregateIndex records which hierarchy level the root instance was
	// found at. Informational; zero for direct queries.
	AggregateIndex int
}

// Annotation is a live view over one mapping node bound to a concrete root
// instance. It is cheap to construct, holds no mutable state beyond its
// references, and is safe to share.
type Annotation struct {
	registry *annotation.Registry
	node     *mapping.Node
	rootInst annotation.Instance
	opts     Options

	// Mirror winners are resolved eagerly per concrete source, so a mirror
	// conflict in caller-supplied values surfaces when the view is created.
	resolvedRootMirrors []int
	resolvedMirrors     []int
}

// New creates a view of node bound to the given root instance. Returns an
// M003 configuration error when the instance sets two mirrored attributes to
// different non-default values.
func New(reg *annotation.Registry, node *mapping.Node, root annotation.Instance, opts Options) (*Annotation, error) {
	rootMirrors, err := node.Root().Mirrors().Resolve(root.Source, instanceExtractor(root))
	if err != nil {
		return nil, err
	}
	mirrors := rootMirrors
	if node.Distance() != 0 {
		inst := node.Instance()
		mirrors, err = node.Mirrors().Resolve(inst.Source, instanceExtractor(inst))
		if err != nil {
			return nil, err
		}
	}
	return &Annotation{
		registry:            reg,
		node:                node,
		rootInst:            root,
		opts:                opts,
		resolvedRootMirrors: rootMirrors,
		resolvedMirrors:     mirrors,
	}, nil
}

// OfInstance builds (or fetches) the mapping graph for the instance's type
// and returns the view of its root node.
func OfInstance(reg *annotation.Registry, inst annotation.Instance, opts Options) (*Annotation, error) {
	graph, err := mapping.ForType(reg, inst.Type, opts.Filter, opts.Containers)
	if err != nil {
		return nil, err
	}
	return New(reg, graph.Root(), inst, opts)
}

// TypeName returns the annotation type this view answers queries for
func (a *Annotation) TypeName() string {
	return a.node.Type().Name()
}

// Distance returns the view's distance from the root annotation
func (a *Annotation) Distance() int {
	return a.node.Distance()
}

// AggregateIndex returns the hierarchy level the root instance was found at
func (a *Annotation) AggregateIndex() int {
	return a.opts.AggregateIndex
}

// Synthesizable reports whether Synthesize must materialize merged values
func (a *Annotation) Synthesizable() bool {
	return a.node.Synthesizable()
}

// Root returns the view of this view's root annotation
func (a *Annotation) Root() (*Annotation, error) {
	if a.node.Distance() == 0 {
		return a, nil
	}
	return New(a.registry, a.node.Root(), a.rootInst, a.opts)
}

// Value resolves the effective value of the named attribute. An attribute
// that was never set resolves to its declared default; (nil, nil) is returned
// only when the attribute has no default. Unknown attribute names are an
// error.
func (a *Annotation) Value(name string) (any, error) {
	idx := a.node.Attributes().IndexOf(name)
	if idx == -1 {
		return nil, fmt.Errorf("annotation %s has no attribute %q", a.TypeName(), name)
	}
	value, err := a.valueAt(idx)
	if err != nil && !errors.IsConfig(err) && !errors.IsUnreadable(err) {
		err = errors.NewUnreadableError(a.TypeName(), name, err)
	}
	return value, err
}

// HasDefaultValue reports whether the named attribute resolves to its
// declared default (or was never set at all)
func (a *Annotation) HasDefaultValue(name string) (bool, error) {
	idx := a.node.Attributes().IndexOf(name)
	if idx == -1 {
		return false, fmt.Errorf("annotation %s has no attribute %q", a.TypeName(), name)
	}
	value, err := a.valueAt(idx)
	if err != nil {
		return false, err
	}
	if value == nil {
		return true, nil
	}
	attr := a.node.Attributes().At(idx)
	return attr.HasDefault && reflect.DeepEqual(value, attr.Default), nil
}

// valueAt implements the resolution policy: explicit alias mappings redirect
// to the root, convention mappings redirect to the root only when the root
// attribute was explicitly set, then the mirror winner substitutes its
// sibling index; root reads come from the bound instance with default
// fallback, non-root reads consult the node's own meta-instance. The net
// effect is that declarations closer to the root always win.
func (a *Annotation) valueAt(idx int) (any, error) {
	node := a.node
	if mapped := node.AliasMapping(idx); mapped != -1 {
		return a.rootValue(mapped, true)
	}
	if mapped := node.ConventionMapping(idx); mapped != -1 {
		value, err := a.rootValue(mapped, false)
		if err != nil || value != nil {
			return value, err
		}
		// Unset on the root: fall through to the meta-annotation chain.
	}
	if node.Distance() == 0 {
		return a.rootValue(idx, true)
	}
	idx = a.resolvedMirrors[idx]
	if idx == -1 {
		return nil, nil
	}
	return valueFromMeta(node, idx)
}

// rootValue extracts an attribute from the bound root instance, substituting
// the mirror winner first. withDefault adds the declared-default fallback.
func (a *Annotation) rootValue(idx int, withDefault bool) (any, error) {
	idx = a.resolvedRootMirrors[idx]
	if idx == -1 {
		return nil, nil
	}
	attr := a.node.Root().Attributes().At(idx)
	value, err := a.rootInst.Value(attr)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}
	if withDefault && attr.HasDefault {
		return attr.Default, nil
	}
	return nil, nil
}

// valueFromMeta resolves a non-root attribute: an override recorded on a node
// nearer the root wins, otherwise the node's own bound meta-instance answers,
// falling back to the declared default.
func valueFromMeta(node *mapping.Node, idx int) (any, error) {
	if mappedIdx, src := node.ValueMapping(idx); mappedIdx != -1 && src != nil {
		attr := src.Attributes().At(mappedIdx)
		value, err := src.Instance().Value(attr)
		if err != nil {
			return nil, err
		}
		if value != nil {
			return value, nil
		}
		if attr.HasDefault {
			return attr.Default, nil
		}
	}
	attr := node.Attributes().At(idx)
	value, err := node.Instance().Value(attr)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}
	if attr.HasDefault {
		return attr.Default, nil
	}
	return nil, nil
}

func instanceExtractor(inst annotation.Instance) annotation.ValueExtractor {
	if inst.Extractor != nil {
		return inst.Extractor
	}
	if inst.Source == nil {
		return nil
	}
	return annotation.ExtractorFor(inst.Source)
}
