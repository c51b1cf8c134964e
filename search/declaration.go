// Package search scans annotated declarations level by level, groups the
// annotation instances it finds into ordered aggregates, and exposes
// presence, lookup and streaming queries over every resolvable merged
// annotation.
package search

import "github.com/annokit/annokit/annotation"

// Strategy determines which hierarchy levels of a declaration are scanned
type Strategy int

const (
	// StrategyDirect scans the declaration itself only
	StrategyDirect Strategy = iota

	// StrategyHierarchy scans the declaration and every enclosing level
	// reachable through its parent chain, in nearest-first order
	StrategyHierarchy
)

// Declaration is an annotated element: a method, type, field or any other
// program construct carrying annotation instances. Parent points at the next
// hierarchy level (an overridden member, a superclass, an enclosing scope).
type Declaration struct {
	Name        string
	Annotations []annotation.Instance
	Parent      *Declaration
}

// Scanner produces, level by level, the annotation instances directly
// present on a declaration. The default scanner walks the parent chain;
// callers with richer declaration models plug in their own.
type Scanner interface {
	Scan(decl *Declaration, strategy Strategy) [][]annotation.Instance
}

type hierarchyScanner struct{}

// DefaultScanner returns the parent-chain scanner
func DefaultScanner() Scanner {
	return hierarchyScanner{}
}

func (hierarchyScanner) Scan(decl *Declaration, strategy Strategy) [][]annotation.Instance {
	if decl == nil {
		return nil
	}
	if strategy == StrategyDirect {
		return [][]annotation.Instance{decl.Annotations}
	}
	var levels [][]annotation.Instance
	for d := decl; d != nil; d = d.Parent {
		levels = append(levels, d.Annotations)
	}
	return levels
}
