package search

import (
	"go.uber.org/zap"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
	"github.com/annokit/annokit/mapping"
	"github.com/annokit/annokit/merged"
)

// Annotations is the aggregate index over one declaration: the expanded,
// validated annotation instances of every scanned hierarchy level, ready for
// presence and lookup queries. Instances are created fresh per search and
// are cheap; all heavy state lives in the shared mapping graph cache.
type Annotations struct {
	registry   *annotation.Registry
	filter     mapping.Filter
	containers annotation.Containers
	scanner    Scanner
	logger     *zap.Logger
	aggregates []aggregate
}

// aggregate is one hierarchy level: the instances directly present there, in
// declaration order, with repeatable containers already expanded and
// unreadable instances already discarded.
type aggregate struct {
	index     int
	instances []annotation.Instance
}

// Option configures a search
type Option func(*Annotations)

// WithFilter excludes annotation type namespaces from meta-annotation
// traversal
func WithFilter(filter mapping.Filter) Option {
	return func(a *Annotations) { a.filter = filter }
}

// WithContainers sets the repeatable-container unwrapping policy
func WithContainers(containers annotation.Containers) Option {
	return func(a *Annotations) { a.containers = containers }
}

// WithLogger sets the logger used to report discarded instances
func WithLogger(logger *zap.Logger) Option {
	return func(a *Annotations) { a.logger = logger }
}

// WithScanner replaces the default parent-chain declaration scanner
func WithScanner(scanner Scanner) Option {
	return func(a *Annotations) { a.scanner = scanner }
}

// From scans the declaration with the given strategy and builds the
// aggregate index over everything it finds.
func From(reg *annotation.Registry, decl *Declaration, strategy Strategy, opts ...Option) *Annotations {
	a := &Annotations{
		registry:   reg,
		filter:     mapping.FilterNone,
		containers: annotation.StandardContainers(),
		scanner:    DefaultScanner(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	declName := ""
	if decl != nil {
		declName = decl.Name
	}
	for levelIndex, level := range a.scanner.Scan(decl, strategy) {
		a.aggregates = append(a.aggregates, aggregate{
			index:     levelIndex,
			instances: a.expand(declName, level),
		})
	}
	return a
}

// expand unwraps repeatable containers in declaration order and discards
// instances whose may-fail attributes cannot be read. Discards are logged,
// never propagated: one corrupt instance must not abort the scan.
func (a *Annotations) expand(declName string, level []annotation.Instance) []annotation.Instance {
	out := make([]annotation.Instance, 0, len(level))
	for _, inst := range level {
		if unwrapped, ok := a.containers.Unwrap(a.registry, inst); ok {
			out = append(out, a.expand(declName, unwrapped)...)
			continue
		}
		t := a.registry.TypeOf(inst.Type)
		if t == nil {
			a.logger.Debug("skipping unregistered annotation type",
				zap.String("declaration", declName),
				zap.String("annotation", inst.Type))
			continue
		}
		if err := t.Attributes().Validate(inst); err != nil {
			a.logger.Warn("discarding unreadable annotation instance",
				zap.String("declaration", declName),
				zap.String("annotation", inst.Type),
				zap.Error(err))
			continue
		}
		out = append(out, inst)
	}
	return out
}

// IsPresent reports whether the annotation type is present or meta-present
// anywhere in the scanned hierarchy. Mapping construction failures count as
// not present; Get surfaces them.
func (a *Annotations) IsPresent(typeName string) bool {
	for _, agg := range a.aggregates {
		for _, inst := range agg.instances {
			graph, err := mapping.ForType(a.registry, inst.Type, a.filter, a.containers)
			if err != nil {
				a.logFailure(inst.Type, err)
				continue
			}
			if graph.Contains(typeName) {
				return true
			}
		}
	}
	return false
}

// IsDirectlyPresent reports whether an instance of the exact annotation type
// is directly present on some scanned level, ignoring meta-annotations
func (a *Annotations) IsDirectlyPresent(typeName string) bool {
	for _, agg := range a.aggregates {
		for _, inst := range agg.instances {
			if inst.Type == typeName {
				return true
			}
		}
	}
	return false
}

// Get returns the merged annotation view for the named type, or (nil, nil)
// when it is not present. The default selector prefers the match nearest the
// root, ties resolved by aggregate order and then declaration order.
// Configuration errors encountered while building mappings or resolving
// mirrors propagate immediately.
func (a *Annotations) Get(typeName string, opts ...QueryOption) (*merged.Annotation, error) {
	q := newQuery(opts)
	var best *merged.Annotation
	for _, agg := range a.aggregates {
		for _, inst := range agg.instances {
			graph, err := mapping.ForType(a.registry, inst.Type, a.filter, a.containers)
			if err != nil {
				return nil, err
			}
			for i := 0; i < graph.Len(); i++ {
				node := graph.Get(i)
				if node.Type().Name() != typeName {
					continue
				}
				view, err := merged.New(a.registry, node, inst, merged.Options{
					Filter:         a.filter,
					Containers:     a.containers,
					AggregateIndex: agg.index,
				})
				if err != nil {
					return nil, err
				}
				if q.predicate != nil && !q.predicate(view) {
					continue
				}
				if best == nil {
					best = view
				} else {
					best = q.selector.Select(best, view)
				}
				if q.selector.IsBest(best) {
					return best, nil
				}
			}
		}
	}
	return best, nil
}

func (a *Annotations) logFailure(typeName string, err error) {
	if errors.IsConfig(err) {
		a.logger.Warn("annotation mapping is broken",
			zap.String("annotation", typeName),
			zap.Error(err))
		return
	}
	a.logger.Debug("annotation mapping unavailable",
		zap.String("annotation", typeName),
		zap.Error(err))
}
