package search

import (
	"sort"

	"github.com/annokit/annokit/mapping"
	"github.com/annokit/annokit/merged"
)

// Stream is a lazy, finite sequence of merged annotation views for one
// requested type. It advances aggregate by aggregate; within an aggregate,
// matches are ordered by the query's selector preference (nearest distance by
// default), ties by declaration order, the same guarantee Get honors. Each
// call to Annotations.Stream starts a fresh, restartable sequence.
type Stream struct {
	annotations *Annotations
	typeName    string
	predicate   Predicate
	selector    Selector

	aggregateIdx int
	pending      []*merged.Annotation
	pendingIdx   int
	err          error
}

// Stream starts a lazy query for every occurrence of the named type
func (a *Annotations) Stream(typeName string, opts ...QueryOption) *Stream {
	q := newQuery(opts)
	return &Stream{
		annotations: a,
		typeName:    typeName,
		predicate:   q.predicate,
		selector:    q.selector,
	}
}

// Next returns the next merged annotation, or false when the sequence is
// exhausted or failed. A configuration error stops the stream; check Err.
func (s *Stream) Next() (*merged.Annotation, bool) {
	for {
		if s.err != nil {
			return nil, false
		}
		if s.pendingIdx < len(s.pending) {
			view := s.pending[s.pendingIdx]
			s.pendingIdx++
			return view, true
		}
		if s.aggregateIdx >= len(s.annotations.aggregates) {
			return nil, false
		}
		s.pending = s.collect(s.annotations.aggregates[s.aggregateIdx])
		s.pendingIdx = 0
		s.aggregateIdx++
	}
}

// Err returns the configuration error that stopped the stream, if any
func (s *Stream) Err() error {
	return s.err
}

// collect gathers this aggregate's matches ordered by selector preference
func (s *Stream) collect(agg aggregate) []*merged.Annotation {
	a := s.annotations
	var matches []*merged.Annotation
	for _, inst := range agg.instances {
		graph, err := mapping.ForType(a.registry, inst.Type, a.filter, a.containers)
		if err != nil {
			s.err = err
			return nil
		}
		for i := 0; i < graph.Len(); i++ {
			node := graph.Get(i)
			if node.Type().Name() != s.typeName {
				continue
			}
			view, err := merged.New(a.registry, node, inst, merged.Options{
				Filter:         a.filter,
				Containers:     a.containers,
				AggregateIndex: agg.index,
			})
			if err != nil {
				s.err = err
				return nil
			}
			if s.predicate != nil && !s.predicate(view) {
				continue
			}
			matches = append(matches, view)
		}
	}
	// A match sorts earlier when the selector would prefer it as the
	// candidate over the other as the existing pick. Nearest yields the
	// distance order; FirstDeclared never reorders.
	sort.SliceStable(matches, func(i, j int) bool {
		return s.selector.Select(matches[j], matches[i]) == matches[i]
	})
	return matches
}
