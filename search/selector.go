package search

import "github.com/annokit/annokit/merged"

// Predicate rejects candidate merged annotations during a query
type Predicate func(*merged.Annotation) bool

// Selector picks among multiple matching merged annotations
type Selector interface {
	// Select returns the preferred of two acceptable candidates. The
	// existing candidate was found earlier in aggregate order.
	Select(existing, candidate *merged.Annotation) *merged.Annotation

	// IsBest reports whether the candidate cannot be beaten, allowing the
	// search to stop early.
	IsBest(candidate *merged.Annotation) bool
}

type nearestSelector struct{}

// Nearest selects the candidate with the lowest distance from the root,
// keeping the earlier candidate on ties so that declaration order wins over
// inherited order. This is the default selector.
func Nearest() Selector {
	return nearestSelector{}
}

func (nearestSelector) Select(existing, candidate *merged.Annotation) *merged.Annotation {
	if candidate.Distance() < existing.Distance() {
		return candidate
	}
	return existing
}

func (nearestSelector) IsBest(candidate *merged.Annotation) bool {
	return candidate.Distance() == 0
}

type firstSelector struct{}

// FirstDeclared keeps whichever acceptable candidate was found first
func FirstDeclared() Selector {
	return firstSelector{}
}

func (firstSelector) Select(existing, _ *merged.Annotation) *merged.Annotation {
	return existing
}

func (firstSelector) IsBest(*merged.Annotation) bool {
	return true
}

// QueryOption configures a single Get or Stream call
type QueryOption func(*query)

type query struct {
	predicate Predicate
	selector  Selector
}

func newQuery(opts []QueryOption) query {
	q := query{selector: Nearest()}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// WithPredicate rejects candidates the predicate returns false for
func WithPredicate(predicate Predicate) QueryOption {
	return func(q *query) { q.predicate = predicate }
}

// WithSelector replaces the default nearest-distance selector
func WithSelector(selector Selector) QueryOption {
	return func(q *query) { q.selector = selector }
}
