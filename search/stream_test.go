package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
	"github.com/annokit/annokit/merged"
)

func collectValues(t *testing.T, stream *Stream, attr string) []string {
	t.Helper()
	var out []string
	for {
		view, ok := stream.Next()
		if !ok {
			break
		}
		value, err := view.Value(attr)
		require.NoError(t, err)
		out = append(out, value.(string))
	}
	return out
}

func TestStream_DistanceOrderWithinAggregate(t *testing.T) {
	reg := stereotypeRegistry(t)
	decl := &Declaration{
		Name: "Impl",
		Annotations: []annotation.Instance{
			// Declared first but only meta-present: the direct occurrence
			// still streams ahead of it within the same aggregate.
			annotation.NewInstance("Service", map[string]any{"name": "via-meta"}),
			annotation.NewInstance("Component", map[string]any{"value": "direct"}),
		},
	}

	anns := From(reg, decl, StrategyDirect)
	values := collectValues(t, anns.Stream("Component"), "value")
	assert.Equal(t, []string{"direct", "via-meta"}, values)
}

func TestStream_SelectorOrdersMatches(t *testing.T) {
	reg := stereotypeRegistry(t)
	decl := &Declaration{
		Name: "Impl",
		Annotations: []annotation.Instance{
			annotation.NewInstance("Service", map[string]any{"name": "via-meta"}),
			annotation.NewInstance("Component", map[string]any{"value": "direct"}),
		},
	}

	anns := From(reg, decl, StrategyDirect)

	// FirstDeclared keeps declaration order, overriding the default
	// nearest-distance ordering the previous test pins down.
	stream := anns.Stream("Component", WithSelector(FirstDeclared()))
	values := collectValues(t, stream, "value")
	assert.Equal(t, []string{"via-meta", "direct"}, values)
}

func TestStream_AggregatesBeforeDistance(t *testing.T) {
	reg := stereotypeRegistry(t)
	parent := &Declaration{
		Name:        "Base",
		Annotations: []annotation.Instance{annotation.NewInstance("Component", map[string]any{"value": "parent-direct"})},
	}
	child := &Declaration{
		Name:        "Impl",
		Annotations: []annotation.Instance{annotation.NewInstance("Service", map[string]any{"name": "child-meta"})},
		Parent:      parent,
	}

	anns := From(reg, child, StrategyHierarchy)

	// The child aggregate streams first even though its only match sits
	// farther from the root than the parent's.
	values := collectValues(t, anns.Stream("Component"), "value")
	assert.Equal(t, []string{"child-meta", "parent-direct"}, values)
}

func TestStream_Restartable(t *testing.T) {
	reg := stereotypeRegistry(t)
	decl := &Declaration{
		Name:        "Impl",
		Annotations: []annotation.Instance{annotation.NewInstance("Service", map[string]any{"name": "users"})},
	}

	anns := From(reg, decl, StrategyDirect)

	first := collectValues(t, anns.Stream("Component"), "value")
	second := collectValues(t, anns.Stream("Component"), "value")
	assert.Equal(t, first, second, "each Stream call starts a fresh sequence")
	assert.Equal(t, []string{"users"}, first)
}

func TestStream_Predicate(t *testing.T) {
	reg := stereotypeRegistry(t)
	decl := &Declaration{
		Name: "Impl",
		Annotations: []annotation.Instance{
			annotation.NewInstance("Service", map[string]any{"name": "keep"}),
			annotation.NewInstance("Service", map[string]any{"name": "drop"}),
		},
	}

	anns := From(reg, decl, StrategyDirect)
	stream := anns.Stream("Service", WithPredicate(func(view *merged.Annotation) bool {
		name, err := view.Value("name")
		return err == nil && name == "keep"
	}))

	values := collectValues(t, stream, "name")
	assert.Equal(t, []string{"keep"}, values)
}

func TestStream_ConfigErrorStops(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Component",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.TypeString, Default: ""}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Detached",
		Attributes: []annotation.AttributeSpec{{Name: "key", Type: annotation.TypeString, Default: ""}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "key", TargetType: "Component", TargetAttribute: "value"},
		},
	})

	decl := &Declaration{
		Name:        "Impl",
		Annotations: []annotation.Instance{annotation.NewInstance("Detached", map[string]any{})},
	}

	stream := From(reg, decl, StrategyDirect).Stream("Detached")

	view, ok := stream.Next()
	assert.Nil(t, view)
	assert.False(t, ok)

	err := stream.Err()
	require.Error(t, err)
	cfg := errors.AsConfig(err)
	require.NotNil(t, cfg)
	assert.Equal(t, errors.ErrAliasTargetNotPresent, cfg.Code)
}

func TestStream_Empty(t *testing.T) {
	reg := stereotypeRegistry(t)
	anns := From(reg, &Declaration{Name: "Bare"}, StrategyDirect)

	stream := anns.Stream("Component")
	view, ok := stream.Next()
	assert.Nil(t, view)
	assert.False(t, ok)
	assert.NoError(t, stream.Err())
}
