package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
)

// cachedRegistry registers the canonical stereotype pair: Component with a
// single "value" attribute, and Cached meta-annotated by it with "key"
// declared as an explicit alias for Component.value.
func cachedRegistry(t *testing.T) *annotation.Registry {
	t.Helper()
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Component",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.TypeString, Default: ""}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name: "Cached",
		Attributes: []annotation.AttributeSpec{
			{Name: "key", Type: annotation.TypeString, Default: ""},
			{Name: "ttl", Type: annotation.TypeInt, Default: 0},
		},
		Metas: []annotation.InstanceSpec{{Type: "Component"}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "key", TargetType: "Component", TargetAttribute: "value"},
		},
	})
	return reg
}

func TestNode_ExplicitAliasMapping(t *testing.T) {
	reg := cachedRegistry(t)

	graph, err := ForType(reg, "Cached", FilterNone, nil)
	require.NoError(t, err)
	require.Equal(t, 2, graph.Len())

	root := graph.Root()
	component := graph.First("Component")
	require.NotNil(t, component)

	keyIdx := root.Attributes().IndexOf("key")
	valueIdx := component.Attributes().IndexOf("value")
	require.NotEqual(t, -1, keyIdx)
	require.NotEqual(t, -1, valueIdx)

	// Component.value resolves through the root's "key".
	assert.Equal(t, keyIdx, component.AliasMapping(valueIdx))
	assert.Equal(t, -1, root.AliasMapping(keyIdx), "root attributes never redirect to themselves")

	// "value" is reserved, so no convention mapping forms either.
	assert.Equal(t, -1, component.ConventionMapping(valueIdx))

	assert.True(t, root.Synthesizable(), "a node with local alias declarations needs synthesis")
	assert.True(t, component.Synthesizable(), "a node with alias mappings needs synthesis")
}

func TestNode_TransitiveAliasMapping(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Component",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.TypeString, Default: ""}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Service",
		Attributes: []annotation.AttributeSpec{{Name: "name", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "Component"}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "name", TargetType: "Component", TargetAttribute: "value"},
		},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "RestService",
		Attributes: []annotation.AttributeSpec{{Name: "id", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "Service"}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "id", TargetType: "Service", TargetAttribute: "name"},
		},
	})

	graph, err := ForType(reg, "RestService", FilterNone, nil)
	require.NoError(t, err)
	require.Equal(t, 3, graph.Len())

	idIdx := graph.Root().Attributes().IndexOf("id")
	service := graph.First("Service")
	component := graph.First("Component")

	// The alias chain id -> name -> value collapses onto the root attribute.
	assert.Equal(t, idIdx, service.AliasMapping(service.Attributes().IndexOf("name")))
	assert.Equal(t, idIdx, component.AliasMapping(component.Attributes().IndexOf("value")))
}

func TestNode_ConventionMappings(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name: "Meta",
		Attributes: []annotation.AttributeSpec{
			{Name: "name", Type: annotation.TypeString, Default: ""},
			{Name: "extra", Type: annotation.TypeString, Default: ""},
			{Name: "value", Type: annotation.TypeString, Default: ""},
		},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name: "R",
		Attributes: []annotation.AttributeSpec{
			{Name: "name", Type: annotation.TypeString, Default: ""},
			{Name: "value", Type: annotation.TypeString, Default: ""},
		},
		Metas: []annotation.InstanceSpec{{Type: "Meta"}},
	})

	graph, err := ForType(reg, "R", FilterNone, nil)
	require.NoError(t, err)

	meta := graph.First("Meta")
	require.NotNil(t, meta)

	// Same-named attributes map by convention; the reserved "value" name and
	// attributes missing from the root do not.
	assert.Equal(t, graph.Root().Attributes().IndexOf("name"),
		meta.ConventionMapping(meta.Attributes().IndexOf("name")))
	assert.Equal(t, -1, meta.ConventionMapping(meta.Attributes().IndexOf("value")))
	assert.Equal(t, -1, meta.ConventionMapping(meta.Attributes().IndexOf("extra")))
}

func TestNode_ConventionValueMappingPrefersCloserNode(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "G",
		Attributes: []annotation.AttributeSpec{{Name: "name", Type: annotation.TypeString, Default: "g-default"}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "P",
		Attributes: []annotation.AttributeSpec{{Name: "name", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "G", Values: map[string]any{"name": "from-g"}}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "R",
		Attributes: []annotation.AttributeSpec{{Name: "name", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "P", Values: map[string]any{"name": "from-p"}}},
	})

	graph, err := ForType(reg, "R", FilterNone, nil)
	require.NoError(t, err)
	require.Equal(t, 3, graph.Len())

	g := graph.First("G")
	require.NotNil(t, g)

	// G's "name" is overridden by P, the declaration closest to the root.
	idx, src := g.ValueMapping(g.Attributes().IndexOf("name"))
	require.NotNil(t, src)
	assert.Equal(t, "P", src.Type().Name())
	assert.Equal(t, src.Attributes().IndexOf("name"), idx)

	p := graph.First("P")
	idx, src = p.ValueMapping(p.Attributes().IndexOf("name"))
	assert.Equal(t, -1, idx, "no node lies strictly between P and the root")
	assert.Nil(t, src)
}

func TestNode_AliasTargetTypeUnregistered(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Broken",
		Attributes: []annotation.AttributeSpec{{Name: "key", Type: annotation.TypeString, Default: ""}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "key", TargetType: "Ghost", TargetAttribute: "value"},
		},
	})

	_, err := ForType(reg, "Broken", FilterNone, nil)
	requireConfigCode(t, err, errors.ErrAliasTypeUnknown)
}

func TestNode_AliasTargetAttributeMissing(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Component",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.TypeString, Default: ""}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Broken",
		Attributes: []annotation.AttributeSpec{{Name: "key", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "Component"}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "key", TargetType: "Component", TargetAttribute: "missing"},
		},
	})

	_, err := ForType(reg, "Broken", FilterNone, nil)
	requireConfigCode(t, err, errors.ErrAliasTargetMissing)
}

func TestNode_AliasTypeMismatch(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Component",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.TypeInt, Default: 0}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Broken",
		Attributes: []annotation.AttributeSpec{{Name: "key", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "Component"}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "key", TargetType: "Component", TargetAttribute: "value"},
		},
	})

	_, err := ForType(reg, "Broken", FilterNone, nil)
	requireConfigCode(t, err, errors.ErrAliasTypeMismatch)
}

func TestNode_AliasPairAsymmetric(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name: "Broken",
		Attributes: []annotation.AttributeSpec{
			{Name: "path", Type: annotation.TypeString, Default: ""},
			{Name: "value", Type: annotation.TypeString, Default: ""},
		},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "path", TargetType: "Broken", TargetAttribute: "value"},
		},
	})

	_, err := ForType(reg, "Broken", FilterNone, nil)
	requireConfigCode(t, err, errors.ErrAliasPairAsymmetric)
}

func TestNode_AliasTargetNotMetaPresent(t *testing.T) {
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

	_, err := ForType(reg, "Detached", FilterNone, nil)
	requireConfigCode(t, err, errors.ErrAliasTargetNotPresent)
}

func TestNode_ScalarAliasesArrayTarget(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Routes",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.ArrayOf(annotation.TypeString)}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "GetRoute",
		Attributes: []annotation.AttributeSpec{{Name: "path", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "Routes"}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "path", TargetType: "Routes", TargetAttribute: "value"},
		},
	})

	_, err := ForType(reg, "GetRoute", FilterNone, nil)
	assert.NoError(t, err, "a scalar may alias the array form of its type")
}

func requireConfigCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	cfg := errors.AsConfig(err)
	require.NotNil(t, cfg, "expected a configuration error, got %v", err)
	assert.Equal(t, code, cfg.Code)
}
