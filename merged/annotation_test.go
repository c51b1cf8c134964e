package merged

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/errors"
	"github.com/annokit/annokit/mapping"
)

// viewFor binds values as an instance of rootType and returns the merged
// view of the node mapping viewType within rootType's graph.
func viewFor(t *testing.T, reg *annotation.Registry, rootType, viewType string, values map[string]any) *Annotation {
	t.Helper()
	view, err := tryViewFor(reg, rootType, viewType, values)
	require.NoError(t, err)
	return view
}

func tryViewFor(reg *annotation.Registry, rootType, viewType string, values map[string]any) (*Annotation, error) {
	graph, err := mapping.ForType(reg, rootType, mapping.FilterNone, nil)
	if err != nil {
		return nil, err
	}
	node := graph.First(viewType)
	if node == nil {
		return nil, stderrors.New("type not mapped: " + viewType)
	}
	return New(reg, node, annotation.NewInstance(rootType, values), Options{})
}

func stereotypeRegistry(t *testing.T) *annotation.Registry {
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

// TestAnnotation_AliasPropagation walks the canonical stereotype example:
// a declaration carrying Cached(key="users") answers Component queries with
// "users" because Cached.key aliases Component.value.
func TestAnnotation_AliasPropagation(t *testing.T) {
	reg := stereotypeRegistry(t)
	values := map[string]any{"key": "users"}

	cached := viewFor(t, reg, "Cached", "Cached", values)
	assert.Equal(t, 0, cached.Distance())
	assert.Equal(t, "Cached", cached.TypeName())

	key, err := cached.Value("key")
	require.NoError(t, err)
	assert.Equal(t, "users", key)

	ttl, err := cached.Value("ttl")
	require.NoError(t, err)
	assert.Equal(t, 0, ttl, "unset attribute resolves to its default")

	hasDefault, err := cached.HasDefaultValue("ttl")
	require.NoError(t, err)
	assert.True(t, hasDefault)

	hasDefault, err = cached.HasDefaultValue("key")
	require.NoError(t, err)
	assert.False(t, hasDefault)

	component := viewFor(t, reg, "Cached", "Component", values)
	assert.Equal(t, 1, component.Distance())

	value, err := component.Value("value")
	require.NoError(t, err)
	assert.Equal(t, "users", value, "the aliased root value reaches the meta-annotation")
}

func TestAnnotation_AliasDefaultWhenUnset(t *testing.T) {
	reg := stereotypeRegistry(t)
	component := viewFor(t, reg, "Cached", "Component", map[string]any{})

	value, err := component.Value("value")
	require.NoError(t, err)
	assert.Equal(t, "", value, "an unset alias source resolves to the root default")
}

func TestAnnotation_MirrorPairSymmetry(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name: "Route",
		Attributes: []annotation.AttributeSpec{
			{Name: "path", Type: annotation.TypeString, Default: ""},
			{Name: "value", Type: annotation.TypeString, Default: ""},
		},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "path", TargetType: "Route", TargetAttribute: "value"},
			{Attribute: "value", TargetType: "Route", TargetAttribute: "path"},
		},
	})

	// Setting either member makes both resolve to the same value.
	byPath := viewFor(t, reg, "Route", "Route", map[string]any{"path": "/users"})
	for _, name := range []string{"path", "value"} {
		got, err := byPath.Value(name)
		require.NoError(t, err)
		assert.Equal(t, "/users", got, "attribute %s", name)
	}

	byValue := viewFor(t, reg, "Route", "Route", map[string]any{"value": "/posts"})
	for _, name := range []string{"path", "value"} {
		got, err := byValue.Value(name)
		require.NoError(t, err)
		assert.Equal(t, "/posts", got, "attribute %s", name)
	}
}

func TestAnnotation_MirrorConflictSurfacesAtViewConstruction(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name: "Route",
		Attributes: []annotation.AttributeSpec{
			{Name: "path", Type: annotation.TypeString, Default: ""},
			{Name: "value", Type: annotation.TypeString, Default: ""},
		},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "path", TargetType: "Route", TargetAttribute: "value"},
			{Attribute: "value", TargetType: "Route", TargetAttribute: "path"},
		},
	})

	// The graph itself is fine; the conflict lives in this instance's values.
	_, err := mapping.ForType(reg, "Route", mapping.FilterNone, nil)
	require.NoError(t, err)

	_, err = tryViewFor(reg, "Route", "Route", map[string]any{"path": "/users", "value": "/posts"})
	require.Error(t, err)
	cfg := errors.AsConfig(err)
	require.NotNil(t, cfg)
	assert.Equal(t, errors.ErrMirrorValueConflict, cfg.Code)
}

func conventionChainRegistry(t *testing.T) *annotation.Registry {
	t.Helper()
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
	return reg
}

// TestAnnotation_CloserDeclarationWins pins the distance rule for
// same-named attributes: with the root silent, the declaration nearest the
// root provides the effective value at every level below it.
func TestAnnotation_CloserDeclarationWins(t *testing.T) {
	reg := conventionChainRegistry(t)

	g := viewFor(t, reg, "R", "G", map[string]any{})
	name, err := g.Value("name")
	require.NoError(t, err)
	assert.Equal(t, "from-p", name, "P sits closer to the root than G")

	p := viewFor(t, reg, "R", "P", map[string]any{})
	name, err = p.Value("name")
	require.NoError(t, err)
	assert.Equal(t, "from-p", name)
}

func TestAnnotation_RootValueOverridesChain(t *testing.T) {
	reg := conventionChainRegistry(t)

	g := viewFor(t, reg, "R", "G", map[string]any{"name": "from-r"})
	name, err := g.Value("name")
	require.NoError(t, err)
	assert.Equal(t, "from-r", name, "an explicit root value beats every meta declaration")
}

func TestAnnotation_UnknownAttribute(t *testing.T) {
	reg := stereotypeRegistry(t)
	cached := viewFor(t, reg, "Cached", "Cached", map[string]any{})

	_, err := cached.Value("missing")
	require.Error(t, err)
	assert.False(t, errors.IsConfig(err))

	_, err = cached.HasDefaultValue("missing")
	require.Error(t, err)
}

func TestAnnotation_UnreadableValueWrapped(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Wired",
		Attributes: []annotation.AttributeSpec{{Name: "target", Type: annotation.TypeTypeRef}},
	})

	view := viewFor(t, reg, "Wired", "Wired", map[string]any{
		"target": annotation.ResolveFunc(func() (any, error) {
			return nil, stderrors.New("type MissingService is not available")
		}),
	})

	_, err := view.Value("target")
	require.Error(t, err)
	assert.True(t, errors.IsUnreadable(err))
}

func TestAnnotation_Root(t *testing.T) {
	reg := stereotypeRegistry(t)
	component := viewFor(t, reg, "Cached", "Component", map[string]any{"key": "users"})

	root, err := component.Root()
	require.NoError(t, err)
	assert.Equal(t, "Cached", root.TypeName())
	assert.Equal(t, 0, root.Distance())

	key, err := root.Value("key")
	require.NoError(t, err)
	assert.Equal(t, "users", key)

	same, err := root.Root()
	require.NoError(t, err)
	assert.Same(t, root, same, "the root view is its own root")
}

func TestOfInstance(t *testing.T) {
	reg := stereotypeRegistry(t)

	view, err := OfInstance(reg, annotation.NewInstance("Cached", map[string]any{"key": "users"}), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Cached", view.TypeName())
	assert.Equal(t, 0, view.Distance())

	_, err = OfInstance(reg, annotation.NewInstance("Missing", nil), Options{})
	require.Error(t, err)
	cfg := errors.AsConfig(err)
	require.NotNil(t, cfg)
	assert.Equal(t, errors.ErrTypeNotRegistered, cfg.Code)
}
