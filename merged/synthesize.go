package merged

import (
	"github.com/annokit/annokit/annotation"
)

// Synthesize materializes a concrete value object reflecting all resolved
// overrides: every attribute resolved through the alias, convention and
// mirror rules, with nested synthesizable annotations materialized
// recursively. Attributes that resolve to nothing (unset, no default) are
// omitted. For a non-synthesizable node the result equals the raw declared
// values plus defaults.
func (a *Annotation) Synthesize() (map[string]any, error) {
	attrs := a.node.Attributes()
	out := make(map[string]any, attrs.Len())
	for i := 0; i < attrs.Len(); i++ {
		attr := attrs.At(i)
		value, err := a.valueAt(i)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		if attr.Nested() {
			value, err = a.synthesizeNested(attr, value)
			if err != nil {
				return nil, err
			}
		}
		out[attr.Name] = value
	}
	return out, nil
}

// synthesizeNested materializes nested annotation values when their own type
// is synthesizable; plain nested values pass through untouched.
func (a *Annotation) synthesizeNested(attr *annotation.Attribute, value any) (any, error) {
	switch v := value.(type) {
	case annotation.Instance:
		return a.synthesizeOne(v)
	case map[string]any:
		return a.synthesizeOne(annotation.Instance{
			Type:      attr.Type.Annotation,
			Source:    v,
			Extractor: annotation.MapExtractor,
		})
	case []annotation.Instance:
		out := make([]any, 0, len(v))
		for _, inst := range v {
			s, err := a.synthesizeOne(inst)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			s, err := a.synthesizeNested(attr, item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return value, nil
}

func (a *Annotation) synthesizeOne(inst annotation.Instance) (any, error) {
	if a.registry.TypeOf(inst.Type) == nil {
		return inst, nil
	}
	nested, err := OfInstance(a.registry, inst, Options{
		Filter:     a.opts.Filter,
		Containers: a.opts.Containers,
	})
	if err != nil {
		return nil, err
	}
	if !nested.Synthesizable() {
		return inst, nil
	}
	return nested.Synthesize()
}
