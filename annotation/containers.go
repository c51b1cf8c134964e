package annotation

// Containers is the policy for unwrapping repeatable-group containers: types
// whose sole purpose is to batch repeated occurrences of another annotation
// type. The policy is external and pluggable; the resolution engine only ever
// asks "does this instance batch other instances".
type Containers interface {
	// Unwrap returns the batched instances in declaration order, or
	// (nil, false) when inst is not a container occurrence.
	Unwrap(reg *Registry, inst Instance) ([]Instance, bool)

	// Key identifies the policy for cache keying
	Key() string
}

type standardContainers struct{}

type noContainers struct{}

// StandardContainers unwraps types registered with a ContainedType whose
// "value" attribute holds the batched occurrences.
func StandardContainers() Containers {
	return standardContainers{}
}

// NoContainers never unwraps; every instance is treated as a plain occurrence
func NoContainers() Containers {
	return noContainers{}
}

func (standardContainers) Key() string { return "standard" }

func (standardContainers) Unwrap(reg *Registry, inst Instance) ([]Instance, bool) {
	if !inst.IsPresent() || reg == nil {
		return nil, false
	}
	t := reg.TypeOf(inst.Type)
	if t == nil || !t.IsContainer() {
		return nil, false
	}
	attr := t.Attributes().Get(ValueAttribute)
	if attr == nil {
		return nil, false
	}
	raw, err := inst.Value(attr)
	if err != nil || raw == nil {
		return nil, false
	}
	return containedInstances(t.ContainedType(), raw), true
}

// containedInstances normalizes the container payload: instances pass
// through, raw value maps are bound to the contained type.
func containedInstances(containedType string, raw any) []Instance {
	var out []Instance
	switch batch := raw.(type) {
	case []Instance:
		out = append(out, batch...)
	case []any:
		for _, item := range batch {
			switch v := item.(type) {
			case Instance:
				out = append(out, v)
			case map[string]any:
				out = append(out, Instance{Type: containedType, Source: v, Extractor: MapExtractor})
			}
		}
	case []map[string]any:
		for _, v := range batch {
			out = append(out, Instance{Type: containedType, Source: v, Extractor: MapExtractor})
		}
	}
	return out
}

func (noContainers) Key() string { return "none" }

func (noContainers) Unwrap(*Registry, Instance) ([]Instance, bool) {
	return nil, false
}
