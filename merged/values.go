package merged

import "fmt"

// String resolves the named attribute as a string. Absent resolves to ""
func (a *Annotation) String(name string) (string, error) {
	value, err := a.Value(name)
	if err != nil || value == nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("annotation %s: attribute %q holds %T, not string", a.TypeName(), name, value)
	}
	return s, nil
}

// Bool resolves the named attribute as a bool. Absent resolves to false
func (a *Annotation) Bool(name string) (bool, error) {
	value, err := a.Value(name)
	if err != nil || value == nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("annotation %s: attribute %q holds %T, not bool", a.TypeName(), name, value)
	}
	return b, nil
}

// Int resolves the named attribute as an int. Absent resolves to 0.
// JSON-sourced numbers arrive as float64 and are accepted when integral.
func (a *Annotation) Int(name string) (int, error) {
	value, err := a.Value(name)
	if err != nil || value == nil {
		return 0, err
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("annotation %s: attribute %q holds %T, not int", a.TypeName(), name, value)
}

// Float resolves the named attribute as a float64. Absent resolves to 0
func (a *Annotation) Float(name string) (float64, error) {
	value, err := a.Value(name)
	if err != nil || value == nil {
		return 0, err
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("annotation %s: attribute %q holds %T, not float", a.TypeName(), name, value)
}

// Strings resolves the named attribute as a string slice. A scalar string
// resolves to a one-element slice, matching alias compatibility where the
// target may be the array form of the source.
func (a *Annotation) Strings(name string) ([]string, error) {
	value, err := a.Value(name)
	if err != nil || value == nil {
		return nil, err
	}
	switch v := value.(type) {
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("annotation %s: attribute %q holds non-string element %T", a.TypeName(), name, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("annotation %s: attribute %q holds %T, not []string", a.TypeName(), name, value)
}
