// Package defs loads declarative annotation definitions from JSON documents:
// annotation types with their attributes, aliases and meta-annotations, plus
// the annotated declarations to query. The CLI and the inspection server are
// both fed from this format.
package defs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/search"
)

// Document is the top-level definitions file.
type Document struct {
	Types        []TypeDef        `json:"types"`
	Declarations []DeclarationDef `json:"declarations,omitempty"`
}

// TypeDef declares one annotation type.
type TypeDef struct {
	Name          string                        `json:"name"`
	Attributes    []AttributeDef                `json:"attributes,omitempty"`
	Aliases       []annotation.AliasDeclaration `json:"aliases,omitempty"`
	Metas         []InstanceDef                 `json:"metas,omitempty"`
	ContainedType string                        `json:"contained_type,omitempty"`
}

// AttributeDef declares one attribute. Type uses the compact string form:
// "string", "int", "bool", "float", "typeref", "enum", "annotation:Name",
// each optionally prefixed with "[]" for the array form.
type AttributeDef struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

// InstanceDef is one annotation occurrence: a type name plus raw values.
type InstanceDef struct {
	Type   string         `json:"type"`
	Values map[string]any `json:"values,omitempty"`
}

// DeclarationDef is one annotated element. Parent names the next hierarchy
// level, which must also appear in the document.
type DeclarationDef struct {
	Name        string        `json:"name"`
	Annotations []InstanceDef `json:"annotations,omitempty"`
	Parent      string        `json:"parent,omitempty"`
}

// Load parses a definitions document.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}
	return &doc, nil
}

// LoadFile parses the definitions document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions file: %w", err)
	}
	defer f.Close()
	doc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Apply registers every type of the document. Definition errors carry the
// offending type's name; types already registered are left untouched.
func (d *Document) Apply(reg *annotation.Registry) error {
	for _, td := range d.Types {
		spec, err := d.spec(td)
		if err != nil {
			return err
		}
		if _, err := reg.Define(spec); err != nil {
			return err
		}
	}
	return nil
}

// Registry builds a fresh registry holding the document's types.
func (d *Document) Registry() (*annotation.Registry, error) {
	reg := annotation.NewRegistry()
	if err := d.Apply(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Declaration resolves the named declaration with its parent chain wired, or
// nil when the document does not declare it. A parent cycle truncates at the
// repeated name.
func (d *Document) Declaration(name string) *search.Declaration {
	byName := make(map[string]DeclarationDef, len(d.Declarations))
	for _, dd := range d.Declarations {
		byName[dd.Name] = dd
	}
	seen := make(map[string]bool)

	var build func(name string) *search.Declaration
	build = func(name string) *search.Declaration {
		dd, ok := byName[name]
		if !ok || seen[name] {
			return nil
		}
		seen[name] = true
		decl := &search.Declaration{Name: dd.Name}
		for _, inst := range dd.Annotations {
			decl.Annotations = append(decl.Annotations, d.instanceOf(inst))
		}
		if dd.Parent != "" {
			decl.Parent = build(dd.Parent)
		}
		return decl
	}
	return build(name)
}

// DeclarationNames lists the declared element names in document order.
func (d *Document) DeclarationNames() []string {
	names := make([]string, 0, len(d.Declarations))
	for _, dd := range d.Declarations {
		names = append(names, dd.Name)
	}
	return names
}

func (d *Document) spec(td TypeDef) (annotation.TypeSpec, error) {
	spec := annotation.TypeSpec{
		Name:          td.Name,
		Aliases:       td.Aliases,
		ContainedType: td.ContainedType,
	}
	for _, ad := range td.Attributes {
		vt, err := parseValueType(ad.Type)
		if err != nil {
			return annotation.TypeSpec{}, fmt.Errorf("type %s, attribute %s: %w", td.Name, ad.Name, err)
		}
		spec.Attributes = append(spec.Attributes, annotation.AttributeSpec{
			Name:    ad.Name,
			Type:    vt,
			Default: normalizeValue(vt, ad.Default),
		})
	}
	for _, meta := range td.Metas {
		spec.Metas = append(spec.Metas, annotation.InstanceSpec{
			Type:   meta.Type,
			Values: d.normalizeValues(meta.Type, meta.Values),
		})
	}
	return spec, nil
}

func (d *Document) instanceOf(def InstanceDef) annotation.Instance {
	return annotation.NewInstance(def.Type, d.normalizeValues(def.Type, def.Values))
}

// normalizeValues applies the number normalization to every instance value
// whose attribute the document declares. Mirror resolution compares values
// against declared defaults, so a value explicitly set to an int default must
// decode to the same int, not a float64.
func (d *Document) normalizeValues(typeName string, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for name, value := range values {
		if vt, ok := d.attrType(typeName, name); ok {
			value = normalizeValue(vt, value)
		}
		out[name] = value
	}
	return out
}

// attrType finds the declared value type of one attribute in the document
func (d *Document) attrType(typeName, attrName string) (annotation.ValueType, bool) {
	for _, td := range d.Types {
		if td.Name != typeName {
			continue
		}
		for _, ad := range td.Attributes {
			if ad.Name != attrName {
				continue
			}
			vt, err := parseValueType(ad.Type)
			if err != nil {
				return annotation.ValueType{}, false
			}
			return vt, true
		}
	}
	return annotation.ValueType{}, false
}

func parseValueType(s string) (annotation.ValueType, error) {
	if s == "" {
		return annotation.TypeString, nil
	}
	var vt annotation.ValueType
	if strings.HasPrefix(s, "[]") {
		vt.Array = true
		s = s[2:]
	}
	if name, ok := strings.CutPrefix(s, "annotation:"); ok {
		if name == "" {
			return vt, fmt.Errorf("annotation type reference with empty name")
		}
		vt.Kind = annotation.KindAnnotation
		vt.Annotation = name
		return vt, nil
	}
	if s != annotation.ParseKind(s).String() {
		return vt, fmt.Errorf("unknown value type %q", s)
	}
	vt.Kind = annotation.ParseKind(s)
	return vt, nil
}

// normalizeValue undoes the one lossy JSON decoding step: numbers arrive as
// float64, but int-kinded attributes declare and compare int values.
func normalizeValue(vt annotation.ValueType, value any) any {
	if vt.Kind != annotation.KindInt || vt.Array {
		return value
	}
	if f, ok := value.(float64); ok && f == float64(int(f)) {
		return int(f)
	}
	return value
}
