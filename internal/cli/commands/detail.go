package commands

import (
	"github.com/annokit/annokit/annotation"
)

type attributeDetail struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

type typeDetail struct {
	Name          string                        `json:"name"`
	Attributes    []attributeDetail             `json:"attributes"`
	Aliases       []annotation.AliasDeclaration `json:"aliases,omitempty"`
	Metas         []string                      `json:"metas,omitempty"`
	ContainedType string                        `json:"contained_type,omitempty"`
}

func typeDetailOf(t *annotation.Type) typeDetail {
	detail := typeDetail{
		Name:          t.Name(),
		Aliases:       t.AliasDeclarations(),
		ContainedType: t.ContainedType(),
	}
	attrs := t.Attributes()
	for i := 0; i < attrs.Len(); i++ {
		attr := attrs.At(i)
		detail.Attributes = append(detail.Attributes, attributeDetail{
			Name:    attr.Name,
			Type:    attr.Type.String(),
			Default: attr.Default,
		})
	}
	for _, meta := range t.MetaAnnotations() {
		detail.Metas = append(detail.Metas, meta.Type)
	}
	return detail
}
