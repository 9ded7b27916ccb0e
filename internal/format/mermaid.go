package format

import (
	"fmt"
	"strings"

	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
)

// targetStyle is the css class attached to the focused class
const targetStyle = ":::targetClassDiagram"

// Mermaid renders mermaid-js classDiagram text. Mermaid cannot nest
// namespaces so their children are emitted at the top level.
type Mermaid struct {
	opts Options
}

func (m *Mermaid) Dialect() Dialect { return DialectMermaid }

func (m *Mermaid) Header() []string { return []string{"classDiagram"} }

func (m *Mermaid) Footer() []string { return nil }

func (m *Mermaid) Serialize(node model.Node) (string, error) {
	return serialize(m, node)
}

func (m *Mermaid) Relationship(edge relation.Edge, mode relation.Mode) string {
	if mode == relation.ModeComposition {
		return fmt.Sprintf("%s *-- %s", edge.From, edge.To)
	}
	return fmt.Sprintf("%s ..> %q %s", edge.From, edge.Cardinality, edge.To)
}

// Finish re-indents the document by brace depth
func (m *Mermaid) Finish(text string) string {
	lines := strings.Split(text, EOL)
	depth := 0
	for i, l := range lines {
		line := strings.Repeat(indentUnit, depth) + strings.TrimSpace(l)
		switch {
		case strings.HasSuffix(line, "{"):
			depth++
		case strings.HasSuffix(line, "}"):
			if depth > 0 {
				depth--
			}
			line = strings.TrimPrefix(line, indentUnit)
		}
		lines[i] = line
	}
	return strings.Join(lines, EOL)
}

func (m *Mermaid) serializeFile(f *model.File) (string, error) {
	parts, err := serializeParts(m, f.Parts)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, EOL), nil
}

func (m *Mermaid) serializeNamespace(ns *model.Namespace) (string, error) {
	parts, err := serializeParts(m, ns.Parts)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, EOL), nil
}

func (m *Mermaid) serializeClass(c *model.Class) (string, error) {
	var result []string
	if c.Extends != nil {
		result = append(result, c.Extends.Name+" <|-- "+c.Name)
	}
	if !m.opts.HideImplements {
		for _, name := range c.ImplementsNames() {
			result = append(result, name+" <|.. "+c.Name)
		}
	}

	header := "class " + c.Name + m.generics(c.TypeParameters)
	if c.Name == m.opts.TargetClass {
		header += targetStyle
	}
	body, err := m.block(header, c.Members)
	if err != nil {
		return "", err
	}
	result = append(result, body)

	if c.IsAbstract {
		result = append(result, "<<abstract>> "+c.Name)
	}
	return strings.Join(result, EOL), nil
}

func (m *Mermaid) serializeInterface(i *model.Interface) (string, error) {
	var result []string
	for _, name := range i.ExtendsNames() {
		result = append(result, name+" <|.. "+i.Name)
	}

	body, err := m.block("class "+i.Name+m.generics(i.TypeParameters), i.Members)
	if err != nil {
		return "", err
	}
	result = append(result, body, "<<Interface>> "+i.Name)
	return strings.Join(result, EOL), nil
}

func (m *Mermaid) block(header string, members []model.Member) (string, error) {
	if len(members) == 0 {
		return header, nil
	}
	body, err := serializeMembers(m, members)
	if err != nil {
		return "", err
	}
	result := append([]string{header + " {"}, body...)
	result = append(result, "}")
	return strings.Join(result, EOL), nil
}

func (m *Mermaid) generics(params []*model.TypeParameter) string {
	if len(params) == 0 {
		return ""
	}
	return "~" + typeParameterList(m, params) + "~"
}

func (m *Mermaid) serializeEnum(e *model.Enum) string {
	var result []string
	if len(e.Values) == 0 {
		result = append(result, "class "+e.Name)
	} else {
		result = append(result, "class "+e.Name+" {")
		for _, v := range e.Values {
			if v == nil {
				continue
			}
			result = append(result, m.serializeEnumValue(v))
		}
		result = append(result, "}")
	}
	result = append(result, "<<enumeration>> "+e.Name)
	return strings.Join(result, EOL)
}

func (m *Mermaid) serializeEnumValue(v *model.EnumValue) string {
	return v.Name
}

func (m *Mermaid) serializeMethod(meth *model.Method) string {
	return visibility(meth.Modifier) + meth.Name + "(" + parameterList(m, meth.Parameters) + ")" +
		glyphs(meth.IsAbstract, meth.IsStatic) + ": " + cleanType(meth.ReturnType.Text)
}

func (m *Mermaid) serializeProperty(p *model.Property) string {
	optional := ""
	if p.IsOptional {
		optional = "?"
	}
	return visibility(p.Modifier) + p.Name + optional +
		glyphs(p.IsAbstract, p.IsStatic) + ": " + cleanType(p.ReturnType.Text)
}

func (m *Mermaid) serializeParameter(p *model.Parameter) string {
	result := p.Name + optionalMark(p)
	if p.Type.Text != "" {
		result += ": " + cleanType(p.Type.Text)
	}
	return result
}

// serializeTypeParameter renders only the name: mermaid generics carry no constraints
func (m *Mermaid) serializeTypeParameter(tp *model.TypeParameter) string {
	return tp.Name
}

func glyphs(abstract, static bool) string {
	var s string
	if abstract {
		s += "*"
	}
	if static {
		s += "$"
	}
	return s
}

// cleanType replaces inline object types, whose braces would break the
// surrounding class block
func cleanType(text string) string {
	if strings.Contains(text, "{") {
		return "Inline"
	}
	return text
}
