package format

import (
	"fmt"
	"strings"

	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
)

// PlantUML renders class diagrams between @startuml and @enduml markers
type PlantUML struct {
	opts Options
}

func (p *PlantUML) Dialect() Dialect { return DialectPlantUML }

func (p *PlantUML) Header() []string { return []string{"@startuml"} }

func (p *PlantUML) Footer() []string { return []string{"@enduml"} }

func (p *PlantUML) Serialize(node model.Node) (string, error) {
	return serialize(p, node)
}

func (p *PlantUML) Relationship(edge relation.Edge, mode relation.Mode) string {
	if mode == relation.ModeComposition {
		return fmt.Sprintf("%s *-- %s", edge.From, edge.To)
	}
	return fmt.Sprintf("%s --> %q %s", edge.From, edge.Cardinality, edge.To)
}

func (p *PlantUML) Finish(text string) string { return text }

func (p *PlantUML) serializeFile(f *model.File) (string, error) {
	parts, err := serializeParts(p, f.Parts)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, EOL), nil
}

func (p *PlantUML) serializeNamespace(ns *model.Namespace) (string, error) {
	if len(ns.Parts) == 0 {
		return "namespace " + ns.Name, nil
	}
	parts, err := serializeParts(p, ns.Parts)
	if err != nil {
		return "", err
	}

	result := []string{"namespace " + ns.Name + " {"}
	for _, part := range parts {
		result = append(result, indent(part))
	}
	result = append(result, "}")
	return strings.Join(result, EOL), nil
}

func (p *PlantUML) serializeClass(c *model.Class) (string, error) {
	var header strings.Builder
	if c.IsAbstract {
		header.WriteString("abstract ")
	}
	header.WriteString("class " + c.Name)
	if len(c.TypeParameters) > 0 {
		header.WriteString("<" + typeParameterList(p, c.TypeParameters) + ">")
	}
	if c.Extends != nil {
		header.WriteString(" extends " + c.Extends.Name)
	}
	if !p.opts.HideImplements && len(c.Implements) > 0 {
		header.WriteString(" implements " + strings.Join(c.ImplementsNames(), ", "))
	}
	return p.block(header.String(), c.Members)
}

func (p *PlantUML) serializeInterface(i *model.Interface) (string, error) {
	var header strings.Builder
	header.WriteString("interface " + i.Name)
	if len(i.TypeParameters) > 0 {
		header.WriteString("<" + typeParameterList(p, i.TypeParameters) + ">")
	}
	if len(i.Extends) > 0 {
		header.WriteString(" extends " + strings.Join(i.ExtendsNames(), ", "))
	}
	return p.block(header.String(), i.Members)
}

// block renders a declaration line followed by an indented member body.
// Declarations without members are emitted without braces.
func (p *PlantUML) block(header string, members []model.Member) (string, error) {
	if len(members) == 0 {
		return header, nil
	}
	body, err := serializeMembers(p, members)
	if err != nil {
		return "", err
	}

	result := make([]string, 0, len(body)+2)
	result = append(result, header+" {")
	for _, line := range body {
		result = append(result, indentUnit+line)
	}
	result = append(result, "}")
	return strings.Join(result, EOL), nil
}

func (p *PlantUML) serializeEnum(e *model.Enum) string {
	if len(e.Values) == 0 {
		return "enum " + e.Name
	}
	result := []string{"enum " + e.Name + " {"}
	for _, v := range e.Values {
		if v == nil {
			continue
		}
		result = append(result, indentUnit+p.serializeEnumValue(v))
	}
	result = append(result, "}")
	return strings.Join(result, EOL)
}

func (p *PlantUML) serializeEnumValue(v *model.EnumValue) string {
	return v.Name
}

func (p *PlantUML) serializeMethod(m *model.Method) string {
	return visibility(m.Modifier) + decorations(m.IsAbstract, m.IsStatic) +
		m.Name + "(" + parameterList(p, m.Parameters) + "): " + m.ReturnType.Text
}

func (p *PlantUML) serializeProperty(prop *model.Property) string {
	optional := ""
	if prop.IsOptional {
		optional = "?"
	}
	return visibility(prop.Modifier) + decorations(prop.IsAbstract, prop.IsStatic) +
		prop.Name + optional + ": " + prop.ReturnType.Text
}

func (p *PlantUML) serializeParameter(param *model.Parameter) string {
	return param.Name + optionalMark(param) + ": " + param.Type.Text
}

func (p *PlantUML) serializeTypeParameter(tp *model.TypeParameter) string {
	if tp.Constraint != nil {
		return tp.Name + " extends " + tp.Constraint.Text
	}
	return tp.Name
}

func decorations(abstract, static bool) string {
	var s string
	if abstract {
		s += "{abstract} "
	}
	if static {
		s += "{static} "
	}
	return s
}
