// Package tsparse provides Tree-sitter based extraction of the class model
// from TypeScript sources.
//
// Only declared types are available: there is no type checker, so members
// without an annotation get the type "any".
package tsparse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/zheng/cuml/internal/model"
)

// untyped is used when a member carries no type annotation
const untyped = "any"

// Parser wraps the Tree-sitter parsers for .ts and .tsx files.
// A Parser must not be used from several goroutines at once.
type Parser struct {
	tsParser  *sitter.Parser
	tsxParser *sitter.Parser
}

// NewParser creates a new parser with support for TypeScript and TSX
func NewParser() *Parser {
	tsParser := sitter.NewParser()
	tsParser.SetLanguage(typescript.GetLanguage())

	tsxParser := sitter.NewParser()
	tsxParser.SetLanguage(tsx.GetLanguage())

	return &Parser{
		tsParser:  tsParser,
		tsxParser: tsxParser,
	}
}

// ParseFile parses one source file into a model file named name
func (p *Parser) ParseFile(ctx context.Context, name string, content []byte) (*model.File, error) {
	parser := p.tsParser
	if strings.HasSuffix(name, ".tsx") {
		parser = p.tsxParser
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s failed: %w", name, err)
	}
	defer tree.Close()

	x := &extractor{file: name, content: content}
	return &model.File{Name: name, Parts: x.statements(tree.RootNode())}, nil
}

// extractor walks one syntax tree
type extractor struct {
	file    string
	content []byte
}

func (x *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(x.content)
}

func (x *extractor) origin(n *sitter.Node) string {
	return fmt.Sprintf("%s:%d", x.file, n.StartPoint().Row+1)
}

// statements extracts the declarations found among the children of a
// program or namespace body
func (x *extractor) statements(node *sitter.Node) []model.Part {
	var parts []model.Part
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if part := x.declaration(node.NamedChild(i)); part != nil {
			parts = append(parts, part)
		}
	}
	return parts
}

func (x *extractor) declaration(n *sitter.Node) model.Part {
	switch n.Type() {
	case "export_statement", "ambient_declaration", "expression_statement":
		// export class ..., declare class ..., namespace N { } statements
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if part := x.declaration(n.NamedChild(i)); part != nil {
				return part
			}
		}
	case "class_declaration", "abstract_class_declaration", "class":
		return x.class(n)
	case "interface_declaration":
		return x.iface(n)
	case "enum_declaration":
		return x.enum(n)
	case "internal_module", "module":
		return x.namespace(n)
	}
	return nil
}

func (x *extractor) namespace(n *sitter.Node) model.Part {
	name := strings.Trim(x.text(n.ChildByFieldName("name")), `"'`)
	if name == "" {
		return nil
	}
	ns := &model.Namespace{Name: name}
	if body := n.ChildByFieldName("body"); body != nil {
		ns.Parts = x.statements(body)
	}
	return ns
}

func (x *extractor) class(n *sitter.Node) model.Part {
	name := x.text(n.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	c := &model.Class{
		Name:           name,
		IsAbstract:     n.Type() == "abstract_class_declaration",
		TypeParameters: x.typeParameters(n.ChildByFieldName("type_parameters")),
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "class_heritage" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			clause := child.NamedChild(j)
			switch clause.Type() {
			case "extends_clause":
				if ref := x.extendsRef(clause); ref != nil {
					c.Extends = ref
				}
			case "implements_clause":
				c.Implements = append(c.Implements, x.typeRefs(clause)...)
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return c
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			m := x.method(member)
			if m == nil {
				continue
			}
			if m.Name == "constructor" {
				m.ReturnType = model.TypeRef{Text: c.Name, Origin: m.ReturnType.Origin}
				c.Constructors = append(c.Constructors, m)
				if member.Type() == "method_definition" {
					c.Members = append(c.Members, x.parameterProperties(member)...)
				}
				continue
			}
			// every overload signature is a member of its own
			c.Members = append(c.Members, m)
		case "public_field_definition", "field_definition", "property_signature":
			if p := x.property(member); p != nil {
				c.Members = append(c.Members, p)
			}
		}
	}
	return c
}

func (x *extractor) iface(n *sitter.Node) model.Part {
	name := x.text(n.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	i := &model.Interface{
		Name:           name,
		TypeParameters: x.typeParameters(n.ChildByFieldName("type_parameters")),
	}

	for j := 0; j < int(n.NamedChildCount()); j++ {
		child := n.NamedChild(j)
		if child.Type() == "extends_type_clause" {
			i.Extends = append(i.Extends, x.typeRefs(child)...)
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return i
	}
	for j := 0; j < int(body.NamedChildCount()); j++ {
		member := body.NamedChild(j)
		switch member.Type() {
		case "method_signature":
			if m := x.method(member); m != nil {
				i.Members = append(i.Members, m)
			}
		case "property_signature":
			if p := x.property(member); p != nil {
				i.Members = append(i.Members, p)
			}
		}
	}
	return i
}

func (x *extractor) enum(n *sitter.Node) model.Part {
	name := x.text(n.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	e := &model.Enum{Name: name}
	body := n.ChildByFieldName("body")
	if body == nil {
		return e
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "enum_assignment":
			value := member.ChildByFieldName("value")
			if value == nil && member.NamedChildCount() > 1 {
				value = member.NamedChild(1)
			}
			e.Values = append(e.Values, &model.EnumValue{
				Name:     unquote(x.text(member.NamedChild(0))),
				Value:    x.text(value),
				HasValue: true,
			})
		case "property_identifier", "string":
			e.Values = append(e.Values, &model.EnumValue{Name: unquote(x.text(member))})
		}
	}
	return e
}

func (x *extractor) method(n *sitter.Node) *model.Method {
	nameNode := n.ChildByFieldName("name")
	name := x.text(nameNode)
	if name == "" {
		return nil
	}
	m := &model.Method{
		Name:           name,
		Modifier:       x.modifier(n, nameNode),
		IsAbstract:     n.Type() == "abstract_method_signature" || hasToken(n, "abstract"),
		IsStatic:       hasToken(n, "static"),
		IsOptional:     hasToken(n, "?"),
		IsAsync:        hasToken(n, "async"),
		TypeParameters: x.typeParameters(n.ChildByFieldName("type_parameters")),
		ReturnType:     x.annotation(n.ChildByFieldName("return_type"), n),
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		m.Parameters = x.parameters(params)
	}
	return m
}

func (x *extractor) property(n *sitter.Node) *model.Property {
	nameNode := n.ChildByFieldName("name")
	name := x.text(nameNode)
	if name == "" {
		return nil
	}
	return &model.Property{
		Name:       name,
		Modifier:   x.modifier(n, nameNode),
		IsAbstract: hasToken(n, "abstract"),
		IsStatic:   hasToken(n, "static"),
		IsOptional: hasToken(n, "?"),
		IsReadonly: hasToken(n, "readonly"),
		ReturnType: x.annotation(n.ChildByFieldName("type"), n),
	}
}

func (x *extractor) parameters(n *sitter.Node) []*model.Parameter {
	var params []*model.Parameter
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		if p.Type() != "required_parameter" && p.Type() != "optional_parameter" {
			continue
		}
		pattern := p.ChildByFieldName("pattern")
		name := x.text(pattern)
		if pattern != nil && pattern.Type() == "rest_pattern" {
			name = strings.TrimPrefix(name, "...")
		}
		if name == "this" {
			continue
		}
		params = append(params, &model.Parameter{
			Name:           name,
			Type:           x.annotation(p.ChildByFieldName("type"), p),
			IsOptional:     p.Type() == "optional_parameter",
			HasInitializer: p.ChildByFieldName("value") != nil,
		})
	}
	return params
}

// parameterProperties returns the properties declared by constructor
// parameters carrying an accessibility or readonly modifier
func (x *extractor) parameterProperties(ctor *sitter.Node) []model.Member {
	params := ctor.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var props []model.Member
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "required_parameter" && p.Type() != "optional_parameter" {
			continue
		}
		readonly := hasToken(p, "readonly")
		if !readonly && !hasChild(p, "accessibility_modifier") {
			continue
		}
		pattern := p.ChildByFieldName("pattern")
		if pattern == nil || pattern.Type() != "identifier" {
			continue
		}
		props = append(props, &model.Property{
			Name:       x.text(pattern),
			Modifier:   x.modifier(p, pattern),
			IsOptional: p.Type() == "optional_parameter",
			IsReadonly: readonly,
			ReturnType: x.annotation(p.ChildByFieldName("type"), p),
		})
	}
	return props
}

func (x *extractor) typeParameters(n *sitter.Node) []*model.TypeParameter {
	if n == nil {
		return nil
	}
	var params []*model.TypeParameter
	for i := 0; i < int(n.NamedChildCount()); i++ {
		tp := n.NamedChild(i)
		if tp.Type() != "type_parameter" {
			continue
		}
		param := &model.TypeParameter{Name: x.text(tp.ChildByFieldName("name"))}
		if constraint := tp.ChildByFieldName("constraint"); constraint != nil && constraint.NamedChildCount() > 0 {
			param.Constraint = &model.TypeRef{Text: x.text(constraint.NamedChild(0)), Origin: x.origin(constraint)}
		}
		params = append(params, param)
	}
	return params
}

// annotation returns the type written after the colon of a type annotation
func (x *extractor) annotation(n *sitter.Node, owner *sitter.Node) model.TypeRef {
	if n == nil || n.NamedChildCount() == 0 {
		return model.TypeRef{Text: untyped, Origin: x.origin(owner)}
	}
	t := n.NamedChild(0)
	return model.TypeRef{Text: x.text(t), Origin: x.origin(t)}
}

// extendsRef reads the base class of an extends clause. Qualified names
// keep only the last segment since references resolve by simple name.
func (x *extractor) extendsRef(clause *sitter.Node) *model.Ref {
	value := clause.ChildByFieldName("value")
	if value == nil && clause.NamedChildCount() > 0 {
		value = clause.NamedChild(0)
	}
	if value == nil {
		return nil
	}
	name := x.text(value)
	if value.Type() == "member_expression" {
		name = x.text(value.ChildByFieldName("property"))
	}
	return &model.Ref{Name: name, Origin: x.origin(value)}
}

// typeRefs reads the type list of an implements or extends clause
func (x *extractor) typeRefs(clause *sitter.Node) []model.Ref {
	var refs []model.Ref
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		t := clause.NamedChild(i)
		var name string
		switch t.Type() {
		case "generic_type":
			name = x.typeName(t.ChildByFieldName("name"))
		default:
			name = x.typeName(t)
		}
		if name != "" {
			refs = append(refs, model.Ref{Name: name, Origin: x.origin(t)})
		}
	}
	return refs
}

func (x *extractor) typeName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == "nested_type_identifier" {
		return x.text(n.ChildByFieldName("name"))
	}
	return x.text(n)
}

func (x *extractor) modifier(n, name *sitter.Node) model.Modifier {
	if name != nil && name.Type() == "private_property_identifier" {
		return model.ModifierPrivate
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "accessibility_modifier" {
			return model.Modifier(x.text(child))
		}
	}
	return model.ModifierPublic
}

// hasToken reports whether n has a direct anonymous child of the given type
func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

// hasChild reports whether n has a direct named child of the given type
func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == typ {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}
