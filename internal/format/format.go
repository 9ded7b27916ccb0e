// Package format lowers the composite model into diagram text.
//
// A Formatter is implemented once per dialect. Dispatch over node kinds is
// shared: every dialect provides one serializer method per kind and the
// exhaustive switch in serialize routes nodes to them.
package format

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
)

var (
	// ErrUnknownNode signals a node that no serializer handles. It means the
	// model is malformed and is never a user-facing condition.
	ErrUnknownNode = errors.New("unknown model node")
	// ErrUnknownDialect is returned for unsupported dialect names
	ErrUnknownDialect = errors.New("unknown diagram dialect")
)

// EOL is the platform line separator used to join rendered lines
var EOL = lineSeparator(runtime.GOOS)

func lineSeparator(goos string) string {
	if goos == "windows" {
		return "\r\n"
	}
	return "\n"
}

// indentUnit is one level of indentation inside blocks and namespaces
const indentUnit = "    "

// Dialect names a diagram text format
type Dialect string

const (
	DialectPlantUML Dialect = "plantuml"
	DialectMermaid  Dialect = "mermaid"
)

// ParseDialect converts user input into a Dialect. An empty string selects PlantUML.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plantuml", "puml":
		return DialectPlantUML, nil
	case "mermaid", "mmd":
		return DialectMermaid, nil
	}
	return "", fmt.Errorf("%w: %q (expected plantuml or mermaid)", ErrUnknownDialect, s)
}

// Options tune how a formatter decorates nodes
type Options struct {
	// HideImplements drops the implements list from class headers. It is set
	// when the diagram is restricted to one kind of declaration.
	HideImplements bool
	// TargetClass is the class a focused view is centred on
	TargetClass string
}

// Formatter renders model nodes in one diagram dialect
type Formatter interface {
	Dialect() Dialect
	Header() []string
	Footer() []string
	// Serialize renders any node. It fails only on nodes outside the model.
	Serialize(node model.Node) (string, error)
	// Relationship renders one inferred edge
	Relationship(edge relation.Edge, mode relation.Mode) string
	// Finish post-processes the assembled document
	Finish(text string) string
}

// New returns the formatter for a dialect
func New(dialect Dialect, opts Options) (Formatter, error) {
	switch dialect {
	case DialectPlantUML:
		return &PlantUML{opts: opts}, nil
	case DialectMermaid:
		return &Mermaid{opts: opts}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
}

// RenderAll renders a complete document: header, every non-empty file,
// the inferred relationships when mode is not none, and the footer
func RenderAll(f Formatter, files []*model.File, mode relation.Mode) (string, error) {
	var lines []string
	lines = append(lines, f.Header()...)

	for _, file := range files {
		text, err := f.Serialize(file)
		if err != nil {
			return "", err
		}
		if text != "" {
			lines = append(lines, text)
		}
	}

	if mode != relation.ModeNone && mode != "" {
		for _, edge := range relation.Infer(files, mode) {
			lines = append(lines, f.Relationship(edge, mode))
		}
	}

	lines = append(lines, f.Footer()...)

	return f.Finish(strings.Join(lines, EOL)), nil
}

// serializer is the per-kind contract every dialect fulfils
type serializer interface {
	serializeFile(*model.File) (string, error)
	serializeNamespace(*model.Namespace) (string, error)
	serializeClass(*model.Class) (string, error)
	serializeInterface(*model.Interface) (string, error)
	serializeEnum(*model.Enum) string
	serializeEnumValue(*model.EnumValue) string
	serializeMethod(*model.Method) string
	serializeProperty(*model.Property) string
	serializeParameter(*model.Parameter) string
	serializeTypeParameter(*model.TypeParameter) string
}

// serialize routes a node to the serializer method for its kind
func serialize(s serializer, node model.Node) (string, error) {
	switch n := node.(type) {
	case *model.File:
		if n != nil {
			return s.serializeFile(n)
		}
	case *model.Namespace:
		if n != nil {
			return s.serializeNamespace(n)
		}
	case *model.Class:
		if n != nil {
			return s.serializeClass(n)
		}
	case *model.Interface:
		if n != nil {
			return s.serializeInterface(n)
		}
	case *model.Enum:
		if n != nil {
			return s.serializeEnum(n), nil
		}
	case *model.EnumValue:
		if n != nil {
			return s.serializeEnumValue(n), nil
		}
	case *model.Method:
		if n != nil {
			return s.serializeMethod(n), nil
		}
	case *model.Property:
		if n != nil {
			return s.serializeProperty(n), nil
		}
	case *model.Parameter:
		if n != nil {
			return s.serializeParameter(n), nil
		}
	case *model.TypeParameter:
		if n != nil {
			return s.serializeTypeParameter(n), nil
		}
	}
	return "", fmt.Errorf("%w: %T", ErrUnknownNode, node)
}

// serializeParts renders each part and joins the results line by line
func serializeParts(s serializer, parts []model.Part) ([]string, error) {
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		text, err := serialize(s, p)
		if err != nil {
			return nil, err
		}
		result = append(result, text)
	}
	return result, nil
}

// serializeMembers renders each member of a class or interface body
func serializeMembers(s serializer, members []model.Member) ([]string, error) {
	result := make([]string, 0, len(members))
	for _, m := range members {
		text, err := serialize(s, m)
		if err != nil {
			return nil, err
		}
		result = append(result, text)
	}
	return result, nil
}

// visibility maps a modifier to its UML prefix
func visibility(m model.Modifier) string {
	switch m {
	case model.ModifierPrivate:
		return "-"
	case model.ModifierProtected:
		return "#"
	default:
		return "+"
	}
}

// optionalMark is the marker for optional and defaulted parameters
func optionalMark(p *model.Parameter) string {
	if p.IsOptional || p.HasInitializer {
		return "?"
	}
	return ""
}

// parameterList renders the parameters of a method separated by commas
func parameterList(s serializer, params []*model.Parameter) string {
	rendered := make([]string, 0, len(params))
	for _, p := range params {
		if p == nil {
			continue
		}
		rendered = append(rendered, s.serializeParameter(p))
	}
	return strings.Join(rendered, ", ")
}

// typeParameterList renders generic parameters separated by commas
func typeParameterList(s serializer, params []*model.TypeParameter) string {
	rendered := make([]string, 0, len(params))
	for _, tp := range params {
		if tp == nil {
			continue
		}
		rendered = append(rendered, s.serializeTypeParameter(tp))
	}
	return strings.Join(rendered, ", ")
}

// indent prefixes every non-blank line of text with one indentation unit
func indent(text string) string {
	lines := strings.Split(text, EOL)
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indentUnit + line
		}
	}
	return strings.Join(lines, EOL)
}
