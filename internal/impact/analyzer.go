package impact

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
)

// ErrTypeNotFound is returned when no top-level declaration has the requested name
var ErrTypeNotFound = errors.New("type not found")

// Dependent is a declaration affected by a change of the target
type Dependent struct {
	Name        string     `json:"name"`
	Kind        model.Kind `json:"kind"`
	File        string     `json:"file"`
	Depth       int        `json:"depth"`                 // 1 for direct dependents
	Via         string     `json:"via,omitempty"`         // the declaration it depends on
	Cardinality string     `json:"cardinality,omitempty"` // set for member references
}

// ImpactReport represents the impact analysis of changing one type
type ImpactReport struct {
	Target       string       `json:"target"`
	Kind         model.Kind   `json:"kind"`
	File         string       `json:"file"`
	Referrers    []*Dependent `json:"referrers"`
	Subclasses   []*Dependent `json:"subclasses"`
	Implementors []*Dependent `json:"implementors"`
	Extenders    []*Dependent `json:"extenders"`
}

// Analyze finds everything that depends on typeName: types whose members
// reference it, classes extending it (transitively), classes implementing it
// and interfaces extending it (transitively)
func Analyze(files []*model.File, typeName string) (*ImpactReport, error) {
	decls := model.Declarations(files)
	var target *model.Declaration
	for i := range decls {
		switch decls[i].Part.(type) {
		case *model.Class, *model.Interface, *model.Enum:
			if decls[i].Part.NodeName() == typeName {
				target = &decls[i]
			}
		}
		if target != nil {
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, typeName)
	}

	locations := make(map[string]model.Declaration)
	for _, d := range decls {
		if _, seen := locations[d.Part.NodeName()]; !seen {
			locations[d.Part.NodeName()] = d
		}
	}
	dependent := func(name, via string, depth int) *Dependent {
		d := &Dependent{Name: name, Via: via, Depth: depth}
		if loc, ok := locations[name]; ok {
			d.Kind = loc.Part.Kind()
			d.File = loc.File.Name
		}
		return d
	}

	report := &ImpactReport{
		Target: typeName,
		Kind:   target.Part.Kind(),
		File:   target.File.Name,
	}

	for _, e := range relation.Infer(files, relation.ModeAssociation) {
		if e.To != typeName {
			continue
		}
		d := dependent(e.From, typeName, 1)
		d.Cardinality = e.Cardinality
		report.Referrers = append(report.Referrers, d)
	}

	report.Subclasses = walk(typeName, func(name string) []string {
		var children []string
		for _, d := range decls {
			if c, ok := d.Part.(*model.Class); ok && c.Extends != nil && c.Extends.Name == name {
				children = append(children, c.Name)
			}
		}
		return children
	}, dependent)

	report.Extenders = walk(typeName, func(name string) []string {
		var children []string
		for _, d := range decls {
			if i, ok := d.Part.(*model.Interface); ok && hasRef(i.Extends, name) {
				children = append(children, i.Name)
			}
		}
		return children
	}, dependent)

	for _, d := range decls {
		if c, ok := d.Part.(*model.Class); ok && hasRef(c.Implements, typeName) {
			report.Implementors = append(report.Implementors, dependent(c.Name, typeName, 1))
		}
	}

	return report, nil
}

// walk collects the transitive children of root breadth first, each name once
func walk(root string, children func(string) []string, dependent func(name, via string, depth int) *Dependent) []*Dependent {
	var result []*Dependent
	visited := map[string]bool{root: true}
	type item struct {
		name  string
		depth int
	}
	queue := []item{{root, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children(cur.name) {
			if visited[child] {
				continue
			}
			visited[child] = true
			result = append(result, dependent(child, cur.name, cur.depth+1))
			queue = append(queue, item{child, cur.depth + 1})
		}
	}
	return result
}

func hasRef(refs []model.Ref, name string) bool {
	for _, r := range refs {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Direct returns the dependents that touch the target itself, each name once
func (r *ImpactReport) Direct() []*Dependent {
	var direct []*Dependent
	seen := make(map[string]bool)
	for _, group := range [][]*Dependent{r.Referrers, r.Subclasses, r.Implementors, r.Extenders} {
		for _, d := range group {
			if d.Depth == 1 && !seen[d.Name] {
				seen[d.Name] = true
				direct = append(direct, d)
			}
		}
	}
	return direct
}

// AffectedFiles returns the sorted set of files holding a dependent
func (r *ImpactReport) AffectedFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, group := range [][]*Dependent{r.Referrers, r.Subclasses, r.Implementors, r.Extenders} {
		for _, d := range group {
			if d.File != "" && !seen[d.File] {
				seen[d.File] = true
				files = append(files, d.File)
			}
		}
	}
	sort.Strings(files)
	return files
}

// FormatMarkdown formats the impact report as markdown
func (r *ImpactReport) FormatMarkdown() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## 变更影响分析: %s\n\n", r.Target))
	sb.WriteString(fmt.Sprintf("**类型:** %s\n\n", r.Kind))
	if r.File != "" {
		sb.WriteString(fmt.Sprintf("**位置:** %s\n\n", r.File))
	}

	sb.WriteString("### 成员引用 (需检查是否需要同步修改)\n\n")
	if len(r.Referrers) == 0 {
		sb.WriteString("_无成员引用_\n\n")
	} else {
		sb.WriteString("| 类型 | 基数 | 文件 |\n")
		sb.WriteString("|------|------|------|\n")
		for _, d := range r.Referrers {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", d.Name, d.Cardinality, d.File))
		}
		sb.WriteString("\n")
	}

	writeGroup := func(title, empty string, group []*Dependent) {
		sb.WriteString("### " + title + "\n\n")
		if len(group) == 0 {
			sb.WriteString("_" + empty + "_\n\n")
			return
		}
		sb.WriteString("| 类型 | 继承自 | 层级 | 文件 |\n")
		sb.WriteString("|------|------|------|------|\n")
		for _, d := range group {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n", d.Name, d.Via, d.Depth, d.File))
		}
		sb.WriteString("\n")
	}
	writeGroup("子类", "无子类", r.Subclasses)
	writeGroup("实现类", "无实现类", r.Implementors)
	writeGroup("扩展接口", "无扩展接口", r.Extenders)

	return sb.String()
}

// FormatTree formats the impact report as a tree structure
func (r *ImpactReport) FormatTree() string {
	var sb strings.Builder

	sb.WriteString("📍 当前类型\n")
	sb.WriteString(fmt.Sprintf("%s %s  %s\n\n", r.Kind, r.Target, r.File))

	writeGroup := func(title string, group []*Dependent) {
		if len(group) == 0 {
			sb.WriteString(title + "\n")
			sb.WriteString("└── (无)\n\n")
			return
		}
		width := 0
		for _, d := range group {
			if len(d.Name) > width {
				width = len(d.Name)
			}
		}
		sb.WriteString(fmt.Sprintf("%s (共 %d 个)\n", title, len(group)))
		for i, d := range group {
			prefix := "├──"
			if i == len(group)-1 {
				prefix = "└──"
			}
			sb.WriteString(fmt.Sprintf("%s %-*s  %s\n", prefix, width, d.Name, d.File))
		}
		sb.WriteString("\n")
	}
	writeGroup("🔗 成员引用", r.Referrers)
	writeGroup("⬇️ 子类", r.Subclasses)
	writeGroup("🧩 实现类", r.Implementors)
	writeGroup("➕ 扩展接口", r.Extenders)

	return strings.TrimSuffix(sb.String(), "\n")
}

// Summary returns a brief summary of the impact report
func (r *ImpactReport) Summary() string {
	return fmt.Sprintf(
		"Target: %s, Referrers: %d, Subclasses: %d, Implementors: %d, Extending Interfaces: %d, Files: %d",
		r.Target,
		len(r.Referrers),
		len(r.Subclasses),
		len(r.Implementors),
		len(r.Extenders),
		len(r.AffectedFiles()),
	)
}
