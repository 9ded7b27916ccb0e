package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/impact"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
	"github.com/zheng/cuml/internal/render"
	"github.com/zheng/cuml/internal/storage"
)

// Exporter generates Markdown documentation from stored class models
type Exporter struct {
	files []*storage.StoredFile
}

// NewExporter creates a new exporter over the given snapshot
func NewExporter(files []*storage.StoredFile) *Exporter {
	return &Exporter{files: files}
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	Dialect       format.Dialect
	Relationships relation.Mode
	PerFile       bool // add a diagram for every file
	ProjectName   string
	Jobs          int       // parallel per-file renders, GOMAXPROCS when <= 0
	Generated     time.Time // zero means now
}

// DefaultExportOptions returns default export options
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Dialect:       format.DialectMermaid,
		Relationships: relation.ModeAssociation,
		PerFile:       true,
		ProjectName:   "项目",
	}
}

func (o ExportOptions) generated() string {
	t := o.Generated
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04:05")
}

// Export generates a complete Markdown document
func (e *Exporter) Export(ctx context.Context, w io.Writer, opts ExportOptions) error {
	models := storage.Models(e.files)
	ropts := render.Options{Dialect: opts.Dialect, Relationships: opts.Relationships}

	overview, err := render.Render(models, ropts)
	if err != nil {
		return fmt.Errorf("failed to render overview: %w", err)
	}

	var perFile []string
	if opts.PerFile {
		perFile, err = e.renderFiles(ctx, ropts, opts.Jobs)
		if err != nil {
			return err
		}
	}

	decls := model.Declarations(models)

	// Header
	fmt.Fprintf(w, "# %s类图\n\n", opts.ProjectName)
	fmt.Fprintf(w, "> 生成时间: %s\n", opts.generated())
	fmt.Fprintf(w, "> 文件: %d | 类型: %d\n\n", len(e.files), len(decls))

	e.writeProjectStructure(w)

	fmt.Fprintf(w, "## 总览\n\n")
	writeDiagram(w, opts.Dialect, overview)

	if opts.Relationships != relation.ModeNone {
		writeEdgeTable(w, relation.Infer(models, opts.Relationships))
	}

	fmt.Fprintf(w, "---\n\n## 文件详解\n\n")
	for i, f := range e.files {
		e.writeFileSection(w, f)
		if opts.PerFile && perFile[i] != "" {
			writeDiagram(w, opts.Dialect, perFile[i])
		}
	}

	return nil
}

// renderFiles renders one diagram per file concurrently. Files without
// declarations yield an empty string.
func (e *Exporter) renderFiles(ctx context.Context, ropts render.Options, jobs int) ([]string, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]string, len(e.files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(e.files))))
	for i, f := range e.files {
		if len(f.File.Parts) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := render.Render([]*model.File{f.File}, ropts)
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", f.Path, err)
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeProjectStructure writes the directory tree of the stored files
func (e *Exporter) writeProjectStructure(w io.Writer) {
	fmt.Fprintf(w, "## 项目结构\n\n```\n")

	dirs := make(map[string]bool)
	for _, f := range e.files {
		dir := path.Dir(f.Path)
		for dir != "." && dir != "/" && !dirs[dir] {
			dirs[dir] = true
			dir = path.Dir(dir)
		}
	}

	var sortedDirs []string
	for dir := range dirs {
		sortedDirs = append(sortedDirs, dir)
	}
	sort.Strings(sortedDirs)

	for _, dir := range sortedDirs {
		indent := strings.Count(dir, "/")
		prefix := strings.Repeat("│   ", indent)
		fmt.Fprintf(w, "%s├── %s/\n", prefix, path.Base(dir))
	}

	fmt.Fprintf(w, "```\n\n")
}

// writeFileSection writes the declaration table of one file
func (e *Exporter) writeFileSection(w io.Writer, f *storage.StoredFile) {
	fmt.Fprintf(w, "### 📄 %s\n\n", f.Path)
	if f.Package != "" {
		fmt.Fprintf(w, "**包:** `%s`\n\n", f.Package)
	}
	if len(f.File.Parts) == 0 {
		fmt.Fprintf(w, "_无类型声明_\n\n")
		return
	}

	fmt.Fprintf(w, "| 类型 | 名称 | 继承 | 成员 |\n")
	fmt.Fprintf(w, "|------|------|------|------|\n")
	for _, d := range model.Declarations([]*model.File{f.File}) {
		fmt.Fprintf(w, "| %s | `%s` | %s | %d |\n", d.Part.Kind(), d.Part.NodeName(), heritage(d.Part), memberCount(d.Part))
	}
	fmt.Fprintf(w, "\n")
}

func writeEdgeTable(w io.Writer, edges []relation.Edge) {
	if len(edges) == 0 {
		return
	}
	fmt.Fprintf(w, "## 关系\n\n")
	fmt.Fprintf(w, "| 来源 | 目标 | 基数 |\n")
	fmt.Fprintf(w, "|------|------|------|\n")
	for _, e := range edges {
		fmt.Fprintf(w, "| `%s` | `%s` | %s |\n", e.From, e.To, e.Cardinality)
	}
	fmt.Fprintf(w, "\n")
}

func writeDiagram(w io.Writer, dialect format.Dialect, text string) {
	lang := "plantuml"
	if dialect == format.DialectMermaid {
		lang = "mermaid"
	}
	fmt.Fprintf(w, "```%s\n%s\n```\n\n", lang, strings.ReplaceAll(text, format.EOL, "\n"))
}

// ExportIncremental generates a report for changed files only: their
// declarations and everything depending on them
func (e *Exporter) ExportIncremental(w io.Writer, changedFiles []string, opts ExportOptions) error {
	if len(changedFiles) == 0 {
		fmt.Fprintf(w, "# 增量更新报告\n\n> 没有检测到变更\n")
		return nil
	}

	changed := make(map[string]bool, len(changedFiles))
	for _, p := range changedFiles {
		changed[p] = true
	}
	models := storage.Models(e.files)

	var targets []string
	for _, f := range e.files {
		if !changed[f.Path] {
			continue
		}
		for _, d := range model.Declarations([]*model.File{f.File}) {
			switch d.Part.(type) {
			case *model.Class, *model.Interface, *model.Enum:
				targets = append(targets, d.Part.NodeName())
			}
		}
	}

	fmt.Fprintf(w, "# 增量更新报告\n\n")
	fmt.Fprintf(w, "> 生成时间: %s\n", opts.generated())
	fmt.Fprintf(w, "> 变更文件: %d | 变更类型: %d\n\n", len(changedFiles), len(targets))

	fmt.Fprintf(w, "## 变更范围\n\n")
	for _, p := range changedFiles {
		fmt.Fprintf(w, "- `%s`\n", p)
	}
	fmt.Fprintf(w, "\n")

	if len(targets) == 0 {
		fmt.Fprintf(w, "_没有受影响的类型_\n")
		return nil
	}

	fmt.Fprintf(w, "## 影响分析\n\n")
	for _, name := range targets {
		report, err := impact.Analyze(models, name)
		if err != nil {
			return err
		}
		direct := report.Direct()
		if len(direct) == 0 {
			continue
		}

		fmt.Fprintf(w, "### ⚠️ `%s`\n\n", name)
		fmt.Fprintf(w, "**位置**: `%s`\n\n", report.File)
		fmt.Fprintf(w, "**以下 %d 个类型直接依赖此类型，可能需要检查：**\n\n", len(direct))
		fmt.Fprintf(w, "| 类型 | 种类 | 文件 |\n")
		fmt.Fprintf(w, "|------|------|------|\n")
		for _, d := range direct {
			fmt.Fprintf(w, "| `%s` | %s | %s |\n", d.Name, d.Kind, d.File)
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

// Helper functions

func heritage(p model.Part) string {
	var refs []string
	switch n := p.(type) {
	case *model.Class:
		if n.Extends != nil {
			refs = append(refs, n.Extends.Name)
		}
		refs = append(refs, n.ImplementsNames()...)
	case *model.Interface:
		refs = n.ExtendsNames()
	}
	if len(refs) == 0 {
		return "-"
	}
	return strings.Join(refs, ", ")
}

func memberCount(p model.Part) int {
	switch n := p.(type) {
	case *model.Class:
		return len(n.Members)
	case *model.Interface:
		return len(n.Members)
	case *model.Enum:
		return len(n.Values)
	case *model.Namespace:
		return len(n.Parts)
	}
	return 0
}
