package impact

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/zheng/cuml/internal/model"
)

func prop(name, typ string) *model.Property {
	return &model.Property{Name: name, ReturnType: model.TypeRef{Text: typ}}
}

func testFiles() []*model.File {
	return []*model.File{
		{
			Name: "shape.ts",
			Parts: []model.Part{
				&model.Interface{Name: "Shape"},
				&model.Interface{Name: "Solid", Extends: []model.Ref{{Name: "Shape"}}},
				&model.Interface{Name: "Polyhedron", Extends: []model.Ref{{Name: "Solid"}}},
				&model.Class{Name: "Base", Implements: []model.Ref{{Name: "Shape"}}},
			},
		},
		{
			Name: "circle.ts",
			Parts: []model.Part{
				&model.Class{Name: "Circle", Extends: &model.Ref{Name: "Base"}},
				&model.Class{Name: "Ring", Extends: &model.Ref{Name: "Circle"}},
				&model.Class{Name: "Canvas", Members: []model.Member{
					prop("shapes", "Shape[]"),
					prop("main", "Base"),
				}},
			},
		},
	}
}

func names(ds []*Dependent) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

func TestAnalyze(t *testing.T) {
	t.Run("interface", func(t *testing.T) {
		r, err := Analyze(testFiles(), "Shape")
		if err != nil {
			t.Fatalf("Analyze() error: %v", err)
		}
		if r.Kind != model.KindInterface || r.File != "shape.ts" {
			t.Errorf("target = %s in %s", r.Kind, r.File)
		}
		if got := names(r.Referrers); !reflect.DeepEqual(got, []string{"Canvas"}) || r.Referrers[0].Cardinality != "*" {
			t.Errorf("Referrers = %v", got)
		}
		if got := names(r.Implementors); !reflect.DeepEqual(got, []string{"Base"}) {
			t.Errorf("Implementors = %v", got)
		}
		if got := names(r.Extenders); !reflect.DeepEqual(got, []string{"Solid", "Polyhedron"}) {
			t.Errorf("Extenders = %v", got)
		}
		if d := r.Extenders[1]; d.Depth != 2 || d.Via != "Solid" {
			t.Errorf("Polyhedron = %+v", d)
		}
		if len(r.Subclasses) != 0 {
			t.Errorf("Subclasses = %v", names(r.Subclasses))
		}
		if got := names(r.Direct()); !reflect.DeepEqual(got, []string{"Canvas", "Base", "Solid"}) {
			t.Errorf("Direct() = %v", got)
		}
	})

	t.Run("class", func(t *testing.T) {
		r, err := Analyze(testFiles(), "Base")
		if err != nil {
			t.Fatalf("Analyze() error: %v", err)
		}
		if got := names(r.Subclasses); !reflect.DeepEqual(got, []string{"Circle", "Ring"}) {
			t.Errorf("Subclasses = %v", got)
		}
		if r.Referrers[0].Name != "Canvas" || r.Referrers[0].Cardinality != "1" {
			t.Errorf("Referrers = %+v", r.Referrers[0])
		}
		if got := r.AffectedFiles(); !reflect.DeepEqual(got, []string{"circle.ts"}) {
			t.Errorf("AffectedFiles() = %v", got)
		}
		want := "Target: Base, Referrers: 1, Subclasses: 2, Implementors: 0, Extending Interfaces: 0, Files: 1"
		if got := r.Summary(); got != want {
			t.Errorf("Summary() = %q", got)
		}
	})

	t.Run("cycle terminates", func(t *testing.T) {
		files := []*model.File{{Name: "loop.ts", Parts: []model.Part{
			&model.Class{Name: "A", Extends: &model.Ref{Name: "B"}},
			&model.Class{Name: "B", Extends: &model.Ref{Name: "A"}},
		}}}
		r, err := Analyze(files, "A")
		if err != nil {
			t.Fatalf("Analyze() error: %v", err)
		}
		if got := names(r.Subclasses); !reflect.DeepEqual(got, []string{"B"}) {
			t.Errorf("Subclasses = %v", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := Analyze(testFiles(), "Triangle"); !errors.Is(err, ErrTypeNotFound) {
			t.Errorf("Analyze() error = %v, want ErrTypeNotFound", err)
		}
	})
}

func TestFormat(t *testing.T) {
	r, err := Analyze(testFiles(), "Shape")
	if err != nil {
		t.Fatal(err)
	}

	md := r.FormatMarkdown()
	for _, want := range []string{
		"## 变更影响分析: Shape",
		"| Canvas | * | circle.ts |",
		"| Polyhedron | Solid | 2 | shape.ts |",
		"_无子类_",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("FormatMarkdown() missing %q:\n%s", want, md)
		}
	}

	tree := r.FormatTree()
	for _, want := range []string{
		"interface Shape  shape.ts",
		"➕ 扩展接口 (共 2 个)\n├── Solid       shape.ts\n└── Polyhedron  shape.ts",
		"⬇️ 子类\n└── (无)",
	} {
		if !strings.Contains(tree, want) {
			t.Errorf("FormatTree() missing %q:\n%s", want, tree)
		}
	}
}
