package hierarchy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zheng/cuml/internal/model"
)

func class(name, extends string, implements ...string) *model.Class {
	c := &model.Class{Name: name}
	if extends != "" {
		c.Extends = &model.Ref{Name: extends}
	}
	for _, i := range implements {
		c.Implements = append(c.Implements, model.Ref{Name: i})
	}
	return c
}

func names(entries []Entry) []string {
	var result []string
	for _, e := range entries {
		result = append(result, string(e.Role)+":"+e.Part.NodeName())
	}
	return result
}

func TestFocusEntries(t *testing.T) {
	files := []*model.File{
		{Name: "a.ts", Parts: []model.Part{
			class("A", ""),
			class("B", "A", "I"),
			&model.Interface{Name: "I"},
		}},
		{Name: "b.ts", Parts: []model.Part{
			class("C", "B", "J"),
			&model.Interface{Name: "J"},
			class("Unrelated", ""),
		}},
	}

	entries, err := FocusEntries(files, "B")
	if err != nil {
		t.Fatalf("FocusEntries() error: %v", err)
	}

	want := []string{"target:B", "ancestor:A", "interface:I", "descendant:C"}
	if got := names(entries); !reflect.DeepEqual(got, want) {
		t.Errorf("FocusEntries() = %v, want %v", got, want)
	}

	descendant := entries[3].Part.(*model.Class)
	if len(descendant.Implements) != 0 {
		t.Errorf("descendant implements = %v, want none", descendant.Implements)
	}
	if source := files[1].Parts[0].(*model.Class); len(source.Implements) != 1 {
		t.Errorf("source model was modified: implements = %v", source.Implements)
	}
}

func TestFocusOrdering(t *testing.T) {
	files := []*model.File{{Parts: []model.Part{
		class("Base", "", "Root"),
		class("Middle", "Base", "Mid"),
		class("Target", "Middle", "Own", "Root"),
		class("Child1", "Target"),
		class("Grandchild", "Child1"),
		class("Child2", "Target"),
		&model.Interface{Name: "Root"},
		&model.Interface{Name: "Mid"},
		&model.Interface{Name: "Own"},
	}}}

	parts, err := Focus(files, "Target")
	if err != nil {
		t.Fatalf("Focus() error: %v", err)
	}

	var got []string
	for _, p := range parts {
		got = append(got, p.NodeName())
	}
	want := []string{"Target", "Middle", "Mid", "Base", "Root", "Own", "Child1", "Grandchild", "Child2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Focus() = %v, want %v", got, want)
	}
}

func TestFocusUnresolvedParentStopsWalk(t *testing.T) {
	files := []*model.File{{Parts: []model.Part{
		class("Widget", "ExternalBase", "Missing"),
	}}}

	parts, err := Focus(files, "Widget")
	if err != nil {
		t.Fatalf("Focus() error: %v", err)
	}
	if len(parts) != 1 || parts[0].NodeName() != "Widget" {
		t.Errorf("Focus() = %v, want only Widget", parts)
	}
}

func TestFocusTargetNotFound(t *testing.T) {
	files := []*model.File{{Parts: []model.Part{
		&model.Interface{Name: "Shape"},
		&model.Namespace{Name: "ns", Parts: []model.Part{class("Hidden", "")}},
	}}}

	for _, target := range []string{"Nope", "Shape", "Hidden"} {
		if _, err := Focus(files, target); !errors.Is(err, ErrTargetNotFound) {
			t.Errorf("Focus(%q) error = %v, want ErrTargetNotFound", target, err)
		}
	}
}

func TestFocusCycles(t *testing.T) {
	tests := []struct {
		name   string
		parts  []model.Part
		target string
	}{
		{
			name:   "ancestor cycle",
			parts:  []model.Part{class("A", "B"), class("B", "C"), class("C", "A")},
			target: "A",
		},
		{
			name:   "self extension",
			parts:  []model.Part{class("Loop", "Loop")},
			target: "Loop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := []*model.File{{Parts: tt.parts}}
			if _, err := Focus(files, tt.target); !errors.Is(err, ErrCyclicHierarchy) {
				t.Errorf("Focus() error = %v, want ErrCyclicHierarchy", err)
			}
		})
	}
}

func TestFocusDuplicateNamesAcrossFiles(t *testing.T) {
	files := []*model.File{
		{Name: "a/base.go", Parts: []model.Part{class("Base", ""), class("Child", "Base")}},
		{Name: "b/child.go", Parts: []model.Part{class("Child", "Base"), class("Leaf", "Child")}},
	}

	entries, err := FocusEntries(files, "Base")
	if err != nil {
		t.Fatalf("FocusEntries() error: %v", err)
	}
	want := []string{"target:Base", "descendant:Child", "descendant:Leaf", "descendant:Child"}
	if got := names(entries); !reflect.DeepEqual(got, want) {
		t.Errorf("FocusEntries() = %v, want %v", got, want)
	}

	if _, err := Focus(files, "Leaf"); err != nil {
		t.Errorf("Focus(Leaf) error: %v", err)
	}
}
