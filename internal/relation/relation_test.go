package relation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zheng/cuml/internal/model"
)

func prop(name, typ string) *model.Property {
	return &model.Property{Name: name, ReturnType: model.TypeRef{Text: typ}}
}

func method(name, ret string, params ...string) *model.Method {
	m := &model.Method{Name: name, ReturnType: model.TypeRef{Text: ret}}
	for i, p := range params {
		m.Parameters = append(m.Parameters, &model.Parameter{
			Name: string(rune('a' + i)),
			Type: model.TypeRef{Text: p},
		})
	}
	return m
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeNone, false},
		{"none", ModeNone, false},
		{"Composition", ModeComposition, false},
		{" association ", ModeAssociation, false},
		{"aggregation", ModeNone, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestInferComposition(t *testing.T) {
	files := []*model.File{{
		Name: "shapes.ts",
		Parts: []model.Part{
			&model.Interface{Name: "Shape", Members: []model.Member{prop("color", "string")}},
			&model.Class{
				Name:       "Circle",
				Implements: []model.Ref{{Name: "Shape"}},
				Members: []model.Member{
					prop("outline", "Shape"),
					prop("previous", "Shape[]"),
					method("copy", "Circle", "Shape"),
					prop("self", "Circle"),
				},
			},
			&model.Enum{Name: "Color"},
		},
	}}

	got := Infer(files, ModeComposition)
	want := []Edge{{From: "Circle", To: "Shape", Cardinality: "1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Infer() = %v, want %v", got, want)
	}
}

func TestInferAssociationCardinality(t *testing.T) {
	files := []*model.File{{
		Name: "scene.ts",
		Parts: []model.Part{
			&model.Class{
				Name: "Scene",
				Members: []model.Member{
					prop("things", "Thing[]"),
					prop("main", "Thing"),
					prop("more", "Thing[]"),
					prop("camera", "Camera"),
					method("add", "void", "Light[]"),
				},
			},
			&model.Interface{Name: "Thing"},
			&model.Class{Name: "Camera"},
			&model.Class{Name: "Light"},
		},
	}}

	got := Infer(files, ModeAssociation)
	want := []Edge{
		{From: "Scene", To: "Thing", Cardinality: "*"},
		{From: "Scene", To: "Thing", Cardinality: "1"},
		{From: "Scene", To: "Camera", Cardinality: "1"},
		{From: "Scene", To: "Light", Cardinality: "1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Infer() = %v, want %v", got, want)
	}
}

func TestInferParametersBeforeReturnType(t *testing.T) {
	files := []*model.File{{
		Parts: []model.Part{
			&model.Class{Name: "Factory", Members: []model.Member{method("make", "Product[]", "Spec[]")}},
			&model.Class{Name: "Product"},
			&model.Class{Name: "Spec"},
		},
	}}

	tests := []struct {
		mode Mode
		want []Edge
	}{
		{ModeComposition, []Edge{
			{From: "Factory", To: "Spec", Cardinality: "1"},
			{From: "Factory", To: "Product", Cardinality: "1"},
		}},
		// parameter types are never scanned for array suffixes
		{ModeAssociation, []Edge{
			{From: "Factory", To: "Spec", Cardinality: "1"},
			{From: "Factory", To: "Product", Cardinality: "*"},
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := Infer(files, tt.mode)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Infer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInferIgnoresNestedAndUnknown(t *testing.T) {
	files := []*model.File{
		{
			Name: "a.ts",
			Parts: []model.Part{
				&model.Namespace{Name: "geo", Parts: []model.Part{
					&model.Class{Name: "Point"},
					&model.Class{Name: "Line", Members: []model.Member{prop("from", "Vector")}},
				}},
				&model.Class{Name: "Vector", Members: []model.Member{
					prop("origin", "Point"),
					prop("unknown", "Missing"),
				}},
			},
		},
		{
			Name: "b.ts",
			Parts: []model.Part{
				&model.Enum{Name: "Axis"},
				&model.Class{Name: "Grid", Members: []model.Member{prop("axis", "Axis"), prop("v", "Vector")}},
			},
		},
	}

	got := Infer(files, ModeComposition)
	want := []Edge{
		{From: "Grid", To: "Axis", Cardinality: "1"},
		{From: "Grid", To: "Vector", Cardinality: "1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Infer() = %v, want %v", got, want)
	}
}

func TestInferNoEdges(t *testing.T) {
	if got := Infer(nil, ModeAssociation); got != nil {
		t.Errorf("Infer(nil) = %v, want nil", got)
	}

	files := []*model.File{{Parts: []model.Part{
		&model.Class{Name: "A", Members: []model.Member{prop("b", "B")}},
		&model.Class{Name: "B", Members: []model.Member{prop("a", "A")}},
	}}}
	if got := Infer(files, ModeNone); got != nil {
		t.Errorf("Infer(none) = %v, want nil", got)
	}
}

func TestInferIsDeterministic(t *testing.T) {
	files := []*model.File{{Parts: []model.Part{
		&model.Class{Name: "A", Members: []model.Member{prop("b", "B | C"), prop("c", "C[]")}},
		&model.Class{Name: "B", Members: []model.Member{prop("a", "A")}},
		&model.Class{Name: "C"},
	}}}

	first := Infer(files, ModeAssociation)
	for i := 0; i < 10; i++ {
		if again := Infer(files, ModeAssociation); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d = %v, want %v", i, again, first)
		}
	}
}

func TestInferSameTargetInParameterAndReturn(t *testing.T) {
	files := []*model.File{{Parts: []model.Part{
		&model.Class{Name: "X", Members: []model.Member{
			method("run", "Beta", "Alpha"),
			method("wrap", "Item[]", "Item"),
		}},
		&model.Class{Name: "Alpha"},
		&model.Class{Name: "Beta"},
		&model.Class{Name: "Item"},
	}}}

	if got, want := Infer(files, ModeComposition), []Edge{
		{From: "X", To: "Alpha", Cardinality: "1"},
		{From: "X", To: "Beta", Cardinality: "1"},
		{From: "X", To: "Item", Cardinality: "1"},
	}; !reflect.DeepEqual(got, want) {
		t.Errorf("Infer(composition) = %v, want %v", got, want)
	}

	if got, want := Infer(files, ModeAssociation), []Edge{
		{From: "X", To: "Alpha", Cardinality: "1"},
		{From: "X", To: "Beta", Cardinality: "1"},
		{From: "X", To: "Item", Cardinality: "1"},
		{From: "X", To: "Item", Cardinality: "*"},
	}; !reflect.DeepEqual(got, want) {
		t.Errorf("Infer(association) = %v, want %v", got, want)
	}
}
