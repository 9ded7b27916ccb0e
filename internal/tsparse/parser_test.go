package tsparse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/zheng/cuml/internal/config"
	"github.com/zheng/cuml/internal/model"
)

const shapesSource = `import { Point } from "./point";

export interface Shape {
    area(): number;
    label?: string;
}

export abstract class Base<T extends Shape> implements Shape {
    protected id: number;
    constructor(id: number) {
        this.id = id;
    }
    abstract area(): number;
}

export class Circle extends Base<Shape> {
    radius = 1;
    static origin: Point;
    private center: Point;
    async load(p?: Point, scale = 2): Promise<void> {}
    area(): number {
        return 3.14 * this.radius * this.radius;
    }
}

enum Color {
    Red,
    Green = "g",
}
`

func parse(t *testing.T, name, src string) *model.File {
	t.Helper()
	f, err := NewParser().ParseFile(context.Background(), name, []byte(src))
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	return f
}

func TestParseFile(t *testing.T) {
	f := parse(t, "shapes.ts", shapesSource)

	var names []string
	for _, p := range f.Parts {
		names = append(names, p.NodeName())
	}
	if want := []string{"Shape", "Base", "Circle", "Color"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("parts = %v, want %v", names, want)
	}

	t.Run("interface", func(t *testing.T) {
		shape, ok := f.Parts[0].(*model.Interface)
		if !ok {
			t.Fatalf("Shape is %T", f.Parts[0])
		}
		if len(shape.Members) != 2 {
			t.Fatalf("members = %d", len(shape.Members))
		}
		area := shape.Members[0].(*model.Method)
		if area.Name != "area" || area.ReturnType.Text != "number" {
			t.Errorf("area = %+v", area)
		}
		label := shape.Members[1].(*model.Property)
		if label.Name != "label" || !label.IsOptional || label.ReturnType.Text != "string" {
			t.Errorf("label = %+v", label)
		}
	})

	t.Run("abstract class", func(t *testing.T) {
		base, ok := f.Parts[1].(*model.Class)
		if !ok {
			t.Fatalf("Base is %T", f.Parts[1])
		}
		if !base.IsAbstract {
			t.Error("Base should be abstract")
		}
		if got := base.ImplementsNames(); !reflect.DeepEqual(got, []string{"Shape"}) {
			t.Errorf("implements = %v", got)
		}
		if len(base.TypeParameters) != 1 || base.TypeParameters[0].Name != "T" ||
			base.TypeParameters[0].Constraint == nil || base.TypeParameters[0].Constraint.Text != "Shape" {
			t.Errorf("type parameters = %+v", base.TypeParameters)
		}
		if len(base.Constructors) != 1 || base.Constructors[0].ReturnType.Text != "Base" {
			t.Errorf("constructors = %+v", base.Constructors)
		}
		if len(base.Members) != 2 {
			t.Fatalf("members = %d", len(base.Members))
		}
		if id := base.Members[0].(*model.Property); id.Modifier != model.ModifierProtected || id.ReturnType.Text != "number" {
			t.Errorf("id = %+v", id)
		}
		if area := base.Members[1].(*model.Method); !area.IsAbstract {
			t.Errorf("area = %+v", area)
		}
	})

	t.Run("class", func(t *testing.T) {
		circle := f.Parts[2].(*model.Class)
		if circle.Extends == nil || circle.Extends.Name != "Base" {
			t.Fatalf("extends = %+v", circle.Extends)
		}
		if circle.Extends.Origin != "shapes.ts:16" {
			t.Errorf("origin = %s", circle.Extends.Origin)
		}

		members := make(map[string]model.Member)
		for _, m := range circle.Members {
			members[m.NodeName()] = m
		}
		if r := members["radius"].(*model.Property); r.ReturnType.Text != "any" {
			t.Errorf("radius type = %s", r.ReturnType.Text)
		}
		if o := members["origin"].(*model.Property); !o.IsStatic || o.ReturnType.Text != "Point" {
			t.Errorf("origin = %+v", o)
		}
		if c := members["center"].(*model.Property); c.Modifier != model.ModifierPrivate {
			t.Errorf("center modifier = %s", c.Modifier)
		}

		load := members["load"].(*model.Method)
		if !load.IsAsync || load.ReturnType.Text != "Promise<void>" || len(load.Parameters) != 2 {
			t.Fatalf("load = %+v", load)
		}
		if p := load.Parameters[0]; p.Name != "p" || !p.IsOptional || p.Type.Text != "Point" {
			t.Errorf("p = %+v", p)
		}
		if s := load.Parameters[1]; s.Name != "scale" || !s.HasInitializer || s.Type.Text != "any" {
			t.Errorf("scale = %+v", s)
		}
	})

	t.Run("enum", func(t *testing.T) {
		color := f.Parts[3].(*model.Enum)
		if len(color.Values) != 2 {
			t.Fatalf("values = %+v", color.Values)
		}
		if red := color.Values[0]; red.Name != "Red" || red.HasValue {
			t.Errorf("Red = %+v", red)
		}
		if green := color.Values[1]; green.Name != "Green" || !green.HasValue || green.Value != `"g"` {
			t.Errorf("Green = %+v", green)
		}
	})
}

func TestParseFileOverloads(t *testing.T) {
	f := parse(t, "greeter.ts", `class Greeter {
    greet(a: string): string;
    greet(a: number): string;
    greet(a: any, b = 3) {
        return String(a) + b;
    }
}

interface Parser {
    parse(s: string): number;
    parse(s: string, radix: number): number;
}
`)

	greeter := f.Parts[0].(*model.Class)
	var params []string
	for _, m := range greeter.Members {
		method, ok := m.(*model.Method)
		if !ok || method.Name != "greet" {
			t.Fatalf("member = %+v", m)
		}
		params = append(params, method.Parameters[0].Type.Text)
	}
	if want := []string{"string", "number", "any"}; !reflect.DeepEqual(params, want) {
		t.Errorf("greet overloads = %v, want %v", params, want)
	}
	if impl := greeter.Members[2].(*model.Method); len(impl.Parameters) != 2 || !impl.Parameters[1].HasInitializer {
		t.Errorf("greet implementation = %+v", impl)
	}

	parser := f.Parts[1].(*model.Interface)
	if len(parser.Members) != 2 {
		t.Fatalf("Parser members = %d, want 2", len(parser.Members))
	}
	if second := parser.Members[1].(*model.Method); len(second.Parameters) != 2 {
		t.Errorf("second parse = %+v", second)
	}
}

func TestParseFileParameterProperties(t *testing.T) {
	f := parse(t, "point.ts", `class Point {
    label: string;
    constructor(public x: number, private readonly y: number, protected z?: number, scale = 1) {}
    move(public dx: number) {}
}
`)

	point := f.Parts[0].(*model.Class)
	if len(point.Constructors) != 1 || len(point.Constructors[0].Parameters) != 4 {
		t.Fatalf("constructors = %+v", point.Constructors)
	}

	var names []string
	for _, m := range point.Members {
		names = append(names, m.NodeName())
	}
	if want := []string{"label", "x", "y", "z", "move"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("members = %v, want %v", names, want)
	}

	tests := []struct {
		index    int
		modifier model.Modifier
		readonly bool
		optional bool
	}{
		{1, model.ModifierPublic, false, false},
		{2, model.ModifierPrivate, true, false},
		{3, model.ModifierProtected, false, true},
	}
	for _, tt := range tests {
		p, ok := point.Members[tt.index].(*model.Property)
		if !ok {
			t.Fatalf("member %d is %T", tt.index, point.Members[tt.index])
		}
		if p.Modifier != tt.modifier || p.IsReadonly != tt.readonly || p.IsOptional != tt.optional || p.ReturnType.Text != "number" {
			t.Errorf("%s = %+v", p.Name, p)
		}
	}
}

func TestParseFileEmptyBodies(t *testing.T) {
	f := parse(t, "empty.ts", "class A {}\ninterface B {}\nenum C {}\nconst x = 1;\n")
	if len(f.Parts) != 3 {
		t.Fatalf("parts = %d", len(f.Parts))
	}
	if a := f.Parts[0].(*model.Class); len(a.Members) != 0 || a.Extends != nil {
		t.Errorf("A = %+v", a)
	}
}

func TestIsSource(t *testing.T) {
	tests := map[string]bool{
		"a.ts":    true,
		"b.tsx":   true,
		"c.d.ts":  false,
		"d.js":    false,
		"e.ts.md": false,
	}
	for name, want := range tests {
		if got := IsSource(name); got != want {
			t.Errorf("IsSource(%q) = %v, want %v", name, got, want)
		}
	}
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.ts":                  "class A {}",
		"src/b.tsx":                 "class B {}",
		"src/types.d.ts":            "declare class T {}",
		"src/gen/c.ts":              "class C {}",
		"node_modules/lib/index.ts": "class L {}",
		".cache/x.ts":               "class X {}",
		"README.md":                 "# readme",
	})

	files, err := ListFiles(root, config.Filter{})
	if err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}
	if want := []string{"src/a.ts", "src/b.tsx", "src/gen/c.ts"}; !reflect.DeepEqual(files, want) {
		t.Errorf("ListFiles() = %v, want %v", files, want)
	}

	files, err = ListFiles(root, config.Filter{Exclude: []string{"src/gen/**"}})
	if err != nil {
		t.Fatalf("ListFiles() error: %v", err)
	}
	if want := []string{"src/a.ts", "src/b.tsx"}; !reflect.DeepEqual(files, want) {
		t.Errorf("ListFiles(exclude) = %v, want %v", files, want)
	}
}

func TestParseDir(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"model/user.ts": "export class User { name: string; }",
		"index.ts":      "export interface Repo { find(id: string): User; }",
	})

	sources, err := ParseDir(context.Background(), root, config.Filter{})
	if err != nil {
		t.Fatalf("ParseDir() error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d", len(sources))
	}
	if s := sources[0]; s.Path != "index.ts" || s.Dir != "." || s.File.Name != "index.ts" {
		t.Errorf("sources[0] = %+v", s)
	}
	if s := sources[1]; s.Path != "model/user.ts" || s.Dir != "model" || string(s.Content) != "export class User { name: string; }" {
		t.Errorf("sources[1] = %+v", s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ParseDir(ctx, root, config.Filter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("ParseDir(canceled) error = %v", err)
	}
}
