package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/zheng/cuml/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func shapesFile() *model.File {
	return &model.File{
		Name: "shapes.ts",
		Parts: []model.Part{
			&model.Interface{Name: "Shape", Members: []model.Member{
				&model.Method{Name: "area", ReturnType: model.TypeRef{Text: "number"}},
			}},
			&model.Class{Name: "Circle", Implements: []model.Ref{{Name: "Shape"}}},
			&model.Class{Name: "CircleFactory"},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.SaveFile("src/shapes.ts", "src", HashContent([]byte("v1")), shapesFile()); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}
	if _, err := db.SaveFile("src/color.ts", "src", "h2", &model.File{
		Name:  "color.ts",
		Parts: []model.Part{&model.Enum{Name: "Color"}},
	}); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}

	stored, err := db.LoadFiles()
	if err != nil {
		t.Fatalf("LoadFiles() error: %v", err)
	}
	if len(stored) != 2 || stored[0].Path != "src/shapes.ts" || stored[1].Path != "src/color.ts" {
		t.Fatalf("LoadFiles() = %+v", stored)
	}
	if !reflect.DeepEqual(stored[0].File, shapesFile()) {
		t.Errorf("round trip = %+v", stored[0].File)
	}
	if got := Models(stored); len(got) != 2 || got[1].Name != "color.ts" {
		t.Errorf("Models() = %+v", got)
	}

	hash, err := db.FileHash("src/shapes.ts")
	if err != nil || hash != HashContent([]byte("v1")) {
		t.Errorf("FileHash() = %q, %v", hash, err)
	}
	if hash, err := db.FileHash("missing.ts"); err != nil || hash != "" {
		t.Errorf("FileHash(missing) = %q, %v", hash, err)
	}

	// saving again replaces the snapshot and its declarations in place
	if _, err := db.SaveFile("src/shapes.ts", "src", "h3", &model.File{
		Name:  "shapes.ts",
		Parts: []model.Part{&model.Class{Name: "Square"}},
	}); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}
	paths, err := db.ListPaths()
	if err != nil || !reflect.DeepEqual(paths, []string{"src/shapes.ts", "src/color.ts"}) {
		t.Errorf("ListPaths() = %v, %v", paths, err)
	}
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Files != 2 || stats.Declarations != 2 || stats.ByKind[model.KindClass] != 1 || stats.ByKind[model.KindEnum] != 1 {
		t.Errorf("GetStats() = %+v", stats)
	}
}

func TestFindDeclarations(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SaveFile("shapes.ts", "", "h", shapesFile()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"Circle", []string{"Circle", "CircleFactory"}},
		{"Factory", []string{"CircleFactory"}},
		{"ape", []string{"Shape"}},
		{"Triangle", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			decls, err := db.FindDeclarations(tt.pattern)
			if err != nil {
				t.Fatalf("FindDeclarations() error: %v", err)
			}
			var names []string
			for _, d := range decls {
				names = append(names, d.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("FindDeclarations(%q) = %v, want %v", tt.pattern, names, tt.want)
			}
		})
	}
}

func TestListDeclarations(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SaveFile("shapes.ts", "src", "h", shapesFile()); err != nil {
		t.Fatal(err)
	}

	all, err := db.ListDeclarations("", 0, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListDeclarations() = %v, %v", all, err)
	}
	if d := all[1]; d.Name != "Circle" || d.Kind != model.KindClass || d.Path != "shapes.ts" || d.Package != "src" || d.Position != 1 {
		t.Errorf("declaration = %+v", d)
	}

	classes, err := db.ListDeclarations(model.KindClass, 1, 1)
	if err != nil || len(classes) != 1 || classes[0].Name != "CircleFactory" {
		t.Errorf("ListDeclarations(class, 1, 1) = %+v, %v", classes, err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	db := openTestDB(t)
	for _, p := range []string{"a.ts", "b.ts", "c.ts"} {
		if _, err := db.SaveFile(p, "", "h", shapesFile()); err != nil {
			t.Fatal(err)
		}
	}

	n, err := db.DeleteFiles([]string{"a.ts", "c.ts", "zzz.ts"})
	if err != nil || n != 2 {
		t.Fatalf("DeleteFiles() = %d, %v", n, err)
	}
	if n, _ := db.DeleteFiles(nil); n != 0 {
		t.Errorf("DeleteFiles(nil) = %d", n)
	}
	stats, _ := db.GetStats()
	if stats.Files != 1 || stats.Declarations != 3 {
		t.Errorf("after delete: %+v", stats)
	}

	if err := db.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	stats, _ = db.GetStats()
	if stats.Files != 0 || stats.Declarations != 0 {
		t.Errorf("after clear: %+v", stats)
	}
}

func TestHashContent(t *testing.T) {
	a := HashContent([]byte("class A {}"))
	if len(a) != 64 {
		t.Errorf("HashContent() length = %d, want 64", len(a))
	}
	if a != HashContent([]byte("class A {}")) || a == HashContent([]byte("class B {}")) {
		t.Error("HashContent() is not a stable content digest")
	}
}
