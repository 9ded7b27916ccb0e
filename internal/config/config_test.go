package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/relation"
	"github.com/zheng/cuml/internal/render"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(root, "a", ".cuml.toml")
	writeFile(t, want, "dialect = \"mermaid\"\n")
	got, ok, err := Find(nested)
	if err != nil || !ok || got != want {
		t.Fatalf("Find() = %q, %v, %v; want %q", got, ok, err, want)
	}

	// yaml wins over toml in the same directory
	yml := filepath.Join(root, "a", ".cuml.yaml")
	writeFile(t, yml, "dialect: mermaid\n")
	if got, _, _ := Find(nested); got != yml {
		t.Errorf("Find() = %q, want %q", got, yml)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "yaml",
			file: ".cuml.yaml",
			content: `dialect: mermaid
relationships: association
only_interfaces: true
include:
  - "internal/**"
exclude:
  - "**/*_gen.go"
namespaces: true
`,
			check: func(t *testing.T, c *Config) {
				if c.Dialect != "mermaid" || c.Relationships != "association" || !c.OnlyInterfaces || !c.Namespaces {
					t.Errorf("config = %+v", c)
				}
				want := Filter{Include: []string{"internal/**"}, Exclude: []string{"**/*_gen.go"}}
				if got := c.Filter(); !reflect.DeepEqual(got, want) {
					t.Errorf("Filter() = %+v, want %+v", got, want)
				}
			},
		},
		{
			name: "toml",
			file: ".cuml.toml",
			content: `language = "typescript"
target_class = "Shape"
db = "diagrams.db"
`,
			check: func(t *testing.T, c *Config) {
				if c.Language != LanguageTypeScript || c.TargetClass != "Shape" || c.DB != "diagrams.db" {
					t.Errorf("config = %+v", c)
				}
				if got := c.SourceExtensions(); !reflect.DeepEqual(got, []string{".ts", ".tsx"}) {
					t.Errorf("SourceExtensions() = %v", got)
				}
			},
		},
		{
			name:    "defaults kept",
			file:    ".cuml.yml",
			content: "output: out.puml\n",
			check: func(t *testing.T, c *Config) {
				if c.Output != "out.puml" || c.Dialect != "plantuml" || c.Language != LanguageGo || c.PlantUMLServer != DefaultPlantUMLServer {
					t.Errorf("config = %+v", c)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.Path != path {
				t.Errorf("Path = %q, want %q", cfg.Path, path)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad dialect", ".cuml.yaml", "dialect: graphviz\n", "graphviz"},
		{"bad mode", ".cuml.yaml", "relationships: inheritance\n", "inheritance"},
		{"bad language", ".cuml.toml", "language = \"rust\"\n", "rust"},
		{"both filters", ".cuml.yaml", "only_classes: true\nonly_interfaces: true\n", "mutually exclusive"},
		{"bad yaml", ".cuml.yaml", "include: [\n", "failed to parse YAML"},
		{"bad toml", ".cuml.toml", "dialect = \n", "failed to parse TOML"},
		{"unknown format", ".cuml.json", "{}", "unsupported config format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded")
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	c := &Config{Dialect: "dot", Relationships: "weird", OnlyClasses: true, OnlyInterfaces: true}
	err := c.Validate()
	if !errors.Is(err, format.ErrUnknownDialect) || !errors.Is(err, relation.ErrUnknownMode) || !errors.Is(err, render.ErrConflictingFilters) {
		t.Errorf("Validate() = %v", err)
	}
}

func TestRenderOptions(t *testing.T) {
	c := Default()
	c.Dialect = "MMD"
	c.Relationships = "composition"
	c.TargetClass = "Circle"

	got, err := c.RenderOptions()
	if err != nil {
		t.Fatalf("RenderOptions() error: %v", err)
	}
	want := render.Options{
		Dialect:       format.DialectMermaid,
		Relationships: relation.ModeComposition,
		TargetClass:   "Circle",
	}
	if got != want {
		t.Errorf("RenderOptions() = %+v, want %+v", got, want)
	}

	c.Dialect = "svg"
	if _, err := c.RenderOptions(); !errors.Is(err, format.ErrUnknownDialect) {
		t.Errorf("RenderOptions() error = %v", err)
	}
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		path   string
		want   bool
	}{
		{"no patterns", Filter{}, "a/b.go", true},
		{"include match", Filter{Include: []string{"src/**/*.ts"}}, "src/x/y.ts", true},
		{"include miss", Filter{Include: []string{"src/**/*.ts"}}, "lib/y.ts", false},
		{"exclude wins", Filter{Include: []string{"**"}, Exclude: []string{"**/*_test.go"}}, "a/b_test.go", false},
		{"exclude miss", Filter{Exclude: []string{"vendor/**"}}, "cmd/main.go", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Match(tt.path)
			if err != nil {
				t.Fatalf("Match() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if _, err := (Filter{Exclude: []string{"[a-"}}).Match("a.go"); err == nil {
		t.Error("Match() with a malformed pattern succeeded")
	}
}
