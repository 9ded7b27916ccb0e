// Package config loads project settings from .cuml.yaml or .cuml.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/relation"
	"github.com/zheng/cuml/internal/render"
)

// FileNames are the config files looked up in each directory, in order
var FileNames = []string{".cuml.yaml", ".cuml.yml", ".cuml.toml"}

// Supported source languages
const (
	LanguageGo         = "go"
	LanguageTypeScript = "typescript"
)

// DefaultPlantUMLServer is the public PlantUML rendering service
const DefaultPlantUMLServer = "https://www.plantuml.com/plantuml"

// Config holds project settings. Zero values mean "not set".
type Config struct {
	Dialect        string   `yaml:"dialect" toml:"dialect"`
	Relationships  string   `yaml:"relationships" toml:"relationships"`
	OnlyClasses    bool     `yaml:"only_classes" toml:"only_classes"`
	OnlyInterfaces bool     `yaml:"only_interfaces" toml:"only_interfaces"`
	TargetClass    string   `yaml:"target_class" toml:"target_class"`
	Language       string   `yaml:"language" toml:"language"`
	Include        []string `yaml:"include" toml:"include"`
	Exclude        []string `yaml:"exclude" toml:"exclude"`
	Namespaces     bool     `yaml:"namespaces" toml:"namespaces"`
	DB             string   `yaml:"db" toml:"db"`
	Output         string   `yaml:"output" toml:"output"`
	PlantUMLServer string   `yaml:"plantuml_server" toml:"plantuml_server"`

	// Path is the file the settings were read from, empty for defaults
	Path string `yaml:"-" toml:"-"`
}

// Default returns the settings used when no config file exists
func Default() *Config {
	return &Config{
		Dialect:        string(format.DialectPlantUML),
		Relationships:  string(relation.ModeNone),
		Language:       LanguageGo,
		DB:             ".cuml.db",
		PlantUMLServer: DefaultPlantUMLServer,
	}
}

// Find walks up from startDir and returns the first config file found
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the config found above startDir, or the defaults
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads a config file; the format follows the extension.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format", path)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	var errs []error
	if _, err := format.ParseDialect(c.Dialect); err != nil {
		errs = append(errs, err)
	}
	if _, err := relation.ParseMode(c.Relationships); err != nil {
		errs = append(errs, err)
	}
	if c.OnlyClasses && c.OnlyInterfaces {
		errs = append(errs, render.ErrConflictingFilters)
	}
	switch c.Language {
	case "", LanguageGo, LanguageTypeScript:
	default:
		errs = append(errs, fmt.Errorf("unknown language %q (expected go or typescript)", c.Language))
	}
	return errors.Join(errs...)
}

// RenderOptions converts the settings into render options
func (c *Config) RenderOptions() (render.Options, error) {
	dialect, err := format.ParseDialect(c.Dialect)
	if err != nil {
		return render.Options{}, err
	}
	mode, err := relation.ParseMode(c.Relationships)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Dialect:        dialect,
		Relationships:  mode,
		OnlyClasses:    c.OnlyClasses,
		OnlyInterfaces: c.OnlyInterfaces,
		TargetClass:    c.TargetClass,
	}, nil
}

// Filter returns the include/exclude filter of the project
func (c *Config) Filter() Filter {
	return Filter{Include: c.Include, Exclude: c.Exclude}
}

// SourceExtensions lists the file extensions of the configured language
func (c *Config) SourceExtensions() []string {
	if c.Language == LanguageTypeScript {
		return []string{".ts", ".tsx"}
	}
	return []string{".go"}
}
