package tsparse

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zheng/cuml/internal/config"
	"github.com/zheng/cuml/internal/model"
)

// Source is a parsed file together with its raw content
type Source struct {
	Path    string // relative to the root, forward slashes
	Dir     string // directory of Path, used as the package name
	Content []byte
	File    *model.File
}

// IsSource reports whether name is a TypeScript source that should be parsed.
// Declaration files (.d.ts) are skipped.
func IsSource(name string) bool {
	if strings.HasSuffix(name, ".d.ts") {
		return false
	}
	return strings.HasSuffix(name, ".ts") || strings.HasSuffix(name, ".tsx")
}

// skipDir reports directories that never hold project sources
func skipDir(name string) bool {
	return name == "node_modules" || (strings.HasPrefix(name, ".") && name != ".")
}

// ListFiles returns the TypeScript sources below root selected by filter,
// in lexical order
func ListFiles(root string, filter config.Filter) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSource(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ok, err := filter.Match(rel)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sources in %s: %w", root, err)
	}
	return files, nil
}

// ParseDir parses every source below root selected by filter
func ParseDir(ctx context.Context, root string, filter config.Filter) ([]*Source, error) {
	files, err := ListFiles(root, filter)
	if err != nil {
		return nil, err
	}
	return ParseFiles(ctx, root, files)
}

// ParseFiles parses the given root-relative files
func ParseFiles(ctx context.Context, root string, files []string) ([]*Source, error) {
	parser := NewParser()
	sources := make([]*Source, 0, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		file, err := parser.ParseFile(ctx, rel, content)
		if err != nil {
			return nil, err
		}
		sources = append(sources, &Source{
			Path:    rel,
			Dir:     path.Dir(rel),
			Content: content,
			File:    file,
		})
	}
	return sources, nil
}
