// Package project runs the extraction pipeline of a source tree and keeps
// the model database in sync with it.
package project

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/zheng/cuml/internal/analyzer"
	"github.com/zheng/cuml/internal/config"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/storage"
	"github.com/zheng/cuml/internal/tsparse"
)

// Source is one extracted file ready to be stored
type Source struct {
	Path    string
	Package string
	Hash    string
	File    *model.File
}

// SyncResult counts what Sync changed in the database
type SyncResult struct {
	Saved     int
	Unchanged int
	Deleted   int64
}

func (r *SyncResult) String() string {
	return fmt.Sprintf("%d saved, %d unchanged, %d deleted", r.Saved, r.Unchanged, r.Deleted)
}

// Extract builds the model of every source below root in the configured language
func Extract(ctx context.Context, root string, cfg *config.Config) ([]*Source, error) {
	switch cfg.Language {
	case config.LanguageTypeScript:
		return extractTypeScript(ctx, root, cfg)
	case "", config.LanguageGo:
		return extractGo(ctx, root, cfg)
	}
	return nil, fmt.Errorf("unknown language %q", cfg.Language)
}

func extractGo(ctx context.Context, root string, cfg *config.Config) ([]*Source, error) {
	pkgs, err := analyzer.LoadPackages(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(analyzer.FilterSourcePackages(pkgs)) == 0 {
		return nil, fmt.Errorf("no valid Go packages found in %s", root)
	}

	files, err := analyzer.NewExtractor(pkgs, root, analyzer.ExtractOptions{
		Filter:     cfg.Filter(),
		Namespaces: cfg.Namespaces,
	}).Extract()
	if err != nil {
		return nil, err
	}

	sources := make([]*Source, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}
		sources = append(sources, &Source{
			Path:    f.Path,
			Package: f.Package,
			Hash:    storage.HashContent(content),
			File:    f.File,
		})
	}
	return sources, nil
}

func extractTypeScript(ctx context.Context, root string, cfg *config.Config) ([]*Source, error) {
	parsed, err := tsparse.ParseDir(ctx, root, cfg.Filter())
	if err != nil {
		return nil, err
	}

	sources := make([]*Source, 0, len(parsed))
	for _, p := range parsed {
		if cfg.Namespaces && len(p.File.Parts) > 0 && p.Dir != "." {
			p.File.Parts = []model.Part{&model.Namespace{Name: path.Base(p.Dir), Parts: p.File.Parts}}
		}
		sources = append(sources, &Source{
			Path:    p.Path,
			Package: p.Dir,
			Hash:    storage.HashContent(p.Content),
			File:    p.File,
		})
	}
	return sources, nil
}

// Sync stores every source whose content hash changed. With prune, stored
// files that are no longer among sources are deleted.
func Sync(db *storage.DB, sources []*Source, prune bool) (*SyncResult, error) {
	result := &SyncResult{}
	present := make(map[string]bool, len(sources))

	for _, s := range sources {
		present[s.Path] = true
		hash, err := db.FileHash(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read hash of %s: %w", s.Path, err)
		}
		if hash == s.Hash {
			result.Unchanged++
			continue
		}
		if _, err := db.SaveFile(s.Path, s.Package, s.Hash, s.File); err != nil {
			return nil, err
		}
		result.Saved++
	}

	if prune {
		stored, err := db.ListPaths()
		if err != nil {
			return nil, err
		}
		var stale []string
		for _, p := range stored {
			if !present[p] {
				stale = append(stale, p)
			}
		}
		result.Deleted, err = db.DeleteFiles(stale)
		if err != nil {
			return nil, fmt.Errorf("failed to delete stale files: %w", err)
		}
	}

	return result, nil
}

// Analyze extracts root and syncs the result into db, pruning removed files
func Analyze(ctx context.Context, db *storage.DB, root string, cfg *config.Config) (*SyncResult, error) {
	sources, err := Extract(ctx, root, cfg)
	if err != nil {
		return nil, err
	}
	return Sync(db, sources, true)
}

// Load returns the stored models in insertion order
func Load(db *storage.DB) ([]*model.File, error) {
	stored, err := db.LoadFiles()
	if err != nil {
		return nil, err
	}
	return storage.Models(stored), nil
}
