package analyzer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitChanges represents the source files changed in a working tree
type GitChanges struct {
	ChangedFiles    []string // changed source files, relative to the project
	ChangedPackages []string // directories holding changed files, as ./dir patterns
}

// GetGitChanges returns the source files with the given extensions that
// differ from HEAD, including untracked ones. If base is set (e.g. "HEAD~1"
// or a branch name) files changed between base and HEAD are added too.
func GetGitChanges(projectPath, base string, exts ...string) (*GitChanges, error) {
	repo, err := git.PlainOpenWithOptions(projectPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	absProject, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, err
	}
	prefix, err := filepath.Rel(wt.Filesystem.Root(), absProject)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]bool)

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	for path, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		changed[path] = true
	}

	if base != "" {
		paths, err := diffAgainst(repo, base)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			changed[p] = true
		}
	}

	return collectChanges(changed, filepath.ToSlash(prefix), exts), nil
}

// diffAgainst lists the files that differ between the base revision and HEAD
func diffAgainst(repo *git.Repository, base string) ([]string, error) {
	baseHash, err := repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", base, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	baseTree, err := commitTree(repo, *baseHash)
	if err != nil {
		return nil, err
	}
	headTree, err := commitTree(repo, head.Hash())
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	var paths []string
	for _, ch := range changes {
		if ch.To.Name != "" {
			paths = append(paths, ch.To.Name)
		} else if ch.From.Name != "" {
			paths = append(paths, ch.From.Name)
		}
	}
	return paths, nil
}

func commitTree(repo *git.Repository, hash plumbing.Hash) (*object.Tree, error) {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	return commit.Tree()
}

// collectChanges filters repository paths down to source files below prefix
// and groups them by directory
func collectChanges(paths map[string]bool, prefix string, exts []string) *GitChanges {
	changes := &GitChanges{
		ChangedFiles:    make([]string, 0),
		ChangedPackages: make([]string, 0),
	}

	if prefix == "." {
		prefix = ""
	}

	var files []string
	for p := range paths {
		file := filepath.ToSlash(p)
		if prefix != "" {
			rest, ok := strings.CutPrefix(file, prefix+"/")
			if !ok {
				continue
			}
			file = rest
		}
		if !hasSourceExt(file, exts) || strings.HasSuffix(file, "_test.go") {
			continue
		}
		files = append(files, file)
	}
	sort.Strings(files)

	pkgSet := make(map[string]bool)
	for _, file := range files {
		changes.ChangedFiles = append(changes.ChangedFiles, file)

		pkgDir := filepath.ToSlash(filepath.Dir(file))
		if pkgDir == "." {
			pkgDir = "./"
		} else {
			pkgDir = "./" + pkgDir
		}

		if !pkgSet[pkgDir] {
			pkgSet[pkgDir] = true
			changes.ChangedPackages = append(changes.ChangedPackages, pkgDir)
		}
	}

	return changes
}

func hasSourceExt(file string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		if strings.HasSuffix(file, ext) {
			return true
		}
	}
	return false
}

// HasChanges returns true if any source file changed
func (g *GitChanges) HasChanges() bool {
	return len(g.ChangedFiles) > 0
}

// String returns a summary string of the changes
func (g *GitChanges) String() string {
	return fmt.Sprintf("%d files changed in %d packages", len(g.ChangedFiles), len(g.ChangedPackages))
}

// GetChangedPackagePatterns returns package patterns for go/packages.Load
func (g *GitChanges) GetChangedPackagePatterns() []string {
	if len(g.ChangedPackages) == 0 {
		return []string{"./..."}
	}
	return g.ChangedPackages
}
