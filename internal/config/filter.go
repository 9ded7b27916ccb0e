package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects source paths with doublestar globs. Paths are relative to
// the project root and use forward slashes.
type Filter struct {
	Include []string
	Exclude []string
}

// Match reports whether path is selected: it must not match any exclude
// pattern and, when include patterns exist, must match one of them
func (f Filter) Match(path string) (bool, error) {
	for _, pattern := range f.Exclude {
		match, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		if match {
			return false, nil
		}
	}
	if len(f.Include) == 0 {
		return true, nil
	}
	for _, pattern := range f.Include {
		match, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}
