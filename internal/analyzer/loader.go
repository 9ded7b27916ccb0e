package analyzer

import (
	"context"
	"fmt"
	"os"
	"sort"

	"golang.org/x/tools/go/packages"
)

// LoadPackages loads the Go packages matching patterns under projectPath.
// With no patterns every package of the module is loaded.
func LoadPackages(ctx context.Context, projectPath string, patterns ...string) ([]*packages.Package, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		Dir: projectPath,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	// Check for errors in loaded packages
	var errs []error
	for _, pkg := range pkgs {
		for _, err := range pkg.Errors {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		// Log errors but continue - some packages may still be usable
		fmt.Fprintf(os.Stderr, "Warning: %d package errors encountered\n", len(errs))
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
	}

	return pkgs, nil
}

// FilterSourcePackages keeps packages that have parsed source files and
// type information, ordered by import path
func FilterSourcePackages(pkgs []*packages.Package) []*packages.Package {
	var result []*packages.Package
	for _, pkg := range pkgs {
		if len(pkg.Syntax) > 0 && pkg.Types != nil && pkg.TypesInfo != nil {
			result = append(result, pkg)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PkgPath < result[j].PkgPath
	})
	return result
}
