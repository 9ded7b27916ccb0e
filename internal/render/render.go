// Package render turns an extracted model into a complete diagram document.
//
// Render selects the formatter for the requested dialect, narrows the model
// (only classes, only interfaces, or the hierarchy around a target class)
// and appends inferred relationships. Rendering never mutates the model, so
// one model may be rendered concurrently with different options.
package render

import (
	"errors"
	"fmt"

	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/hierarchy"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
)

// ErrConflictingFilters is returned when both kind filters are requested
var ErrConflictingFilters = errors.New("only-classes and only-interfaces are mutually exclusive")

// Options controls a single render
type Options struct {
	Dialect        format.Dialect
	Relationships  relation.Mode
	OnlyClasses    bool
	OnlyInterfaces bool
	// TargetClass focuses the diagram on one class hierarchy. It overrides
	// the kind filters and disables relationships.
	TargetClass string
}

// Render produces the diagram text for files
func Render(files []*model.File, opts Options) (string, error) {
	if err := model.Validate(files); err != nil {
		return "", err
	}

	view, fopts, mode, err := narrow(files, opts)
	if err != nil {
		return "", err
	}

	dialect := opts.Dialect
	if dialect == "" {
		dialect = format.DialectPlantUML
	}
	f, err := format.New(dialect, fopts)
	if err != nil {
		return "", err
	}

	out, err := format.RenderAll(f, view, mode)
	if err != nil {
		return "", fmt.Errorf("failed to render diagram: %w", err)
	}
	return out, nil
}

// narrow applies the view options and returns the files to render together
// with the formatter options and the effective relationship mode
func narrow(files []*model.File, opts Options) ([]*model.File, format.Options, relation.Mode, error) {
	mode := opts.Relationships
	if mode == "" {
		mode = relation.ModeNone
	}

	if opts.TargetClass != "" {
		parts, err := hierarchy.Focus(files, opts.TargetClass)
		if err != nil {
			return nil, format.Options{}, "", err
		}
		focused := []*model.File{{Name: opts.TargetClass, Parts: parts}}
		return focused, format.Options{TargetClass: opts.TargetClass}, relation.ModeNone, nil
	}

	switch {
	case opts.OnlyClasses && opts.OnlyInterfaces:
		return nil, format.Options{}, "", ErrConflictingFilters
	case opts.OnlyClasses:
		return model.OnlyKind(files, model.KindClass), format.Options{HideImplements: true}, mode, nil
	case opts.OnlyInterfaces:
		return model.OnlyKind(files, model.KindInterface), format.Options{HideImplements: true}, mode, nil
	}
	return files, format.Options{}, mode, nil
}
