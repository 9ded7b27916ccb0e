// Package hierarchy narrows a model to the inheritance hierarchy of one class
package hierarchy

import (
	"errors"
	"fmt"

	"github.com/zheng/cuml/internal/model"
)

var (
	// ErrTargetNotFound is returned when no top-level class has the requested name
	ErrTargetNotFound = errors.New("target class not found")
	// ErrCyclicHierarchy is returned when an extends chain loops back on itself
	ErrCyclicHierarchy = errors.New("cyclic class hierarchy")
)

// Role describes why a node is part of a focused view
type Role string

const (
	RoleTarget     Role = "target"
	RoleAncestor   Role = "ancestor"
	RoleInterface  Role = "interface"
	RoleDescendant Role = "descendant"
)

// Entry is one node of a focused view
type Entry struct {
	Part model.Part
	Role Role
}

// Focus returns the nodes needed to draw the inheritance diagram of target:
// the target, each ancestor followed by the interfaces it implements, the
// interfaces of the target and finally every descendant in depth-first order.
// Descendants are copies with their implemented interfaces cleared.
func Focus(files []*model.File, target string) ([]model.Part, error) {
	entries, err := FocusEntries(files, target)
	if err != nil {
		return nil, err
	}
	parts := make([]model.Part, len(entries))
	for i, e := range entries {
		parts[i] = e.Part
	}
	return parts, nil
}

// FocusEntries is Focus with the role of every node attached
func FocusEntries(files []*model.File, target string) ([]Entry, error) {
	root := model.FindClass(files, target)
	if root == nil {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}

	f := &focus{
		files:      files,
		classes:    map[*model.Class]bool{root: true},
		path:       map[*model.Class]bool{root: true},
		interfaces: make(map[string]bool),
	}
	f.add(root, RoleTarget)

	// Walk up the extends chain
	current := root
	for current.Extends != nil {
		parent := model.FindClass(files, current.Extends.Name)
		if parent == nil {
			break
		}
		if f.classes[parent] {
			return nil, fmt.Errorf("%w: %s extends %s", ErrCyclicHierarchy, current.Name, parent.Name)
		}
		f.classes[parent] = true
		f.add(parent, RoleAncestor)
		f.addInterfaces(parent)
		current = parent
	}

	f.addInterfaces(root)

	if err := f.descend(root); err != nil {
		return nil, err
	}

	return f.entries, nil
}

type focus struct {
	files      []*model.File
	entries    []Entry
	classes    map[*model.Class]bool
	path       map[*model.Class]bool
	interfaces map[string]bool
}

func (f *focus) add(p model.Part, role Role) {
	f.entries = append(f.entries, Entry{Part: p, Role: role})
}

// addInterfaces appends the resolvable interfaces implemented by c that are
// not in the view yet
func (f *focus) addInterfaces(c *model.Class) {
	for _, ref := range c.Implements {
		iface := model.FindInterface(f.files, ref.Name)
		if iface == nil || f.interfaces[iface.Name] {
			continue
		}
		f.interfaces[iface.Name] = true
		f.add(iface, RoleInterface)
	}
}

// descend appends every class extending parent, each followed by its own
// descendants. Classes are tracked by identity since names are not unique
// across files; a class reached twice is listed once, and only a class found
// again below itself is a cycle.
func (f *focus) descend(parent *model.Class) error {
	for _, decl := range model.Declarations(f.files) {
		c, ok := decl.Part.(*model.Class)
		if !ok || c.Extends == nil || c.Extends.Name != parent.Name {
			continue
		}
		if f.path[c] {
			return fmt.Errorf("%w: %s extends %s", ErrCyclicHierarchy, c.Name, parent.Name)
		}
		if f.classes[c] {
			continue
		}
		f.classes[c] = true
		f.add(c.WithoutImplements(), RoleDescendant)

		f.path[c] = true
		err := f.descend(c)
		delete(f.path, c)
		if err != nil {
			return err
		}
	}
	return nil
}
