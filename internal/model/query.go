package model

// Declaration is a top-level declaration together with the file that holds it
type Declaration struct {
	File     *File
	Part     Part
	Position int // index inside File.Parts
}

// Declarations returns every direct part of every file in file and part order.
// Parts nested inside namespaces are not included.
func Declarations(files []*File) []Declaration {
	var decls []Declaration
	for _, f := range files {
		if f == nil {
			continue
		}
		for i, p := range f.Parts {
			if p == nil {
				continue
			}
			decls = append(decls, Declaration{File: f, Part: p, Position: i})
		}
	}
	return decls
}

// KnownTypes returns the set of top-level class, interface and enum names
func KnownTypes(files []*File) map[string]bool {
	known := make(map[string]bool)
	for _, d := range Declarations(files) {
		switch d.Part.(type) {
		case *Class, *Interface, *Enum:
			known[d.Part.NodeName()] = true
		}
	}
	return known
}

// FindClass returns the first top-level class with the given name
func FindClass(files []*File, name string) *Class {
	for _, d := range Declarations(files) {
		if c, ok := d.Part.(*Class); ok && c.Name == name {
			return c
		}
	}
	return nil
}

// FindInterface returns the first top-level interface with the given name
func FindInterface(files []*File, name string) *Interface {
	for _, d := range Declarations(files) {
		if i, ok := d.Part.(*Interface); ok && i.Name == name {
			return i
		}
	}
	return nil
}

// OnlyKind returns new files that keep only the top-level parts of the given kind.
// The input files are left untouched.
func OnlyKind(files []*File, kind Kind) []*File {
	result := make([]*File, 0, len(files))
	for _, f := range files {
		if f == nil {
			continue
		}
		view := &File{Name: f.Name}
		for _, p := range f.Parts {
			if p != nil && p.Kind() == kind {
				view.Parts = append(view.Parts, p)
			}
		}
		result = append(result, view)
	}
	return result
}
