package analyzer

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/zheng/cuml/internal/config"
	"github.com/zheng/cuml/internal/model"
)

// ExtractOptions selects which files become part of the model
type ExtractOptions struct {
	Filter     config.Filter
	Namespaces bool // wrap the declarations of each file in a namespace named after its package
}

// Extractor maps Go declarations onto the class model:
// structs become classes, interfaces stay interfaces and named basic types
// with constants become enums
type Extractor struct {
	pkgs        []*packages.Package
	projectRoot string
	projectPkgs map[string]bool
	opts        ExtractOptions
}

// NewExtractor creates an extractor over loaded packages
func NewExtractor(pkgs []*packages.Package, projectRoot string, opts ExtractOptions) *Extractor {
	pkgs = FilterSourcePackages(pkgs)

	projectPkgs := make(map[string]bool)
	for _, pkg := range pkgs {
		if pkg.PkgPath != "" {
			projectPkgs[pkg.PkgPath] = true
		}
	}

	absRoot, _ := filepath.Abs(projectRoot)

	return &Extractor{
		pkgs:        pkgs,
		projectRoot: absRoot,
		projectPkgs: projectPkgs,
		opts:        opts,
	}
}

// SourceFile is an extracted file with the package it belongs to
type SourceFile struct {
	Path    string // relative to the project root, forward slashes
	Package string
	File    *model.File
}

// Extract builds one model file per selected source file in package and
// file order
func (e *Extractor) Extract() ([]*SourceFile, error) {
	impls := e.implementations()

	var result []*SourceFile
	for _, pkg := range e.pkgs {
		ctors := constructors(pkg)
		for _, syntax := range pkg.Syntax {
			rel := e.relPath(pkg.Fset.Position(syntax.Package).Filename)
			ok, err := e.selected(rel)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			parts := e.fileParts(pkg, syntax, impls, ctors)
			if e.opts.Namespaces && len(parts) > 0 {
				parts = []model.Part{&model.Namespace{Name: pkg.Name, Parts: parts}}
			}
			result = append(result, &SourceFile{
				Path:    rel,
				Package: pkg.PkgPath,
				File:    &model.File{Name: rel, Parts: parts},
			})
		}
	}
	return result, nil
}

// Files is Extract without the package bookkeeping
func (e *Extractor) Files() ([]*model.File, error) {
	sources, err := e.Extract()
	if err != nil {
		return nil, err
	}
	files := make([]*model.File, len(sources))
	for i, s := range sources {
		files[i] = s.File
	}
	return files, nil
}

func (e *Extractor) relPath(file string) string {
	if e.projectRoot != "" {
		if rel, err := filepath.Rel(e.projectRoot, file); err == nil {
			file = rel
		}
	}
	return filepath.ToSlash(file)
}

func (e *Extractor) selected(rel string) (bool, error) {
	return e.opts.Filter.Match(rel)
}

func (e *Extractor) fileParts(pkg *packages.Package, file *ast.File, impls map[*types.TypeName][]model.Ref, ctors map[string][]*types.Func) []model.Part {
	var parts []model.Part
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.Assign.IsValid() {
				continue
			}
			obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
			if !ok {
				continue
			}
			named, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}

			switch u := named.Underlying().(type) {
			case *types.Struct:
				parts = append(parts, e.class(pkg, obj, named, u, impls[obj], ctors[obj.Name()]))
			case *types.Interface:
				parts = append(parts, e.iface(pkg, obj, named, u))
			case *types.Basic:
				if enum := e.enum(pkg, obj, named); enum != nil {
					parts = append(parts, enum)
				}
			}
		}
	}
	return parts
}

func (e *Extractor) class(pkg *packages.Package, obj *types.TypeName, named *types.Named, st *types.Struct, impls []model.Ref, ctors []*types.Func) *model.Class {
	c := &model.Class{
		Name:           obj.Name(),
		TypeParameters: e.typeParams(pkg, named.TypeParams()),
	}

	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if field.Embedded() {
			if ref, isStruct, ok := e.embeddedRef(pkg, field); ok {
				switch {
				case isStruct && c.Extends == nil:
					c.Extends = &ref
					continue
				case !isStruct:
					c.Implements = append(c.Implements, ref)
					continue
				}
			}
		}
		c.Members = append(c.Members, &model.Property{
			Name:       field.Name(),
			Modifier:   modifier(field.Name()),
			ReturnType: e.typeRef(pkg, field.Type(), field.Pos()),
		})
	}

	for _, m := range e.methods(named) {
		c.Members = append(c.Members, e.method(pkg, m))
	}

	for _, ref := range impls {
		if !hasRef(c.Implements, ref.Name) {
			c.Implements = append(c.Implements, ref)
		}
	}

	for _, fn := range ctors {
		ctor := e.method(pkg, fn)
		ctor.ReturnType = model.TypeRef{Text: c.Name, Origin: ctor.ReturnType.Origin}
		c.Constructors = append(c.Constructors, ctor)
	}

	return c
}

func (e *Extractor) iface(pkg *packages.Package, obj *types.TypeName, named *types.Named, it *types.Interface) *model.Interface {
	i := &model.Interface{
		Name:           obj.Name(),
		TypeParameters: e.typeParams(pkg, named.TypeParams()),
	}

	for j := 0; j < it.NumEmbeddeds(); j++ {
		if embedded, ok := it.EmbeddedType(j).(*types.Named); ok {
			i.Extends = append(i.Extends, model.Ref{
				Name:   embedded.Obj().Name(),
				Origin: e.origin(pkg, embedded.Obj().Pos()),
			})
		}
	}

	methods := make([]*types.Func, it.NumExplicitMethods())
	for j := range methods {
		methods[j] = it.ExplicitMethod(j)
	}
	sort.SliceStable(methods, func(a, b int) bool { return methods[a].Pos() < methods[b].Pos() })
	for _, m := range methods {
		i.Members = append(i.Members, e.method(pkg, m))
	}
	return i
}

// enum maps a named basic type to an enum when the package declares
// constants of that type
func (e *Extractor) enum(pkg *packages.Package, obj *types.TypeName, named *types.Named) *model.Enum {
	var consts []*types.Const
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if ok && types.Identical(c.Type(), named) {
			consts = append(consts, c)
		}
	}
	if len(consts) == 0 {
		return nil
	}
	sort.Slice(consts, func(i, j int) bool { return consts[i].Pos() < consts[j].Pos() })

	enum := &model.Enum{Name: obj.Name()}
	for _, c := range consts {
		enum.Values = append(enum.Values, &model.EnumValue{
			Name:     c.Name(),
			Value:    c.Val().ExactString(),
			HasValue: true,
		})
	}
	return enum
}

// embeddedRef resolves an embedded field to a project declaration. isStruct
// tells whether the embedded type is a struct (inheritance) or an
// interface (implementation).
func (e *Extractor) embeddedRef(pkg *packages.Package, field *types.Var) (ref model.Ref, isStruct bool, ok bool) {
	t := field.Type()
	if ptr, isPtr := t.(*types.Pointer); isPtr {
		t = ptr.Elem()
	}
	named, isNamed := t.(*types.Named)
	if !isNamed || named.Obj().Pkg() == nil || !e.projectPkgs[named.Obj().Pkg().Path()] {
		return model.Ref{}, false, false
	}

	ref = model.Ref{Name: named.Obj().Name(), Origin: e.origin(pkg, named.Obj().Pos())}
	switch named.Underlying().(type) {
	case *types.Struct:
		return ref, true, true
	case *types.Interface:
		return ref, false, true
	}
	return model.Ref{}, false, false
}

// methods returns the methods declared on T and *T in source order
func (e *Extractor) methods(named *types.Named) []*types.Func {
	methods := make([]*types.Func, 0, named.NumMethods())
	for i := 0; i < named.NumMethods(); i++ {
		methods = append(methods, named.Method(i))
	}
	sort.SliceStable(methods, func(i, j int) bool { return methods[i].Pos() < methods[j].Pos() })
	return methods
}

func (e *Extractor) method(pkg *packages.Package, fn *types.Func) *model.Method {
	sig := fn.Type().(*types.Signature)
	m := &model.Method{
		Name:           fn.Name(),
		Modifier:       modifier(fn.Name()),
		TypeParameters: e.typeParams(pkg, sig.TypeParams()),
		ReturnType:     model.TypeRef{Text: e.results(pkg, sig.Results()), Origin: e.origin(pkg, fn.Pos())},
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		name := p.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("p%d", i)
		}
		m.Parameters = append(m.Parameters, &model.Parameter{
			Name: name,
			Type: e.typeRef(pkg, p.Type(), p.Pos()),
		})
	}
	return m
}

func (e *Extractor) results(pkg *packages.Package, results *types.Tuple) string {
	switch results.Len() {
	case 0:
		return "void"
	case 1:
		return e.typeText(pkg, results.At(0).Type())
	}
	texts := make([]string, results.Len())
	for i := 0; i < results.Len(); i++ {
		texts[i] = e.typeText(pkg, results.At(i).Type())
	}
	return "(" + strings.Join(texts, ", ") + ")"
}

func (e *Extractor) typeParams(pkg *packages.Package, list *types.TypeParamList) []*model.TypeParameter {
	if list == nil || list.Len() == 0 {
		return nil
	}
	params := make([]*model.TypeParameter, list.Len())
	for i := 0; i < list.Len(); i++ {
		tp := list.At(i)
		params[i] = &model.TypeParameter{Name: tp.Obj().Name()}
		if constraint := e.typeText(pkg, tp.Constraint()); constraint != "any" && constraint != "interface{}" {
			params[i].Constraint = &model.TypeRef{Text: constraint}
		}
	}
	return params
}

func (e *Extractor) typeRef(pkg *packages.Package, t types.Type, pos token.Pos) model.TypeRef {
	return model.TypeRef{Text: e.typeText(pkg, t), Origin: e.origin(pkg, pos)}
}

// typeText renders a Go type the way the diagrams expect it: slices and
// arrays use an Elem[] suffix so that association cardinality can be read
// from the text, and types of the current package are unqualified
func (e *Extractor) typeText(pkg *packages.Package, t types.Type) string {
	switch t := t.(type) {
	case *types.Slice:
		return e.typeText(pkg, t.Elem()) + "[]"
	case *types.Array:
		return e.typeText(pkg, t.Elem()) + "[]"
	case *types.Pointer:
		return "*" + e.typeText(pkg, t.Elem())
	}
	return types.TypeString(t, func(other *types.Package) string {
		if other == pkg.Types {
			return ""
		}
		return other.Name()
	})
}

func (e *Extractor) origin(pkg *packages.Package, pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	p := pkg.Fset.Position(pos)
	return fmt.Sprintf("%s:%d", e.relPath(p.Filename), p.Line)
}

// constructors finds package functions named New<Type> returning Type or
// *Type, keyed by type name
func constructors(pkg *packages.Package) map[string][]*types.Func {
	ctors := make(map[string][]*types.Func)
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok || !strings.HasPrefix(name, "New") {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Results().Len() == 0 {
			continue
		}
		t := sig.Results().At(0).Type()
		if ptr, ok := t.(*types.Pointer); ok {
			t = ptr.Elem()
		}
		named, ok := t.(*types.Named)
		if !ok || named.Obj().Pkg() != pkg.Types {
			continue
		}
		if typeName := named.Obj().Name(); name == "New"+typeName || name == "New" {
			ctors[typeName] = append(ctors[typeName], fn)
		}
	}
	return ctors
}

func modifier(name string) model.Modifier {
	if token.IsExported(name) {
		return model.ModifierPublic
	}
	return model.ModifierPrivate
}

func hasRef(refs []model.Ref, name string) bool {
	for _, r := range refs {
		if r.Name == name {
			return true
		}
	}
	return false
}
