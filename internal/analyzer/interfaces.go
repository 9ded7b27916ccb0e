package analyzer

import (
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/zheng/cuml/internal/model"
)

// declared is a named project type with the package it lives in
type declared struct {
	pkg   *packages.Package
	obj   *types.TypeName
	named *types.Named
}

// implementations finds, for every project struct, the project interfaces
// that T or *T satisfies. Empty interfaces and generic declarations are
// skipped: the former match everything and the latter cannot be checked
// without instantiation.
func (e *Extractor) implementations() map[*types.TypeName][]model.Ref {
	var interfaces, structs []declared

	for _, pkg := range e.pkgs {
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			typeName, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || typeName.IsAlias() {
				continue
			}
			named, ok := typeName.Type().(*types.Named)
			if !ok || named.TypeParams().Len() > 0 {
				continue
			}

			switch u := named.Underlying().(type) {
			case *types.Interface:
				if u.NumMethods() > 0 {
					interfaces = append(interfaces, declared{pkg, typeName, named})
				}
			case *types.Struct:
				structs = append(structs, declared{pkg, typeName, named})
			}
		}
	}

	// Keep the implements list in declaration order of the interfaces
	sort.SliceStable(interfaces, func(i, j int) bool {
		if interfaces[i].pkg.PkgPath != interfaces[j].pkg.PkgPath {
			return interfaces[i].pkg.PkgPath < interfaces[j].pkg.PkgPath
		}
		return interfaces[i].obj.Pos() < interfaces[j].obj.Pos()
	})

	impls := make(map[*types.TypeName][]model.Ref)
	for _, st := range structs {
		for _, iface := range interfaces {
			ifaceType := iface.named.Underlying().(*types.Interface)

			// Check if T or *T implements I
			if types.Implements(st.named, ifaceType) || types.Implements(types.NewPointer(st.named), ifaceType) {
				impls[st.obj] = append(impls[st.obj], model.Ref{
					Name:   iface.obj.Name(),
					Origin: e.origin(iface.pkg, iface.obj.Pos()),
				})
			}
		}
	}
	return impls
}
