package model

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is wrapped by every structural problem reported by Validate
var ErrInvalidModel = errors.New("invalid model")

// Validate checks the structure of a model produced by an extractor.
// All problems found are returned joined; nil means the model is usable.
func Validate(files []*File) error {
	v := &validator{}
	for i, f := range files {
		if f == nil {
			v.addf("file #%d is nil", i)
			continue
		}
		v.parts(f.Name, f.Parts)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidModel}, args...)...))
}

func (v *validator) parts(scope string, parts []Part) {
	for i, p := range parts {
		switch p := p.(type) {
		case nil:
			v.addf("%s: part #%d is nil", scope, i)
		case *Namespace:
			if p == nil {
				v.addf("%s: part #%d is a nil namespace", scope, i)
				continue
			}
			v.name(scope, p)
			v.parts(scope+"."+p.Name, p.Parts)
		case *Class:
			if p == nil {
				v.addf("%s: part #%d is a nil class", scope, i)
				continue
			}
			v.name(scope, p)
			inner := scope + "." + p.Name
			if p.Extends != nil && p.Extends.Name == "" {
				v.addf("%s: extends reference has no name", inner)
			}
			v.refs(inner, "implements", p.Implements)
			v.typeParameters(inner, p.TypeParameters)
			for j, m := range p.Constructors {
				if m == nil {
					v.addf("%s: constructor #%d is nil", inner, j)
					continue
				}
				v.method(inner, m)
			}
			v.members(inner, p.Members)
		case *Interface:
			if p == nil {
				v.addf("%s: part #%d is a nil interface", scope, i)
				continue
			}
			v.name(scope, p)
			inner := scope + "." + p.Name
			v.refs(inner, "extends", p.Extends)
			v.typeParameters(inner, p.TypeParameters)
			v.members(inner, p.Members)
		case *Enum:
			if p == nil {
				v.addf("%s: part #%d is a nil enum", scope, i)
				continue
			}
			v.name(scope, p)
			for j, ev := range p.Values {
				if ev == nil {
					v.addf("%s.%s: value #%d is nil", scope, p.Name, j)
					continue
				}
				v.name(scope+"."+p.Name, ev)
			}
		}
	}
}

func (v *validator) members(scope string, members []Member) {
	for i, m := range members {
		switch m := m.(type) {
		case nil:
			v.addf("%s: member #%d is nil", scope, i)
		case *Method:
			if m == nil {
				v.addf("%s: member #%d is a nil method", scope, i)
				continue
			}
			v.method(scope, m)
		case *Property:
			if m == nil {
				v.addf("%s: member #%d is a nil property", scope, i)
				continue
			}
			v.name(scope, m)
			if !m.Modifier.Valid() {
				v.addf("%s.%s: unknown modifier %q", scope, m.Name, m.Modifier)
			}
		}
	}
}

func (v *validator) method(scope string, m *Method) {
	v.name(scope, m)
	if !m.Modifier.Valid() {
		v.addf("%s.%s: unknown modifier %q", scope, m.Name, m.Modifier)
	}
	for i, p := range m.Parameters {
		if p == nil {
			v.addf("%s.%s: parameter #%d is nil", scope, m.Name, i)
			continue
		}
		v.name(scope+"."+m.Name, p)
	}
	v.typeParameters(scope+"."+m.Name, m.TypeParameters)
}

func (v *validator) typeParameters(scope string, params []*TypeParameter) {
	for i, tp := range params {
		if tp == nil {
			v.addf("%s: type parameter #%d is nil", scope, i)
			continue
		}
		v.name(scope, tp)
	}
}

func (v *validator) refs(scope, what string, refs []Ref) {
	for i, r := range refs {
		if r.Name == "" {
			v.addf("%s: %s reference #%d has no name", scope, what, i)
		}
	}
}

func (v *validator) name(scope string, n Node) {
	if n.NodeName() == "" {
		v.addf("%s: %s without a name", scope, n.Kind())
	}
}
