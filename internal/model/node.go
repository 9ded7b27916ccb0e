package model

// Kind represents the type of a node in the composite model
type Kind string

const (
	KindFile          Kind = "file"
	KindNamespace     Kind = "namespace"
	KindClass         Kind = "class"
	KindInterface     Kind = "interface"
	KindEnum          Kind = "enum"
	KindEnumValue     Kind = "enum_value"
	KindMethod        Kind = "method"
	KindProperty      Kind = "property"
	KindParameter     Kind = "parameter"
	KindTypeParameter Kind = "type_parameter"
)

// Modifier is the visibility of a member. The zero value means public.
type Modifier string

const (
	ModifierPublic    Modifier = "public"
	ModifierPrivate   Modifier = "private"
	ModifierProtected Modifier = "protected"
)

// Valid reports whether m is one of the known modifiers (or unset)
func (m Modifier) Valid() bool {
	switch m {
	case "", ModifierPublic, ModifierPrivate, ModifierProtected:
		return true
	}
	return false
}

// Node is implemented by every element of the composite model.
// The set of implementations is closed: only this package can add one.
type Node interface {
	Kind() Kind
	NodeName() string
	node()
}

// Part is a node that can appear directly inside a File or a Namespace
type Part interface {
	Node
	part()
}

// Member is a node that can appear in the body of a Class or an Interface
type Member interface {
	Node
	// Type returns the declared type of a property or the return type of a method
	Type() TypeRef
	member()
}

// Ref is a by-value reference to another declaration (extends/implements).
// It is resolved by exact name match, and may not resolve at all.
type Ref struct {
	Name   string `msgpack:"n" json:"name"`
	Origin string `msgpack:"o,omitempty" json:"origin,omitempty"`
}

// TypeRef is an opaque type descriptor produced by the extractor
type TypeRef struct {
	Text   string `msgpack:"t" json:"text"`
	Origin string `msgpack:"o,omitempty" json:"origin,omitempty"`
}

// File is the root container for the declarations of one source file
type File struct {
	Name  string
	Parts []Part
}

// Namespace is a nested scope holding further parts
type Namespace struct {
	Name  string
	Parts []Part
}

// Class represents a class declaration
type Class struct {
	Name           string
	IsAbstract     bool
	IsStatic       bool
	Extends        *Ref
	Implements     []Ref
	TypeParameters []*TypeParameter
	Constructors   []*Method
	Members        []Member
}

// Interface represents an interface declaration
type Interface struct {
	Name           string
	Extends        []Ref
	TypeParameters []*TypeParameter
	Members        []Member
}

// Enum represents an enum declaration
type Enum struct {
	Name   string       `msgpack:"n"`
	Values []*EnumValue `msgpack:"v,omitempty"`
}

// EnumValue is a single enum member with an optional literal value
type EnumValue struct {
	Name     string `msgpack:"n"`
	Value    string `msgpack:"v,omitempty"`
	HasValue bool   `msgpack:"h,omitempty"`
}

// Method represents a method (or constructor) signature
type Method struct {
	Name           string           `msgpack:"n"`
	Modifier       Modifier         `msgpack:"m,omitempty"`
	IsAbstract     bool             `msgpack:"a,omitempty"`
	IsStatic       bool             `msgpack:"s,omitempty"`
	IsOptional     bool             `msgpack:"q,omitempty"`
	IsAsync        bool             `msgpack:"y,omitempty"`
	Parameters     []*Parameter     `msgpack:"p,omitempty"`
	TypeParameters []*TypeParameter `msgpack:"tp,omitempty"`
	ReturnType     TypeRef          `msgpack:"r"`
}

// Property represents a field or property signature
type Property struct {
	Name       string   `msgpack:"n"`
	Modifier   Modifier `msgpack:"m,omitempty"`
	IsAbstract bool     `msgpack:"a,omitempty"`
	IsStatic   bool     `msgpack:"s,omitempty"`
	IsOptional bool     `msgpack:"q,omitempty"`
	IsReadonly bool     `msgpack:"ro,omitempty"`
	ReturnType TypeRef  `msgpack:"r"`
}

// Parameter is a method parameter. HasInitializer renders like IsOptional.
type Parameter struct {
	Name           string  `msgpack:"n"`
	Type           TypeRef `msgpack:"t"`
	IsOptional     bool    `msgpack:"q,omitempty"`
	HasInitializer bool    `msgpack:"i,omitempty"`
}

// TypeParameter is a generic parameter with an optional constraint
type TypeParameter struct {
	Name       string   `msgpack:"n"`
	Constraint *TypeRef `msgpack:"c,omitempty"`
}

func (*File) Kind() Kind          { return KindFile }
func (*Namespace) Kind() Kind     { return KindNamespace }
func (*Class) Kind() Kind         { return KindClass }
func (*Interface) Kind() Kind     { return KindInterface }
func (*Enum) Kind() Kind          { return KindEnum }
func (*EnumValue) Kind() Kind     { return KindEnumValue }
func (*Method) Kind() Kind        { return KindMethod }
func (*Property) Kind() Kind      { return KindProperty }
func (*Parameter) Kind() Kind     { return KindParameter }
func (*TypeParameter) Kind() Kind { return KindTypeParameter }

func (n *File) NodeName() string          { return n.Name }
func (n *Namespace) NodeName() string     { return n.Name }
func (n *Class) NodeName() string         { return n.Name }
func (n *Interface) NodeName() string     { return n.Name }
func (n *Enum) NodeName() string          { return n.Name }
func (n *EnumValue) NodeName() string     { return n.Name }
func (n *Method) NodeName() string        { return n.Name }
func (n *Property) NodeName() string      { return n.Name }
func (n *Parameter) NodeName() string     { return n.Name }
func (n *TypeParameter) NodeName() string { return n.Name }

func (*File) node()          {}
func (*Namespace) node()     {}
func (*Class) node()         {}
func (*Interface) node()     {}
func (*Enum) node()          {}
func (*EnumValue) node()     {}
func (*Method) node()        {}
func (*Property) node()      {}
func (*Parameter) node()     {}
func (*TypeParameter) node() {}

func (*Namespace) part() {}
func (*Class) part()     {}
func (*Interface) part() {}
func (*Enum) part()      {}

func (m *Method) Type() TypeRef   { return m.ReturnType }
func (p *Property) Type() TypeRef { return p.ReturnType }

func (*Method) member()   {}
func (*Property) member() {}

// ImplementsNames returns the names of the implemented interfaces in order
func (c *Class) ImplementsNames() []string {
	return refNames(c.Implements)
}

// ExtendsNames returns the names of the extended interfaces in order
func (i *Interface) ExtendsNames() []string {
	return refNames(i.Extends)
}

// WithoutImplements returns a shallow copy of the class with no implemented interfaces
func (c *Class) WithoutImplements() *Class {
	clone := *c
	clone.Implements = nil
	return &clone
}

func refNames(refs []Ref) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return names
}
