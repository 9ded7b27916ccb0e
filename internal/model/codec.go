package model

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// envelope tags an encoded node with its kind so that interface-typed
// lists (parts, members) can be decoded back into concrete nodes
type envelope struct {
	Kind Kind               `msgpack:"k"`
	Body msgpack.RawMessage `msgpack:"b"`
}

type fileRecord struct {
	Name  string     `msgpack:"n"`
	Parts []envelope `msgpack:"p,omitempty"`
}

type namespaceRecord struct {
	Name  string     `msgpack:"n"`
	Parts []envelope `msgpack:"p,omitempty"`
}

type classRecord struct {
	Name           string           `msgpack:"n"`
	IsAbstract     bool             `msgpack:"a,omitempty"`
	IsStatic       bool             `msgpack:"s,omitempty"`
	Extends        *Ref             `msgpack:"e,omitempty"`
	Implements     []Ref            `msgpack:"i,omitempty"`
	TypeParameters []*TypeParameter `msgpack:"tp,omitempty"`
	Constructors   []*Method        `msgpack:"c,omitempty"`
	Members        []envelope       `msgpack:"m,omitempty"`
}

type interfaceRecord struct {
	Name           string           `msgpack:"n"`
	Extends        []Ref            `msgpack:"e,omitempty"`
	TypeParameters []*TypeParameter `msgpack:"tp,omitempty"`
	Members        []envelope       `msgpack:"m,omitempty"`
}

// Encode serializes a file and everything below it using msgpack
func Encode(f *File) ([]byte, error) {
	parts, err := encodeParts(f.Parts)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(&fileRecord{Name: f.Name, Parts: parts})
}

// Decode restores a file previously produced by Encode
func Decode(data []byte) (*File, error) {
	var rec fileRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}
	parts, err := decodeParts(rec.Parts)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", rec.Name, err)
	}
	return &File{Name: rec.Name, Parts: parts}, nil
}

func wrap(kind Kind, v any) (envelope, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	return envelope{Kind: kind, Body: body}, nil
}

func encodeParts(parts []Part) ([]envelope, error) {
	result := make([]envelope, 0, len(parts))
	for _, p := range parts {
		var env envelope
		var err error
		switch p := p.(type) {
		case *Namespace:
			var children []envelope
			children, err = encodeParts(p.Parts)
			if err != nil {
				return nil, err
			}
			env, err = wrap(KindNamespace, &namespaceRecord{Name: p.Name, Parts: children})
		case *Class:
			var members []envelope
			members, err = encodeMembers(p.Members)
			if err != nil {
				return nil, err
			}
			env, err = wrap(KindClass, &classRecord{
				Name:           p.Name,
				IsAbstract:     p.IsAbstract,
				IsStatic:       p.IsStatic,
				Extends:        p.Extends,
				Implements:     p.Implements,
				TypeParameters: p.TypeParameters,
				Constructors:   p.Constructors,
				Members:        members,
			})
		case *Interface:
			var members []envelope
			members, err = encodeMembers(p.Members)
			if err != nil {
				return nil, err
			}
			env, err = wrap(KindInterface, &interfaceRecord{
				Name:           p.Name,
				Extends:        p.Extends,
				TypeParameters: p.TypeParameters,
				Members:        members,
			})
		case *Enum:
			env, err = wrap(KindEnum, p)
		default:
			return nil, fmt.Errorf("%w: cannot encode part %T", ErrInvalidModel, p)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, env)
	}
	return result, nil
}

func encodeMembers(members []Member) ([]envelope, error) {
	result := make([]envelope, 0, len(members))
	for _, m := range members {
		switch m := m.(type) {
		case *Method, *Property:
			env, err := wrap(m.Kind(), m)
			if err != nil {
				return nil, err
			}
			result = append(result, env)
		default:
			return nil, fmt.Errorf("%w: cannot encode member %T", ErrInvalidModel, m)
		}
	}
	return result, nil
}

func decodeParts(envs []envelope) ([]Part, error) {
	var parts []Part
	for _, env := range envs {
		switch env.Kind {
		case KindNamespace:
			var rec namespaceRecord
			if err := msgpack.Unmarshal(env.Body, &rec); err != nil {
				return nil, err
			}
			children, err := decodeParts(rec.Parts)
			if err != nil {
				return nil, err
			}
			parts = append(parts, &Namespace{Name: rec.Name, Parts: children})
		case KindClass:
			var rec classRecord
			if err := msgpack.Unmarshal(env.Body, &rec); err != nil {
				return nil, err
			}
			members, err := decodeMembers(rec.Members)
			if err != nil {
				return nil, err
			}
			parts = append(parts, &Class{
				Name:           rec.Name,
				IsAbstract:     rec.IsAbstract,
				IsStatic:       rec.IsStatic,
				Extends:        rec.Extends,
				Implements:     rec.Implements,
				TypeParameters: rec.TypeParameters,
				Constructors:   rec.Constructors,
				Members:        members,
			})
		case KindInterface:
			var rec interfaceRecord
			if err := msgpack.Unmarshal(env.Body, &rec); err != nil {
				return nil, err
			}
			members, err := decodeMembers(rec.Members)
			if err != nil {
				return nil, err
			}
			parts = append(parts, &Interface{
				Name:           rec.Name,
				Extends:        rec.Extends,
				TypeParameters: rec.TypeParameters,
				Members:        members,
			})
		case KindEnum:
			var e Enum
			if err := msgpack.Unmarshal(env.Body, &e); err != nil {
				return nil, err
			}
			parts = append(parts, &e)
		default:
			return nil, fmt.Errorf("%w: unexpected part kind %q", ErrInvalidModel, env.Kind)
		}
	}
	return parts, nil
}

func decodeMembers(envs []envelope) ([]Member, error) {
	var members []Member
	for _, env := range envs {
		switch env.Kind {
		case KindMethod:
			var m Method
			if err := msgpack.Unmarshal(env.Body, &m); err != nil {
				return nil, err
			}
			members = append(members, &m)
		case KindProperty:
			var p Property
			if err := msgpack.Unmarshal(env.Body, &p); err != nil {
				return nil, err
			}
			members = append(members, &p)
		default:
			return nil, fmt.Errorf("%w: unexpected member kind %q", ErrInvalidModel, env.Kind)
		}
	}
	return members, nil
}
