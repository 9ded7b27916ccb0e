// Package relation infers structural relationships between declared types
// by scanning member signatures for references to other known types.
package relation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/typeref"
)

// ErrUnknownMode is returned by ParseMode for unsupported values
var ErrUnknownMode = errors.New("unknown relationship mode")

// Mode selects how inferred relationships are keyed and drawn
type Mode string

const (
	ModeNone        Mode = "none"
	ModeComposition Mode = "composition"
	ModeAssociation Mode = "association"
)

// ParseMode converts user input into a Mode. An empty string means ModeNone.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeComposition:
		return ModeComposition, nil
	case ModeAssociation:
		return ModeAssociation, nil
	}
	return ModeNone, fmt.Errorf("%w: %q (expected none, composition or association)", ErrUnknownMode, s)
}

// Edge is an inferred relationship from one declaration to another
type Edge struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Cardinality string `json:"cardinality"` // "1" or "*"; always "1" in composition mode
}

// Infer returns the deduplicated relationship edges of the model in
// first-seen order (file, part, member, candidate). Only classes and
// interfaces that are direct parts of a file act as sources, and only
// top-level class, interface and enum names are valid targets.
func Infer(files []*model.File, mode Mode) []Edge {
	if mode != ModeComposition && mode != ModeAssociation {
		return nil
	}

	known := model.KnownTypes(files)
	if len(known) == 0 {
		return nil
	}

	var edges []Edge
	seen := make(map[string]bool)

	for _, decl := range model.Declarations(files) {
		var owner string
		var members []model.Member
		switch p := decl.Part.(type) {
		case *model.Class:
			owner, members = p.Name, p.Members
		case *model.Interface:
			owner, members = p.Name, p.Members
		default:
			continue
		}

		for _, member := range members {
			if member == nil {
				continue
			}
			for _, c := range candidates(member, mode) {
				if c.Name == owner || !known[c.Name] {
					continue
				}

				edge := Edge{From: owner, To: c.Name, Cardinality: c.Cardinality}
				if mode == ModeComposition {
					edge.Cardinality = typeref.CardinalityOne
				}

				key := edgeKey(edge, mode)
				if seen[key] {
					continue
				}
				seen[key] = true
				edges = append(edges, edge)
			}
		}
	}

	return edges
}

// candidates collects the type names referenced by a member: for methods the
// type of every parameter first (never in array mode), then the declared or
// return type
func candidates(member model.Member, mode Mode) []typeref.Candidate {
	var checks []typeref.Candidate
	if m, ok := member.(*model.Method); ok {
		for _, p := range m.Parameters {
			if p == nil {
				continue
			}
			checks = append(checks, typeref.Scan(p.Type.Text, false)...)
		}
	}
	return append(checks, typeref.Scan(member.Type().Text, mode == ModeAssociation)...)
}

func edgeKey(e Edge, mode Mode) string {
	if mode == ModeComposition {
		return e.From + " " + e.To
	}
	return e.From + " " + e.Cardinality + " " + e.To
}
