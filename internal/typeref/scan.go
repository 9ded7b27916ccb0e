// Package typeref extracts candidate type names from type descriptor text.
//
// The scan is lexical: every identifier in the text is a candidate, including
// generic arguments, union members and identifiers that only happen to share
// a name with a declared type. Callers narrow candidates against the set of
// known declarations; the remaining imprecision is accepted.
package typeref

import (
	"regexp"
	"strings"
)

const (
	// CardinalityOne marks a scalar reference
	CardinalityOne = "1"
	// CardinalityMany marks a reference written with an array suffix
	CardinalityMany = "*"
)

var (
	reTypeNames          = regexp.MustCompile(`\w+`)
	reTypeNamesWithArray = regexp.MustCompile(`\w+(?:\[\])?`)
)

// Candidate is a type name found in a descriptor with its cardinality
type Candidate struct {
	Name        string
	Cardinality string
}

// Scan returns every identifier in text in order of appearance.
// With arrays set, an identifier directly followed by "[]" is reported
// without the suffix and with CardinalityMany.
func Scan(text string, arrays bool) []Candidate {
	re := reTypeNames
	if arrays {
		re = reTypeNamesWithArray
	}

	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		c := Candidate{Name: m, Cardinality: CardinalityOne}
		if name, ok := strings.CutSuffix(m, "[]"); ok {
			c.Name = name
			c.Cardinality = CardinalityMany
		}
		candidates = append(candidates, c)
	}
	return candidates
}
