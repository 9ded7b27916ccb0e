package impact

import (
	"sort"

	"github.com/zheng/cuml/internal/model"
)

// Risk levels, from the most to the least dangerous
const (
	RiskCritical = "critical"
	RiskHigh     = "high"
	RiskMedium   = "medium"
	RiskLow      = "low"
)

// RiskScore rates how risky a change of one type is
type RiskScore struct {
	Target string     `json:"target"`
	Kind   model.Kind `json:"kind"`
	File   string     `json:"file"`
	Direct int        `json:"direct"`
	Total  int        `json:"total"`
	Level  string     `json:"level"`
}

// RiskLevel maps dependent counts to a level:
//
//	critical: direct >= 20 or total >= 50
//	high:     direct >= 10 or total >= 25
//	medium:   direct >= 3 or total >= 8
func RiskLevel(direct, total int) string {
	switch {
	case direct >= 20 || total >= 50:
		return RiskCritical
	case direct >= 10 || total >= 25:
		return RiskHigh
	case direct >= 3 || total >= 8:
		return RiskMedium
	}
	return RiskLow
}

// Risk scores the report. Total counts every distinct dependent name.
func (r *ImpactReport) Risk() *RiskScore {
	seen := make(map[string]bool)
	for _, group := range [][]*Dependent{r.Referrers, r.Subclasses, r.Implementors, r.Extenders} {
		for _, d := range group {
			seen[d.Name] = true
		}
	}
	direct := len(r.Direct())
	return &RiskScore{
		Target: r.Target,
		Kind:   r.Kind,
		File:   r.File,
		Direct: direct,
		Total:  len(seen),
		Level:  RiskLevel(direct, len(seen)),
	}
}

// Rank scores every top-level class, interface and enum, riskiest first
func Rank(files []*model.File) []*RiskScore {
	var scores []*RiskScore
	seen := make(map[string]bool)
	for _, d := range model.Declarations(files) {
		switch d.Part.(type) {
		case *model.Class, *model.Interface, *model.Enum:
		default:
			continue
		}
		name := d.Part.NodeName()
		if seen[name] {
			continue
		}
		seen[name] = true
		report, err := Analyze(files, name)
		if err != nil {
			continue
		}
		scores = append(scores, report.Risk())
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].Direct > scores[j].Direct
	})
	return scores
}
