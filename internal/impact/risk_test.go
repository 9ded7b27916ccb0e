package impact

import (
	"reflect"
	"testing"
)

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		direct, total int
		want          string
	}{
		{0, 0, RiskLow},
		{2, 7, RiskLow},
		{3, 3, RiskMedium},
		{1, 8, RiskMedium},
		{10, 10, RiskHigh},
		{0, 25, RiskHigh},
		{20, 20, RiskCritical},
		{1, 50, RiskCritical},
	}
	for _, tt := range tests {
		if got := RiskLevel(tt.direct, tt.total); got != tt.want {
			t.Errorf("RiskLevel(%d, %d) = %s, want %s", tt.direct, tt.total, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	scores := Rank(testFiles())

	var order []string
	for _, s := range scores {
		order = append(order, s.Target)
	}
	want := []string{"Shape", "Base", "Solid", "Circle", "Polyhedron", "Ring", "Canvas"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("Rank() order = %v, want %v", order, want)
	}

	shape := scores[0]
	if shape.Direct != 3 || shape.Total != 4 || shape.Level != RiskMedium || shape.File != "shape.ts" {
		t.Errorf("Shape score = %+v", shape)
	}
	if base := scores[1]; base.Direct != 2 || base.Total != 3 || base.Level != RiskLow {
		t.Errorf("Base score = %+v", base)
	}
}
