package fce

import (
	"errors"
	"math"
	"testing"
)

func TestEvaluateDefaultScale(t *testing.T) {
	// 5 assessors: 1 fair, 3 good, 1 excellent.
	counts := map[string]int{"fair": 1, "good": 3, "excellent": 1}

	res, err := Evaluate(counts, DefaultScale())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	wantMembership := []float64{0, 0.2, 0.6, 0.2}
	for i, m := range res.Membership {
		if math.Abs(m-wantMembership[i]) > 1e-12 {
			t.Errorf("membership[%d] = %v, want %v", i, m, wantMembership[i])
		}
	}
	// 0.2*0.5 + 0.6*0.75 + 0.2*1.0 = 0.75
	if math.Abs(res.Score-0.75) > 1e-12 {
		t.Errorf("score = %v, want 0.75", res.Score)
	}
	if res.TotalAssessors != 5 {
		t.Errorf("total assessors = %d, want 5", res.TotalAssessors)
	}
	if res.Consensus <= 0 || res.Consensus >= 1 {
		t.Errorf("split opinion should give consensus in (0, 1), got %v", res.Consensus)
	}
}

func TestEvaluateUnanimousConsensus(t *testing.T) {
	counts := map[string]int{"good": 7}

	res, err := Evaluate(counts, DefaultScale())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Consensus != 1.0 {
		t.Errorf("unanimous assessment: consensus = %v, want 1.0", res.Consensus)
	}
	if math.Abs(res.Score-0.75) > 1e-12 {
		t.Errorf("score = %v, want 0.75", res.Score)
	}
}

func TestEvaluateUniformSpreadConsensus(t *testing.T) {
	counts := map[string]int{"poor": 2, "fair": 2, "good": 2, "excellent": 2}

	res, err := Evaluate(counts, DefaultScale())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Consensus > 1e-12 {
		t.Errorf("uniform spread: consensus = %v, want 0", res.Consensus)
	}
}

func TestEvaluateErrors(t *testing.T) {
	scale := DefaultScale()
	tests := []struct {
		name   string
		counts map[string]int
	}{
		{"empty", map[string]int{}},
		{"unknown term", map[string]int{"stellar": 3}},
		{"negative count", map[string]int{"good": -1, "fair": 2}},
		{"all zero", map[string]int{"good": 0, "fair": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Evaluate(tt.counts, scale); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEvaluateScoreWithinScaleBounds(t *testing.T) {
	scale := DefaultScale()
	counts := map[string]int{"poor": 1, "excellent": 1}
	res, err := Evaluate(counts, scale)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Score < scale.Values[0] || res.Score > scale.Values[len(scale.Values)-1] {
		t.Errorf("score %v outside scale bounds [%v, %v]", res.Score, scale.Values[0], scale.Values[len(scale.Values)-1])
	}
}

func TestAggregateMatchesCombinedCounts(t *testing.T) {
	scale := DefaultScale()
	assessors := []map[string]int{
		{"good": 2, "excellent": 1},
		{"fair": 1, "good": 1},
		{"excellent": 2},
	}

	agg, err := Aggregate(assessors, scale)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	direct, err := Evaluate(map[string]int{"fair": 1, "good": 3, "excellent": 3}, scale)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if math.Abs(agg.Score-direct.Score) > 1e-12 {
		t.Errorf("aggregate score %v != combined score %v", agg.Score, direct.Score)
	}
	if agg.TotalAssessors != 7 {
		t.Errorf("total assessors = %d, want 7", agg.TotalAssessors)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if _, err := Aggregate(nil, DefaultScale()); err == nil {
		t.Fatal("expected error for no assessors")
	}
}

func TestNewScaleValidation(t *testing.T) {
	tests := []struct {
		name   string
		terms  []string
		values []float64
	}{
		{"length mismatch", []string{"a", "b"}, []float64{0.5}},
		{"duplicate term", []string{"a", "a"}, []float64{0.3, 0.6}},
		{"value above one", []string{"a", "b"}, []float64{0.5, 1.5}},
		{"not increasing", []string{"a", "b", "c"}, []float64{0.2, 0.8, 0.5}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScale(tt.terms, tt.values); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := NewScale([]string{"low", "high"}, []float64{0.2, 0.9}); err != nil {
		t.Fatalf("valid scale rejected: %v", err)
	}
}

func TestMembershipErrorType(t *testing.T) {
	err := error(&MembershipError{Sum: 1.2})
	var merr *MembershipError
	if !errors.As(err, &merr) {
		t.Fatal("expected MembershipError")
	}
	if merr.Sum != 1.2 {
		t.Errorf("sum = %v, want 1.2", merr.Sum)
	}
}
