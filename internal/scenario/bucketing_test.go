package scenario

import "testing"

var bucketTerms = []string{"poor", "fair", "good", "excellent"}

func TestNewBucketerValidation(t *testing.T) {
	def := BucketTable{Thresholds: []float64{0.25, 0.5, 0.75}}

	if _, err := NewBucketer(nil, BucketTable{}); err == nil {
		t.Error("expected error for empty default thresholds")
	}
	if _, err := NewBucketer(nil, BucketTable{Thresholds: []float64{0.5, 0.25}}); err == nil {
		t.Error("expected error for unsorted default thresholds")
	}
	families := map[string]BucketTable{
		"C1": {Thresholds: []float64{0.9, 0.3, 0.6}},
	}
	if _, err := NewBucketer(families, def); err == nil {
		t.Error("expected error for unsorted family thresholds")
	}
	if _, err := NewBucketer(nil, def); err != nil {
		t.Errorf("NewBucketer: %v", err)
	}
}

func TestAssessOneHot(t *testing.T) {
	b, err := NewBucketer(nil, BucketTable{Thresholds: []float64{0.25, 0.5, 0.75}})
	if err != nil {
		t.Fatalf("NewBucketer: %v", err)
	}

	tests := []struct {
		value float64
		term  string
	}{
		{0.1, "poor"},
		{0.25, "fair"}, // cut points are inclusive on the upper side
		{0.4, "fair"},
		{0.6, "good"},
		{0.75, "excellent"},
		{0.99, "excellent"},
	}
	for _, tt := range tests {
		counts, err := b.Assess("C2_1", tt.value, bucketTerms)
		if err != nil {
			t.Fatalf("Assess(%g): %v", tt.value, err)
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		if total != 1 {
			t.Errorf("Assess(%g): counts sum to %d, want one-hot", tt.value, total)
		}
		if counts[tt.term] != 1 {
			t.Errorf("Assess(%g) = %v, want %q", tt.value, counts, tt.term)
		}
	}
}

func TestAssessFamilyTable(t *testing.T) {
	families := map[string]BucketTable{
		"C3": {Thresholds: []float64{10, 20, 30}},
	}
	b, err := NewBucketer(families, BucketTable{Thresholds: []float64{0.25, 0.5, 0.75}})
	if err != nil {
		t.Fatalf("NewBucketer: %v", err)
	}

	// "C3_2" belongs to the C3 family and uses its cut points.
	counts, err := b.Assess("C3_2", 25, bucketTerms)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if counts["good"] != 1 {
		t.Errorf("family bucketing = %v, want good", counts)
	}

	// An id without a family match falls back to the default table.
	counts, err = b.Assess("C9_1", 0.9, bucketTerms)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if counts["excellent"] != 1 {
		t.Errorf("default bucketing = %v, want excellent", counts)
	}
}

func TestAssessDescending(t *testing.T) {
	// Response-time style indicator: lower values land in better terms.
	families := map[string]BucketTable{
		"C4": {Thresholds: []float64{2, 4, 6}, Descending: true},
	}
	b, err := NewBucketer(families, BucketTable{Thresholds: []float64{0.25, 0.5, 0.75}})
	if err != nil {
		t.Fatalf("NewBucketer: %v", err)
	}

	tests := []struct {
		value float64
		term  string
	}{
		{1.0, "excellent"},
		{3.0, "good"},
		{5.0, "fair"},
		{9.0, "poor"},
	}
	for _, tt := range tests {
		counts, err := b.Assess("C4_1", tt.value, bucketTerms)
		if err != nil {
			t.Fatalf("Assess(%g): %v", tt.value, err)
		}
		if counts[tt.term] != 1 {
			t.Errorf("Assess(%g) = %v, want %q", tt.value, counts, tt.term)
		}
	}
}

func TestAssessThresholdTermMismatch(t *testing.T) {
	b, err := NewBucketer(nil, BucketTable{Thresholds: []float64{0.5}})
	if err != nil {
		t.Fatalf("NewBucketer: %v", err)
	}
	if _, err := b.Assess("C1_1", 0.4, bucketTerms); err == nil {
		t.Fatal("expected error for threshold/term count mismatch")
	}
}
