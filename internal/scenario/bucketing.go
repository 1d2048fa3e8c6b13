package scenario

import (
	"fmt"
	"sort"
	"strings"
)

// BucketTable maps a quantitative indicator value onto a one-hot linguistic
// assessment. Thresholds are ascending cut points: a scale with n terms
// takes n-1 thresholds. Descending tables serve families where lower values
// are better (response times, latencies): the term order is reversed before
// bucketing.
type BucketTable struct {
	Thresholds []float64 `json:"thresholds" yaml:"thresholds"`
	Descending bool      `json:"descending,omitempty" yaml:"descending,omitempty"`
}

// Bucketer converts quantitative indicator values into synthetic linguistic
// assessments for configurations without real expert input. Cut points are
// configured per indicator family rather than hard-coded; the family of an
// indicator id like "C1_2" is its prefix "C1".
type Bucketer struct {
	Families map[string]BucketTable `json:"families" yaml:"families"`
	Default  BucketTable            `json:"default" yaml:"default"`
}

// NewBucketer validates threshold ordering in every table.
func NewBucketer(families map[string]BucketTable, def BucketTable) (*Bucketer, error) {
	check := func(name string, t BucketTable) error {
		if len(t.Thresholds) == 0 {
			return fmt.Errorf("bucketer: table %q has no thresholds", name)
		}
		if !sort.Float64sAreSorted(t.Thresholds) {
			return fmt.Errorf("bucketer: table %q thresholds not ascending", name)
		}
		return nil
	}
	if err := check("default", def); err != nil {
		return nil, err
	}
	for name, t := range families {
		if err := check(name, t); err != nil {
			return nil, err
		}
	}
	return &Bucketer{Families: families, Default: def}, nil
}

// Assess buckets a quantitative value into a one-hot count map over the
// given term order (worst to best).
func (b *Bucketer) Assess(indicatorID string, value float64, terms []string) (map[string]int, error) {
	table := b.Default
	if t, ok := b.Families[family(indicatorID)]; ok {
		table = t
	}
	if len(table.Thresholds) != len(terms)-1 {
		return nil, fmt.Errorf("bucketer: %d thresholds for %d terms (indicator %q)",
			len(table.Thresholds), len(terms), indicatorID)
	}

	bucket := len(table.Thresholds)
	for i, cut := range table.Thresholds {
		if value < cut {
			bucket = i
			break
		}
	}
	if table.Descending {
		bucket = len(terms) - 1 - bucket
	}

	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term] = 0
	}
	counts[terms[bucket]] = 1
	return counts, nil
}

// family extracts the indicator family from an id such as "C1_2" -> "C1".
func family(indicatorID string) string {
	if idx := strings.IndexByte(indicatorID, '_'); idx > 0 {
		return indicatorID[:idx]
	}
	return indicatorID
}
