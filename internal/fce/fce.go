// Package fce converts discrete linguistic expert assessments into
// continuous scores via fuzzy comprehensive evaluation.
package fce

import (
	"fmt"
	"math"
)

// MembershipTolerance bounds the accepted deviation of the membership
// vector sum from 1.0.
const MembershipTolerance = 1e-3

// Scale is an ordered linguistic scale: each term maps to a crisp value,
// and values are strictly increasing within [0, 1].
type Scale struct {
	Terms  []string  `json:"terms" yaml:"terms"`
	Values []float64 `json:"values" yaml:"values"`
}

// NewScale validates and builds a linguistic scale.
func NewScale(terms []string, values []float64) (Scale, error) {
	if len(terms) == 0 {
		return Scale{}, fmt.Errorf("fuzzy scale: no terms")
	}
	if len(terms) != len(values) {
		return Scale{}, fmt.Errorf("fuzzy scale: %d terms but %d values", len(terms), len(values))
	}
	seen := make(map[string]bool, len(terms))
	for i, term := range terms {
		if seen[term] {
			return Scale{}, fmt.Errorf("fuzzy scale: duplicate term %q", term)
		}
		seen[term] = true
		v := values[i]
		if v < 0 || v > 1 {
			return Scale{}, fmt.Errorf("fuzzy scale: value for %q is %g, must be in [0, 1]", term, v)
		}
		if i > 0 && v <= values[i-1] {
			return Scale{}, fmt.Errorf("fuzzy scale: values must be strictly increasing, %q (%g) <= %q (%g)",
				term, v, terms[i-1], values[i-1])
		}
	}
	return Scale{Terms: terms, Values: values}, nil
}

// DefaultScale is the four-level scale the evaluation hierarchy ships with.
func DefaultScale() Scale {
	return Scale{
		Terms:  []string{"poor", "fair", "good", "excellent"},
		Values: []float64{0.25, 0.50, 0.75, 1.00},
	}
}

// Result is the outcome of one fuzzy evaluation.
type Result struct {
	Membership     []float64      `json:"membership_vector"`
	Score          float64        `json:"fuzzy_score"`
	Consensus      float64        `json:"consensus_level"`
	TotalAssessors int            `json:"total_assessors"`
	Distribution   map[string]int `json:"assessment_distribution"`
}

// MembershipError reports a membership vector whose sum falls outside
// tolerance of 1.0.
type MembershipError struct {
	Sum float64
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("membership degrees sum to %.6f, expected 1.0 ± %g", e.Sum, MembershipTolerance)
}

// Evaluate converts per-term assessor counts into a membership vector,
// defuzzified score, and consensus level. Consensus is 1 minus the
// normalized entropy of the membership distribution: a single dominant
// term yields consensus 1.0.
func Evaluate(counts map[string]int, scale Scale) (Result, error) {
	if len(counts) == 0 {
		return Result{}, fmt.Errorf("fce: no assessments")
	}
	known := make(map[string]bool, len(scale.Terms))
	for _, term := range scale.Terms {
		known[term] = true
	}
	for term, c := range counts {
		if !known[term] {
			return Result{}, fmt.Errorf("fce: term %q not in scale", term)
		}
		if c < 0 {
			return Result{}, fmt.Errorf("fce: negative count %d for term %q", c, term)
		}
	}

	total := 0
	ordered := make([]float64, len(scale.Terms))
	dist := make(map[string]int, len(scale.Terms))
	for i, term := range scale.Terms {
		c := counts[term]
		ordered[i] = float64(c)
		dist[term] = c
		total += c
	}
	if total == 0 {
		return Result{}, fmt.Errorf("fce: total assessor count is zero")
	}

	membership := make([]float64, len(ordered))
	var sum, score float64
	for i, c := range ordered {
		membership[i] = c / float64(total)
		sum += membership[i]
		score += membership[i] * scale.Values[i]
	}
	if math.Abs(sum-1.0) > MembershipTolerance {
		return Result{}, &MembershipError{Sum: sum}
	}

	return Result{
		Membership:     membership,
		Score:          score,
		Consensus:      consensus(membership),
		TotalAssessors: total,
		Distribution:   dist,
	}, nil
}

// Aggregate sums assessments from multiple assessors term-by-term and
// evaluates the combined distribution.
func Aggregate(assessors []map[string]int, scale Scale) (Result, error) {
	if len(assessors) == 0 {
		return Result{}, fmt.Errorf("fce: no assessors")
	}
	combined := make(map[string]int)
	for _, counts := range assessors {
		for term, c := range counts {
			if c < 0 {
				return Result{}, fmt.Errorf("fce: negative count %d for term %q", c, term)
			}
			combined[term] += c
		}
	}
	return Evaluate(combined, scale)
}

// consensus rescales the entropy of the membership distribution to [0, 1]
// and inverts it: 0 = assessors spread uniformly, 1 = unanimous.
func consensus(membership []float64) float64 {
	if len(membership) < 2 {
		return 1.0
	}
	var entropy float64
	for _, p := range membership {
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	maxEntropy := math.Log(float64(len(membership)))
	c := 1.0 - entropy/maxEntropy
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c
}
