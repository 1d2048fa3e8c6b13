// Package topsis ranks alternatives by relative closeness to ideal and
// anti-ideal reference vectors.
package topsis

import (
	"fmt"
	"math"
	"sort"
)

// Polarity declares whether higher indicator values are better (benefit)
// or worse (cost).
type Polarity string

const (
	Benefit Polarity = "benefit"
	Cost    Polarity = "cost"
)

const (
	weightSumTolerance = 1e-6
	zeroNormEpsilon    = 1e-12
	tieTolerance       = 1e-9
)

// Result carries every intermediate and final product of one ranking.
type Result struct {
	Normalized [][]float64 `json:"normalized_matrix"`
	Weighted   [][]float64 `json:"weighted_matrix"`
	PIS        []float64   `json:"pis"`
	NIS        []float64   `json:"nis"`
	DPlus      []float64   `json:"d_plus"`
	DMinus     []float64   `json:"d_minus"`
	Ci         []float64   `json:"ci"`
	Ranks      []int       `json:"ranks"`

	// Degenerate lists indicator columns whose Euclidean norm was ~0;
	// those columns are zeroed instead of divided.
	Degenerate []int `json:"degenerate_indicators,omitempty"`
	// Tied marks rows whose Ci equals another row's within 1e-9.
	Tied []bool `json:"tied"`
	// Undetermined marks rows coinciding with both reference vectors,
	// which receive Ci = 0.5 by definition.
	Undetermined []bool `json:"undetermined"`
}

// Rank executes the TOPSIS pipeline: vector normalization, weighting,
// PIS/NIS identification, distance computation and closeness ranking.
// Rows equal within tieTolerance share a rank (competition ranking).
func Rank(matrix [][]float64, weights []float64, polarities []Polarity) (*Result, error) {
	m := len(matrix)
	if m < 2 {
		return nil, fmt.Errorf("topsis: need at least 2 alternatives, got %d", m)
	}
	k := len(matrix[0])
	if k < 1 {
		return nil, fmt.Errorf("topsis: need at least 1 indicator")
	}
	for i, row := range matrix {
		if len(row) != k {
			return nil, fmt.Errorf("topsis: row %d has %d values, expected %d", i, len(row), k)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("topsis: non-finite value at [%d][%d]", i, j)
			}
		}
	}
	if len(weights) != k {
		return nil, fmt.Errorf("topsis: %d weights for %d indicators", len(weights), k)
	}
	var wsum float64
	for j, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("topsis: negative weight %g at index %d", w, j)
		}
		wsum += w
	}
	if math.Abs(wsum-1.0) > weightSumTolerance {
		return nil, fmt.Errorf("topsis: weights sum to %.8f, expected 1.0 ± %g", wsum, weightSumTolerance)
	}
	if len(polarities) != k {
		return nil, fmt.Errorf("topsis: %d polarities for %d indicators", len(polarities), k)
	}
	for j, p := range polarities {
		if p != Benefit && p != Cost {
			return nil, fmt.Errorf("topsis: invalid polarity %q at index %d", p, j)
		}
	}

	res := &Result{
		Normalized:   newMatrix(m, k),
		Weighted:     newMatrix(m, k),
		PIS:          make([]float64, k),
		NIS:          make([]float64, k),
		DPlus:        make([]float64, m),
		DMinus:       make([]float64, m),
		Ci:           make([]float64, m),
		Ranks:        make([]int, m),
		Tied:         make([]bool, m),
		Undetermined: make([]bool, m),
	}

	// Column-wise vector normalization; ~zero-norm columns are flagged
	// degenerate and zeroed rather than divided.
	for j := 0; j < k; j++ {
		var norm float64
		for i := 0; i < m; i++ {
			norm += matrix[i][j] * matrix[i][j]
		}
		norm = math.Sqrt(norm)
		if norm < zeroNormEpsilon {
			res.Degenerate = append(res.Degenerate, j)
			continue
		}
		for i := 0; i < m; i++ {
			res.Normalized[i][j] = matrix[i][j] / norm
		}
	}

	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			res.Weighted[i][j] = res.Normalized[i][j] * weights[j]
		}
	}

	for j := 0; j < k; j++ {
		colMin, colMax := res.Weighted[0][j], res.Weighted[0][j]
		for i := 1; i < m; i++ {
			v := res.Weighted[i][j]
			colMin = math.Min(colMin, v)
			colMax = math.Max(colMax, v)
		}
		if polarities[j] == Benefit {
			res.PIS[j], res.NIS[j] = colMax, colMin
		} else {
			res.PIS[j], res.NIS[j] = colMin, colMax
		}
	}

	for i := 0; i < m; i++ {
		var dPlus, dMinus float64
		for j := 0; j < k; j++ {
			dp := res.Weighted[i][j] - res.PIS[j]
			dn := res.Weighted[i][j] - res.NIS[j]
			dPlus += dp * dp
			dMinus += dn * dn
		}
		res.DPlus[i] = math.Sqrt(dPlus)
		res.DMinus[i] = math.Sqrt(dMinus)

		denom := res.DPlus[i] + res.DMinus[i]
		if denom < zeroNormEpsilon {
			res.Ci[i] = 0.5
			res.Undetermined[i] = true
		} else {
			res.Ci[i] = res.DMinus[i] / denom
		}
	}

	assignRanks(res)
	return res, nil
}

// assignRanks orders rows by descending Ci; rows equal within tieTolerance
// receive the same rank and are flagged.
func assignRanks(res *Result) {
	order := make([]int, len(res.Ci))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return res.Ci[order[a]] > res.Ci[order[b]]
	})

	rank := 1
	for pos, idx := range order {
		if pos > 0 {
			prev := order[pos-1]
			if math.Abs(res.Ci[idx]-res.Ci[prev]) <= tieTolerance {
				res.Ranks[idx] = res.Ranks[prev]
				res.Tied[idx] = true
				res.Tied[prev] = true
				rank++
				continue
			}
		}
		res.Ranks[idx] = rank
		rank++
	}
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
