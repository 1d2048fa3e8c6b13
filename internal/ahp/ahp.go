// Package ahp derives priority weights from pairwise comparison matrices
// using Saaty's eigenvalue method, with consistency validation.
package ahp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// MinOrder and MaxOrder bound the accepted judgment matrix size.
	MinOrder = 2
	MaxOrder = 15

	// CRThreshold is the maximum acceptable consistency ratio.
	CRThreshold = 0.1

	reciprocalTolerance = 1e-6
)

// riTable holds Saaty's Random Index constants indexed by matrix order.
// RI[1] = RI[2] = 0 by definition.
var riTable = [MaxOrder + 1]float64{
	0, 0.00, 0.00, 0.58, 0.90, 1.12, 1.24, 1.32, 1.41, 1.45, 1.49,
	1.51, 1.48, 1.56, 1.57, 1.59,
}

// Matrix is an expert pairwise comparison judgment matrix.
type Matrix struct {
	ID      string      `json:"matrix_id" yaml:"matrix_id"`
	Entries [][]float64 `json:"matrix" yaml:"matrix"`
}

// Order returns the matrix dimension.
func (m Matrix) Order() int { return len(m.Entries) }

// Result carries the derived weights and consistency metrics for one matrix.
type Result struct {
	MatrixID  string    `json:"matrix_id"`
	Weights   []float64 `json:"weights"`
	LambdaMax float64   `json:"lambda_max"`
	CI        float64   `json:"ci"`
	CR        float64   `json:"cr"`
	Valid     bool      `json:"valid"`
}

// ValidationError reports a structural defect in a judgment matrix,
// identifying the offending field and cell.
type ValidationError struct {
	MatrixID string
	Field    string
	Row, Col int
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("matrix %q: %s at [%d][%d]: %s", e.MatrixID, e.Field, e.Row, e.Col, e.Reason)
	}
	return fmt.Sprintf("matrix %q: %s: %s", e.MatrixID, e.Field, e.Reason)
}

// ConsistencyError reports a matrix whose consistency ratio exceeds the
// acceptance threshold. It is never silently absorbed: callers reject the
// matrix outright.
type ConsistencyError struct {
	MatrixID string
	CR       float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("matrix %q: consistency ratio %.4f exceeds threshold %.2f", e.MatrixID, e.CR, CRThreshold)
}

// Validate checks the structural properties of a judgment matrix: square,
// order within [MinOrder, MaxOrder], all entries positive and finite, unit
// diagonal, and the reciprocal property A[i][j]*A[j][i] ~= 1.
func Validate(m Matrix) error {
	n := m.Order()
	if n < MinOrder || n > MaxOrder {
		return &ValidationError{MatrixID: m.ID, Field: "order", Row: -1, Col: -1,
			Reason: fmt.Sprintf("order %d outside [%d, %d]", n, MinOrder, MaxOrder)}
	}
	for i, row := range m.Entries {
		if len(row) != n {
			return &ValidationError{MatrixID: m.ID, Field: "shape", Row: i, Col: -1,
				Reason: fmt.Sprintf("row has %d entries, expected %d", len(row), n)}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.Entries[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ValidationError{MatrixID: m.ID, Field: "entry", Row: i, Col: j, Reason: "not finite"}
			}
			if v <= 0 {
				return &ValidationError{MatrixID: m.ID, Field: "entry", Row: i, Col: j,
					Reason: fmt.Sprintf("must be positive, got %g", v)}
			}
		}
	}
	for i := 0; i < n; i++ {
		if math.Abs(m.Entries[i][i]-1.0) > reciprocalTolerance {
			return &ValidationError{MatrixID: m.ID, Field: "diagonal", Row: i, Col: i,
				Reason: fmt.Sprintf("must be 1.0, got %g", m.Entries[i][i])}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.Entries[i][j]*m.Entries[j][i]-1.0) > reciprocalTolerance {
				return &ValidationError{MatrixID: m.ID, Field: "reciprocal", Row: i, Col: j,
					Reason: fmt.Sprintf("A[%d][%d]*A[%d][%d] = %g, expected 1.0", i, j, j, i,
						m.Entries[i][j]*m.Entries[j][i])}
			}
		}
	}
	return nil
}

// CalculateWeights computes the normalized priority vector of a validated
// judgment matrix via its dominant eigenvector, along with lambda_max, the
// consistency index, and the consistency ratio. The eigenvalue of maximal
// real part is selected so that negligible imaginary residue from the
// numeric solver is tolerated.
//
// A result with Valid=false (CR >= CRThreshold) is returned without error;
// callers enforce the hard gate via RequireConsistent.
func CalculateWeights(m Matrix) (Result, error) {
	if err := Validate(m); err != nil {
		return Result{}, err
	}
	n := m.Order()

	dense := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dense.Set(i, j, m.Entries[i][j])
		}
	}

	var eig mat.Eigen
	if ok := eig.Factorize(dense, mat.EigenRight); !ok {
		return Result{}, fmt.Errorf("matrix %q: eigendecomposition failed", m.ID)
	}

	values := eig.Values(nil)
	maxIdx := 0
	for i, v := range values {
		if real(v) > real(values[maxIdx]) {
			maxIdx = i
		}
	}
	lambdaMax := real(values[maxIdx])

	var vectors mat.CDense
	eig.VectorsTo(&vectors)

	weights := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		// Principal eigenvector of a positive matrix is sign-coherent;
		// take magnitudes to drop the solver's arbitrary sign.
		weights[i] = math.Abs(real(vectors.At(i, maxIdx)))
		sum += weights[i]
	}
	if sum == 0 {
		return Result{}, fmt.Errorf("matrix %q: degenerate principal eigenvector", m.ID)
	}
	for i := range weights {
		weights[i] /= sum
	}

	ci := 0.0
	if n > 2 {
		ci = (lambdaMax - float64(n)) / float64(n-1)
		if math.Abs(ci) < 1e-12 {
			ci = 0
		}
	}
	cr := 0.0
	if ri := riTable[n]; ri > 0 {
		cr = ci / ri
	}

	return Result{
		MatrixID:  m.ID,
		Weights:   weights,
		LambdaMax: lambdaMax,
		CI:        ci,
		CR:        cr,
		Valid:     cr < CRThreshold,
	}, nil
}

// RequireConsistent enforces the CR < 0.1 hard gate on a computed result.
func RequireConsistent(r Result) error {
	if !r.Valid {
		return &ConsistencyError{MatrixID: r.MatrixID, CR: r.CR}
	}
	return nil
}
