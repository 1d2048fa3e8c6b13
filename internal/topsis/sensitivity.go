package topsis

import "fmt"

// IndicatorSensitivity records how rankings respond to perturbing one
// indicator's weight in each direction.
type IndicatorSensitivity struct {
	Indicator     int     `json:"indicator"`
	BaseWeight    float64 `json:"base_weight"`
	MaxRankChange int     `json:"max_rank_change"`
}

// Sensitivity summarizes a weight perturbation study.
type Sensitivity struct {
	BaseRanks     []int                  `json:"base_ranks"`
	Indicators    []IndicatorSensitivity `json:"indicators"`
	MaxRankChange int                    `json:"max_rank_change"`
	MostSensitive int                    `json:"most_sensitive_indicator"`
	Stable        bool                   `json:"stable"`
}

// SensitivityAnalysis re-ranks the decision matrix with each weight
// perturbed by ±perturbation (renormalized), reporting the largest rank
// movement per indicator. A ranking is considered stable when no
// perturbation moves any alternative by more than one position.
func SensitivityAnalysis(matrix [][]float64, weights []float64, polarities []Polarity, perturbation float64) (*Sensitivity, error) {
	if perturbation <= 0 || perturbation >= 1 {
		return nil, fmt.Errorf("topsis: perturbation %g outside (0, 1)", perturbation)
	}
	base, err := Rank(matrix, weights, polarities)
	if err != nil {
		return nil, err
	}

	s := &Sensitivity{
		BaseRanks:     base.Ranks,
		Indicators:    make([]IndicatorSensitivity, len(weights)),
		MostSensitive: -1,
	}

	for j := range weights {
		maxChange := 0
		for _, dir := range []float64{1 + perturbation, 1 - perturbation} {
			perturbed := renormalize(weights, j, dir)
			r, err := Rank(matrix, perturbed, polarities)
			if err != nil {
				return nil, fmt.Errorf("topsis: sensitivity rerank for indicator %d: %w", j, err)
			}
			for i := range r.Ranks {
				if d := abs(r.Ranks[i] - base.Ranks[i]); d > maxChange {
					maxChange = d
				}
			}
		}
		s.Indicators[j] = IndicatorSensitivity{Indicator: j, BaseWeight: weights[j], MaxRankChange: maxChange}
		if maxChange > s.MaxRankChange {
			s.MaxRankChange = maxChange
			s.MostSensitive = j
		}
	}
	s.Stable = s.MaxRankChange <= 1
	return s, nil
}

func renormalize(weights []float64, idx int, factor float64) []float64 {
	out := make([]float64, len(weights))
	var sum float64
	for i, w := range weights {
		if i == idx {
			w *= factor
		}
		out[i] = w
		sum += w
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
