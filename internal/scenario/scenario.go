package scenario

import (
	"fmt"
	"math"
)

// Scenario captures the operational context an evaluation runs under. Its
// adjustment maps are validated, explicit records: base-value factors scale
// indicator baselines, multiplier factors scale simulation parameters, and
// objective weights bias the global indicator weights toward the scenario's
// mission objectives.
type Scenario struct {
	ID   string `json:"scenario_id" yaml:"scenario_id"`
	Type string `json:"scenario_type" yaml:"scenario_type"`

	// BaseValueFactors: indicator id -> multiplier on its baseline value.
	BaseValueFactors map[string]float64 `json:"base_value_factors,omitempty" yaml:"base_value_factors,omitempty"`
	// MultiplierFactors: simulation parameter -> importance factor.
	MultiplierFactors map[string]float64 `json:"multiplier_factors,omitempty" yaml:"multiplier_factors,omitempty"`
	// ObjectiveWeights: indicator id -> emphasis weight, applied to the
	// global weight vector and renormalized.
	ObjectiveWeights map[string]float64 `json:"objective_weights,omitempty" yaml:"objective_weights,omitempty"`

	// Objectives are the mission objectives the success score is computed
	// against. Optional; scenarios without objectives score 0.5.
	Objectives []Objective `json:"objectives,omitempty" yaml:"objectives,omitempty"`
}

// Objective ties a mission goal to an indicator and a target value.
type Objective struct {
	Indicator string  `json:"indicator" yaml:"indicator"`
	Weight    float64 `json:"weight" yaml:"weight"`
	Target    float64 `json:"target" yaml:"target"`
	// LowerIsBetter marks latency-style objectives where achievement
	// falls as the indicator value approaches the target from below.
	LowerIsBetter bool `json:"lower_is_better,omitempty" yaml:"lower_is_better,omitempty"`
}

// Validate rejects non-positive adjustment factors.
func (s Scenario) Validate() error {
	for id, f := range s.BaseValueFactors {
		if f <= 0 {
			return fmt.Errorf("scenario %q: base value factor for %q must be positive, got %g", s.ID, id, f)
		}
	}
	for param, f := range s.MultiplierFactors {
		if f <= 0 {
			return fmt.Errorf("scenario %q: multiplier factor for %q must be positive, got %g", s.ID, param, f)
		}
	}
	for id, w := range s.ObjectiveWeights {
		if w <= 0 {
			return fmt.Errorf("scenario %q: objective weight for %q must be positive, got %g", s.ID, id, w)
		}
	}
	for i, o := range s.Objectives {
		if o.Indicator == "" {
			return fmt.Errorf("scenario %q: objective %d missing indicator", s.ID, i)
		}
		if o.Weight <= 0 {
			return fmt.Errorf("scenario %q: objective %q weight must be positive, got %g", s.ID, o.Indicator, o.Weight)
		}
		if o.Target <= 0 {
			return fmt.Errorf("scenario %q: objective %q target must be positive, got %g", s.ID, o.Indicator, o.Target)
		}
	}
	return nil
}

// AdjustBaseValues applies the scenario's base-value factors to a copy of
// the baseline indicator values.
func (s Scenario) AdjustBaseValues(base map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base))
	for id, v := range base {
		if f, ok := s.BaseValueFactors[id]; ok {
			v *= f
		}
		out[id] = v
	}
	return out
}

// AdjustWeights biases the global weight vector toward the scenario's
// objectives and renormalizes so the weights still sum to 1.0.
func (s Scenario) AdjustWeights(indicatorIDs []string, weights []float64) []float64 {
	if len(s.ObjectiveWeights) == 0 {
		return weights
	}
	out := make([]float64, len(weights))
	var sum float64
	for i, id := range indicatorIDs {
		w := weights[i]
		if f, ok := s.ObjectiveWeights[id]; ok {
			w *= f
		}
		out[i] = w
		sum += w
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// SuccessScore computes mission success in [0, 1] as the weighted mean of
// per-objective achievement. Achievement is the fraction of the target
// reached, capped at 1; lower-is-better objectives invert the fraction.
// Objectives whose indicator is absent from values count as unmet.
func (s Scenario) SuccessScore(values map[string]float64) float64 {
	var total, weight float64
	for _, o := range s.Objectives {
		v := values[o.Indicator]
		var achievement float64
		if o.LowerIsBetter {
			achievement = math.Max(0, 1-v/o.Target)
		} else {
			achievement = math.Min(1, v/o.Target)
			if achievement < 0 {
				achievement = 0
			}
		}
		total += achievement * o.Weight
		weight += o.Weight
	}
	if weight == 0 {
		return 0.5
	}
	return total / weight
}
