package scenario

import (
	"fmt"
	"math"
)

// Simulator produces quantitative indicator values for a configuration.
// The default implementation below is a deterministic surrogate; callers
// with a physics-grade simulation plug their own in.
type Simulator interface {
	Indicators(cfg Configuration) (map[string]float64, error)
}

// SimulatorConfig declares the deterministic surrogate's knobs.
type SimulatorConfig struct {
	// BaseValues: indicator id -> nominal value at the reference fleet size.
	BaseValues map[string]float64 `yaml:"base_values"`
	// ParamTargets: simulation parameter -> indicator ids it multiplies.
	ParamTargets map[string][]string `yaml:"param_targets"`
	// ScaledByFleet lists indicators that scale linearly with fleet size
	// relative to ReferenceFleetSize.
	ScaledByFleet []string `yaml:"scaled_by_fleet"`
	// ReferenceFleetSize is the platform count at which base values hold.
	ReferenceFleetSize int `yaml:"reference_fleet_size"`
	// StealthParam names the parameter with an inverse effect on the
	// detection indicator: better stealth lowers detectability.
	StealthParam     string `yaml:"stealth_param"`
	StealthIndicator string `yaml:"stealth_indicator"`
	// Floors: minimum values for cost-like indicators (response time,
	// latency) that physical limits keep above zero.
	Floors map[string]float64 `yaml:"floors"`
	// Scenario, when set, adjusts base values and parameter importance.
	Scenario *Scenario `yaml:"-"`
}

// DefaultSimulator is the deterministic indicator surrogate used for
// machine-generated configurations and tests.
type DefaultSimulator struct {
	cfg SimulatorConfig
}

// NewDefaultSimulator validates the surrogate configuration.
func NewDefaultSimulator(cfg SimulatorConfig) (*DefaultSimulator, error) {
	if len(cfg.BaseValues) == 0 {
		return nil, fmt.Errorf("simulator: no base values")
	}
	if cfg.ReferenceFleetSize <= 0 {
		cfg.ReferenceFleetSize = 10
	}
	if cfg.Scenario != nil {
		if err := cfg.Scenario.Validate(); err != nil {
			return nil, err
		}
	}
	return &DefaultSimulator{cfg: cfg}, nil
}

// Indicators computes one value per configured indicator: baseline,
// scenario adjustment, simulation parameter multipliers (with the stealth
// inverse effect), fleet-size scaling and physical floors. The same
// configuration always yields the same values.
func (s *DefaultSimulator) Indicators(cfg Configuration) (map[string]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := s.cfg.BaseValues
	if s.cfg.Scenario != nil {
		base = s.cfg.Scenario.AdjustBaseValues(base)
	}

	out := make(map[string]float64, len(base))
	for id, v := range base {
		out[id] = v
	}

	for param, targets := range s.cfg.ParamTargets {
		value, ok := cfg.SimulationParams[param]
		if !ok {
			continue
		}
		factor := value
		if s.cfg.Scenario != nil {
			if f, ok := s.cfg.Scenario.MultiplierFactors[param]; ok {
				factor *= f
			}
		}
		for _, id := range targets {
			if _, ok := out[id]; !ok {
				continue
			}
			if param == s.cfg.StealthParam && id == s.cfg.StealthIndicator {
				// Better stealth makes the fleet harder to detect,
				// reducing the opposing detection figure.
				out[id] *= 2.0 - factor
			} else {
				out[id] *= factor
			}
		}
	}

	scale := float64(cfg.TotalPlatforms()) / float64(s.cfg.ReferenceFleetSize)
	if scale > 0 {
		for _, id := range s.cfg.ScaledByFleet {
			if v, ok := out[id]; ok {
				out[id] = v * scale
			}
		}
	}

	for id, floor := range s.cfg.Floors {
		if v, ok := out[id]; ok {
			out[id] = math.Max(floor, v)
		}
	}
	return out, nil
}
