package scenario

import (
	"math"
	"testing"
)

func simTestConfig() SimulatorConfig {
	return SimulatorConfig{
		BaseValues: map[string]float64{
			"hit_rate":       0.6,
			"detection_risk": 0.5,
			"response_time":  4.0,
			"coverage":       0.4,
		},
		ParamTargets: map[string][]string{
			"weapon_effectiveness": {"hit_rate"},
			"stealth_factor":       {"detection_risk"},
		},
		ScaledByFleet:      []string{"coverage"},
		ReferenceFleetSize: 10,
		StealthParam:       "stealth_factor",
		StealthIndicator:   "detection_risk",
		Floors:             map[string]float64{"response_time": 1.0},
	}
}

func TestNewDefaultSimulatorRequiresBaseValues(t *testing.T) {
	if _, err := NewDefaultSimulator(SimulatorConfig{}); err == nil {
		t.Fatal("expected error for empty base values")
	}
}

func TestNewDefaultSimulatorRejectsInvalidScenario(t *testing.T) {
	cfg := simTestConfig()
	cfg.Scenario = &Scenario{ID: "bad", BaseValueFactors: map[string]float64{"hit_rate": -1}}
	if _, err := NewDefaultSimulator(cfg); err == nil {
		t.Fatal("expected error for invalid scenario")
	}
}

func TestIndicatorsBaseline(t *testing.T) {
	sim, err := NewDefaultSimulator(simTestConfig())
	if err != nil {
		t.Fatalf("NewDefaultSimulator: %v", err)
	}
	cfg := Configuration{
		ID:             "cfg-1",
		PlatformCounts: map[string]int{"frigate": 10},
	}
	out, err := sim.Indicators(cfg)
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	// No simulation params, reference fleet size: base values pass through.
	for id, want := range simTestConfig().BaseValues {
		if got := out[id]; math.Abs(got-want) > 1e-12 {
			t.Errorf("%s = %g, want %g", id, got, want)
		}
	}
}

func TestIndicatorsParamMultiplier(t *testing.T) {
	sim, _ := NewDefaultSimulator(simTestConfig())
	cfg := Configuration{
		ID:               "cfg-1",
		PlatformCounts:   map[string]int{"frigate": 10},
		SimulationParams: map[string]float64{"weapon_effectiveness": 1.2},
	}
	out, err := sim.Indicators(cfg)
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if got, want := out["hit_rate"], 0.6*1.2; math.Abs(got-want) > 1e-12 {
		t.Errorf("hit_rate = %g, want %g", got, want)
	}
}

func TestIndicatorsStealthInverse(t *testing.T) {
	sim, _ := NewDefaultSimulator(simTestConfig())
	cfg := Configuration{
		ID:               "cfg-1",
		PlatformCounts:   map[string]int{"frigate": 10},
		SimulationParams: map[string]float64{"stealth_factor": 1.3},
	}
	out, err := sim.Indicators(cfg)
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	// Stealth above 1.0 lowers the detection figure: 0.5 * (2.0 - 1.3).
	if got, want := out["detection_risk"], 0.5*0.7; math.Abs(got-want) > 1e-12 {
		t.Errorf("detection_risk = %g, want %g", got, want)
	}
}

func TestIndicatorsFleetScaling(t *testing.T) {
	sim, _ := NewDefaultSimulator(simTestConfig())
	cfg := Configuration{
		ID:             "cfg-1",
		PlatformCounts: map[string]int{"frigate": 15},
	}
	out, err := sim.Indicators(cfg)
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if got, want := out["coverage"], 0.4*1.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("coverage = %g, want %g", got, want)
	}
	// Non-scaled indicators are unaffected by fleet size.
	if got := out["hit_rate"]; math.Abs(got-0.6) > 1e-12 {
		t.Errorf("hit_rate = %g, want 0.6", got)
	}
}

func TestIndicatorsFloor(t *testing.T) {
	cfg := simTestConfig()
	cfg.ParamTargets["speed"] = []string{"response_time"}
	sim, _ := NewDefaultSimulator(cfg)

	out, err := sim.Indicators(Configuration{
		ID:               "cfg-1",
		PlatformCounts:   map[string]int{"frigate": 10},
		SimulationParams: map[string]float64{"speed": 0.1},
	})
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	// 4.0 * 0.1 = 0.4 falls below the physical floor of 1.0.
	if got := out["response_time"]; got != 1.0 {
		t.Errorf("response_time = %g, want floor 1.0", got)
	}
}

func TestIndicatorsScenarioAdjustments(t *testing.T) {
	cfg := simTestConfig()
	cfg.Scenario = &Scenario{
		ID:                "littoral",
		BaseValueFactors:  map[string]float64{"hit_rate": 0.9},
		MultiplierFactors: map[string]float64{"weapon_effectiveness": 1.1},
	}
	sim, err := NewDefaultSimulator(cfg)
	if err != nil {
		t.Fatalf("NewDefaultSimulator: %v", err)
	}
	out, err := sim.Indicators(Configuration{
		ID:               "cfg-1",
		PlatformCounts:   map[string]int{"frigate": 10},
		SimulationParams: map[string]float64{"weapon_effectiveness": 1.2},
	})
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	if got, want := out["hit_rate"], 0.6*0.9*1.2*1.1; math.Abs(got-want) > 1e-12 {
		t.Errorf("hit_rate = %g, want %g", got, want)
	}
}

func TestIndicatorsDeterministic(t *testing.T) {
	sim, _ := NewDefaultSimulator(simTestConfig())
	cfg := Configuration{
		ID:               "cfg-1",
		PlatformCounts:   map[string]int{"frigate": 8, "uav": 4},
		SimulationParams: map[string]float64{"weapon_effectiveness": 1.05, "stealth_factor": 1.1},
	}
	first, err := sim.Indicators(cfg)
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	second, err := sim.Indicators(cfg)
	if err != nil {
		t.Fatalf("Indicators: %v", err)
	}
	for id, v := range first {
		if second[id] != v {
			t.Errorf("%s: %g vs %g across identical runs", id, v, second[id])
		}
	}
}

func TestIndicatorsRejectsInvalidConfiguration(t *testing.T) {
	sim, _ := NewDefaultSimulator(simTestConfig())
	_, err := sim.Indicators(Configuration{
		ID:             "cfg-bad",
		PlatformCounts: map[string]int{"frigate": -3},
	})
	if err == nil {
		t.Fatal("expected error for negative platform count")
	}
}
