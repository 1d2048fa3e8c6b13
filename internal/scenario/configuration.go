// Package scenario holds the candidate configuration model, scenario-aware
// adjustments, the default deterministic indicator simulation, and the
// quantitative-to-linguistic bucketing used for machine-generated
// configurations that lack real expert input.
package scenario

import "fmt"

// Coordinate is a deployment position in scenario grid units.
type Coordinate struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Configuration is one identified candidate combat system configuration.
// Instances are immutable once evaluated; variants are new instances.
type Configuration struct {
	ID   string `json:"configuration_id" yaml:"configuration_id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	PlatformCounts  map[string]int `json:"platform_counts" yaml:"platform_counts"`
	Deployment      []Coordinate   `json:"deployment" yaml:"deployment"`
	TaskAssignments map[string]int `json:"task_assignments" yaml:"task_assignments"`

	// SimulationParams feed the indicator simulation (detection range
	// factor, coordination efficiency, weapon effectiveness, ...).
	SimulationParams map[string]float64 `json:"simulation_params,omitempty" yaml:"simulation_params,omitempty"`

	// ExpertAssessments carries real linguistic counts per fuzzy
	// indicator, when assessors scored this configuration. Absent for
	// machine-generated configurations, which are bucketed instead.
	ExpertAssessments map[string]map[string]int `json:"expert_assessments,omitempty" yaml:"expert_assessments,omitempty"`
}

// TotalPlatforms sums the platform inventory.
func (c Configuration) TotalPlatforms() int {
	n := 0
	for _, count := range c.PlatformCounts {
		n += count
	}
	return n
}

// TotalAssigned sums platforms committed across task assignments.
func (c Configuration) TotalAssigned() int {
	n := 0
	for _, count := range c.TaskAssignments {
		n += count
	}
	return n
}

// Validate checks the structural soundness of a configuration record.
func (c Configuration) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("configuration: empty id")
	}
	for platform, count := range c.PlatformCounts {
		if count < 0 {
			return fmt.Errorf("configuration %q: negative count %d for platform %q", c.ID, count, platform)
		}
	}
	for task, count := range c.TaskAssignments {
		if count < 0 {
			return fmt.Errorf("configuration %q: negative assignment %d for task %q", c.ID, count, task)
		}
	}
	return nil
}
