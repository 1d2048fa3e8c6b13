// Package model loads the domain definition: the indicator hierarchy, the
// expert judgment matrices, the simulation profile and the genetic search
// space, all from one YAML document the service is deployed with.
package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harborline-systems/flotilla/internal/evaluate"
	"github.com/harborline-systems/flotilla/internal/hierarchy"
	"github.com/harborline-systems/flotilla/internal/optimize"
	"github.com/harborline-systems/flotilla/internal/scenario"
)

type Definition struct {
	Hierarchy hierarchy.Hierarchy      `yaml:"hierarchy"`
	Matrices  evaluate.MatrixSet       `yaml:"matrices"`
	Simulator scenario.SimulatorConfig `yaml:"simulator"`
	Scenario  *scenario.Scenario       `yaml:"scenario,omitempty"`

	// Base is the configuration template the genetic search mutates;
	// fields no gene touches are inherited verbatim.
	Base        scenario.Configuration `yaml:"base_configuration"`
	Genes       []GeneDef              `yaml:"genes"`
	Constraints optimize.ConstraintSet `yaml:"constraints"`
}

// GeneDef is the YAML form of one gene; Encoding converts it to the
// optimizer's representation.
type GeneDef struct {
	Name         string    `yaml:"name"`
	Kind         string    `yaml:"kind"` // int, float or choice
	Min          float64   `yaml:"min"`
	Max          float64   `yaml:"max"`
	Target       string    `yaml:"target"` // platform_count, deploy_x, deploy_y, task_assignment, sim_param
	Key          string    `yaml:"key"`
	Index        int       `yaml:"index"`
	Choices      []string  `yaml:"choices"`
	ChoiceValues []float64 `yaml:"choice_values"`
}

func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := d.Hierarchy.Validate(); err != nil {
		return nil, err
	}
	if d.Scenario != nil {
		if err := d.Scenario.Validate(); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// Encoding builds the optimizer's search space from the gene definitions.
func (d *Definition) Encoding() (optimize.Encoding, error) {
	genes := make([]optimize.GeneSpec, 0, len(d.Genes))
	for i, g := range d.Genes {
		spec := optimize.GeneSpec{
			Name:         g.Name,
			Min:          g.Min,
			Max:          g.Max,
			Key:          g.Key,
			Index:        g.Index,
			Choices:      g.Choices,
			ChoiceValues: g.ChoiceValues,
		}
		switch g.Kind {
		case "int":
			spec.Kind = optimize.KindInt
		case "float":
			spec.Kind = optimize.KindFloat
		case "choice":
			spec.Kind = optimize.KindChoice
		default:
			return optimize.Encoding{}, fmt.Errorf("model: gene %d (%s): unknown kind %q", i, g.Name, g.Kind)
		}
		switch g.Target {
		case "platform_count":
			spec.Target = optimize.TargetPlatformCount
		case "deploy_x":
			spec.Target = optimize.TargetDeployX
		case "deploy_y":
			spec.Target = optimize.TargetDeployY
		case "task_assignment":
			spec.Target = optimize.TargetTaskAssignment
		case "sim_param":
			spec.Target = optimize.TargetSimParam
		default:
			return optimize.Encoding{}, fmt.Errorf("model: gene %d (%s): unknown target %q", i, g.Name, g.Target)
		}
		genes = append(genes, spec)
	}

	enc := optimize.Encoding{Genes: genes, Base: d.Base}
	if err := enc.Validate(); err != nil {
		return optimize.Encoding{}, err
	}
	return enc, nil
}
