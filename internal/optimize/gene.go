// Package optimize searches the configuration space with a genetic
// algorithm, scoring candidates through the evaluation pipeline and never
// admitting an infeasible configuration to scoring.
package optimize

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/harborline-systems/flotilla/internal/scenario"
)

// Kind selects how a gene's value is stored and mutated.
type Kind int

const (
	// KindInt holds a whole number, mutated by rounded gaussian steps.
	KindInt Kind = iota
	// KindFloat holds a real value, mutated by gaussian perturbation.
	KindFloat
	// KindChoice holds an index into a discrete option set, mutated by
	// random reset.
	KindChoice
)

// Target names the configuration field a gene writes into on decode.
type Target int

const (
	TargetPlatformCount Target = iota
	TargetDeployX
	TargetDeployY
	TargetTaskAssignment
	TargetSimParam
)

// GeneSpec describes one position on the chromosome and its binding into
// the configuration.
type GeneSpec struct {
	Name   string
	Kind   Kind
	Min    float64
	Max    float64
	Target Target
	// Key addresses map-valued targets: the platform type, task name or
	// simulation parameter.
	Key string
	// Index addresses the deployment slot for coordinate targets.
	Index int
	// Choices and ChoiceValues define the option set for KindChoice
	// genes. The chromosome stores the option index; decode writes the
	// paired value and records the chosen label in SimulationParams
	// under Name.
	Choices      []string
	ChoiceValues []float64
}

// Chromosome is a fixed-length genome. Gene i is interpreted per the
// encoding's GeneSpec i.
type Chromosome []float64

// Clone returns an independent copy.
func (c Chromosome) Clone() Chromosome {
	out := make(Chromosome, len(c))
	copy(out, c)
	return out
}

// Encoding maps chromosomes to configurations. Base supplies every field
// the genes do not touch.
type Encoding struct {
	Genes []GeneSpec
	Base  scenario.Configuration
}

// Validate checks the gene specs are internally coherent.
func (e Encoding) Validate() error {
	if len(e.Genes) == 0 {
		return fmt.Errorf("optimize: encoding has no genes")
	}
	for i, g := range e.Genes {
		switch g.Kind {
		case KindInt, KindFloat:
			if !(g.Min < g.Max) {
				return fmt.Errorf("optimize: gene %d (%s): bounds [%g, %g] are not an interval", i, g.Name, g.Min, g.Max)
			}
		case KindChoice:
			if len(g.Choices) < 2 {
				return fmt.Errorf("optimize: gene %d (%s): choice gene needs at least 2 options", i, g.Name)
			}
			if len(g.ChoiceValues) != len(g.Choices) {
				return fmt.Errorf("optimize: gene %d (%s): %d choices vs %d values", i, g.Name, len(g.Choices), len(g.ChoiceValues))
			}
		default:
			return fmt.Errorf("optimize: gene %d (%s): unknown kind %d", i, g.Name, g.Kind)
		}
		switch g.Target {
		case TargetPlatformCount, TargetTaskAssignment, TargetSimParam:
			if g.Key == "" {
				return fmt.Errorf("optimize: gene %d (%s): map target needs a key", i, g.Name)
			}
		case TargetDeployX, TargetDeployY:
			if g.Index < 0 {
				return fmt.Errorf("optimize: gene %d (%s): negative deployment index", i, g.Name)
			}
		default:
			return fmt.Errorf("optimize: gene %d (%s): unknown target %d", i, g.Name, g.Target)
		}
	}
	return nil
}

// Random draws a chromosome uniformly within each gene's domain.
func (e Encoding) Random(rng *rand.Rand) Chromosome {
	ch := make(Chromosome, len(e.Genes))
	for i, g := range e.Genes {
		switch g.Kind {
		case KindInt:
			lo, hi := int(math.Ceil(g.Min)), int(math.Floor(g.Max))
			ch[i] = float64(lo + rng.Intn(hi-lo+1))
		case KindFloat:
			ch[i] = g.Min + rng.Float64()*(g.Max-g.Min)
		case KindChoice:
			ch[i] = float64(rng.Intn(len(g.Choices)))
		}
	}
	return ch
}

// Clamp forces every gene back into its domain, rounding discrete kinds.
func (e Encoding) Clamp(ch Chromosome) {
	for i, g := range e.Genes {
		v := ch[i]
		switch g.Kind {
		case KindInt:
			v = math.Round(v)
			v = math.Max(math.Ceil(g.Min), math.Min(math.Floor(g.Max), v))
		case KindFloat:
			v = math.Max(g.Min, math.Min(g.Max, v))
		case KindChoice:
			v = math.Round(v)
			v = math.Max(0, math.Min(float64(len(g.Choices)-1), v))
		}
		ch[i] = v
	}
}

// Decode materializes a configuration from the base and the chromosome.
// The caller owns the result; the base is never mutated.
func (e Encoding) Decode(ch Chromosome) scenario.Configuration {
	cfg := e.Base
	cfg.PlatformCounts = cloneIntMap(e.Base.PlatformCounts)
	cfg.TaskAssignments = cloneIntMap(e.Base.TaskAssignments)
	cfg.SimulationParams = cloneFloatMap(e.Base.SimulationParams)
	cfg.Deployment = append([]scenario.Coordinate(nil), e.Base.Deployment...)

	for i, g := range e.Genes {
		v := ch[i]
		switch g.Target {
		case TargetPlatformCount:
			cfg.PlatformCounts[g.Key] = int(math.Round(v))
		case TargetTaskAssignment:
			cfg.TaskAssignments[g.Key] = int(math.Round(v))
		case TargetSimParam:
			if g.Kind == KindChoice {
				cfg.SimulationParams[g.Key] = g.ChoiceValues[int(v)]
			} else {
				cfg.SimulationParams[g.Key] = v
			}
		case TargetDeployX:
			for len(cfg.Deployment) <= g.Index {
				cfg.Deployment = append(cfg.Deployment, scenario.Coordinate{})
			}
			cfg.Deployment[g.Index].X = v
		case TargetDeployY:
			for len(cfg.Deployment) <= g.Index {
				cfg.Deployment = append(cfg.Deployment, scenario.Coordinate{})
			}
			cfg.Deployment[g.Index].Y = v
		}
	}
	return cfg
}

// span returns the width of a gene's domain, used to normalize distances.
func (g GeneSpec) span() float64 {
	if g.Kind == KindChoice {
		return float64(len(g.Choices) - 1)
	}
	return g.Max - g.Min
}

func cloneIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
