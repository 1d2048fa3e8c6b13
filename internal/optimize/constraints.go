package optimize

import (
	"fmt"
	"math"

	"github.com/harborline-systems/flotilla/internal/scenario"
)

// Rect bounds the deployment area.
type Rect struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Contains reports whether the coordinate lies inside the rectangle.
func (r Rect) Contains(c scenario.Coordinate) bool {
	return c.X >= r.MinX && c.X <= r.MaxX && c.Y >= r.MinY && c.Y <= r.MaxY
}

// ConstraintSet defines feasibility. A configuration that fails any active
// constraint is never scored; it is repaired or replaced first.
type ConstraintSet struct {
	// MinPlatforms and MaxPlatforms bound the total fleet size. Zero
	// MaxPlatforms means unbounded.
	MinPlatforms int `json:"min_platforms" yaml:"min_platforms"`
	MaxPlatforms int `json:"max_platforms" yaml:"max_platforms"`
	// Budget caps total procurement cost as sum of count * PlatformCosts.
	// Zero means no budget constraint.
	Budget        float64            `json:"budget" yaml:"budget"`
	PlatformCosts map[string]float64 `json:"platform_costs" yaml:"platform_costs"`
	// Area, when set, requires every deployment coordinate inside it.
	Area *Rect `json:"area,omitempty" yaml:"area,omitempty"`
	// RequireTaskCoverage demands every task at least one assigned unit.
	RequireTaskCoverage bool `json:"require_task_coverage" yaml:"require_task_coverage"`
}

// Violations lists every constraint the configuration breaks, empty when
// feasible.
func (cs ConstraintSet) Violations(cfg scenario.Configuration) []string {
	var out []string
	total := cfg.TotalPlatforms()
	if total < cs.MinPlatforms {
		out = append(out, fmt.Sprintf("fleet size %d below minimum %d", total, cs.MinPlatforms))
	}
	if cs.MaxPlatforms > 0 && total > cs.MaxPlatforms {
		out = append(out, fmt.Sprintf("fleet size %d above maximum %d", total, cs.MaxPlatforms))
	}
	if cs.Budget > 0 {
		if cost := cs.cost(cfg); cost > cs.Budget {
			out = append(out, fmt.Sprintf("cost %.2f exceeds budget %.2f", cost, cs.Budget))
		}
	}
	if cs.Area != nil {
		for i, c := range cfg.Deployment {
			if !cs.Area.Contains(c) {
				out = append(out, fmt.Sprintf("deployment %d at (%.2f, %.2f) outside area", i, c.X, c.Y))
			}
		}
	}
	if cs.RequireTaskCoverage {
		for task, n := range cfg.TaskAssignments {
			if n < 1 {
				out = append(out, fmt.Sprintf("task %q has no units assigned", task))
			}
		}
	}
	return out
}

// Feasible reports whether the configuration satisfies every constraint.
func (cs ConstraintSet) Feasible(cfg scenario.Configuration) bool {
	return len(cs.Violations(cfg)) == 0
}

func (cs ConstraintSet) cost(cfg scenario.Configuration) float64 {
	var total float64
	for typ, n := range cfg.PlatformCounts {
		total += float64(n) * cs.PlatformCosts[typ]
	}
	return total
}

// Repair nudges a chromosome toward feasibility in place: coordinates are
// clamped into the area and platform counts scaled into the fleet and
// budget bounds. It reports whether the decoded result is now feasible.
func (cs ConstraintSet) Repair(enc Encoding, ch Chromosome) bool {
	enc.Clamp(ch)

	if cs.Area != nil {
		for i, g := range enc.Genes {
			switch g.Target {
			case TargetDeployX:
				ch[i] = math.Max(cs.Area.MinX, math.Min(cs.Area.MaxX, ch[i]))
			case TargetDeployY:
				ch[i] = math.Max(cs.Area.MinY, math.Min(cs.Area.MaxY, ch[i]))
			}
		}
	}

	if cs.RequireTaskCoverage {
		for i, g := range enc.Genes {
			if g.Target == TargetTaskAssignment && ch[i] < 1 {
				ch[i] = math.Max(1, math.Ceil(g.Min))
			}
		}
	}

	cs.repairFleet(enc, ch)
	enc.Clamp(ch)
	return cs.Feasible(enc.Decode(ch))
}

// repairFleet scales the count genes so the total lands inside the fleet
// bounds and under budget, respecting each gene's own domain.
func (cs ConstraintSet) repairFleet(enc Encoding, ch Chromosome) {
	counts := func() (int, float64) {
		cfg := enc.Decode(ch)
		return cfg.TotalPlatforms(), cs.cost(cfg)
	}

	total, cost := counts()
	// Shrink while over the cap or budget. Reduce the most expensive
	// reducible gene first so budget repairs converge quickly.
	for iter := 0; iter < 1024; iter++ {
		overMax := cs.MaxPlatforms > 0 && total > cs.MaxPlatforms
		overBudget := cs.Budget > 0 && cost > cs.Budget
		if !overMax && !overBudget {
			break
		}
		best, bestCost := -1, -1.0
		for i, g := range enc.Genes {
			if g.Target != TargetPlatformCount || ch[i] <= math.Ceil(g.Min) {
				continue
			}
			if c := cs.PlatformCosts[g.Key]; best == -1 || c > bestCost {
				best, bestCost = i, c
			}
		}
		if best == -1 {
			break
		}
		ch[best]--
		total, cost = counts()
	}

	// Grow while under the floor, cheapest gene first.
	for iter := 0; iter < 1024 && total < cs.MinPlatforms; iter++ {
		best, bestCost := -1, math.Inf(1)
		for i, g := range enc.Genes {
			if g.Target != TargetPlatformCount || ch[i] >= math.Floor(g.Max) {
				continue
			}
			if c := cs.PlatformCosts[g.Key]; c < bestCost {
				best, bestCost = i, c
			}
		}
		if best == -1 {
			break
		}
		ch[best]++
		total, _ = counts()
	}
}
