// Package hierarchy models the two-level evaluation indicator tree:
// primary capabilities and their secondary indicators.
package hierarchy

import (
	"fmt"

	"github.com/harborline-systems/flotilla/internal/topsis"
)

// Indicator is a leaf of the tree. Fuzzy indicators take their values from
// linguistic expert assessment rather than raw quantitative measurement.
type Indicator struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Polarity topsis.Polarity `json:"polarity" yaml:"polarity"`
	Fuzzy    bool            `json:"fuzzy" yaml:"fuzzy"`
}

// Group is one primary capability with its secondary indicators.
type Group struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Indicators []Indicator `json:"indicators" yaml:"indicators"`
}

// Hierarchy is the full two-level indicator tree. It is loaded once per run
// and treated as immutable thereafter.
type Hierarchy struct {
	Groups []Group `json:"groups" yaml:"groups"`
}

// Validate checks structural soundness: non-empty groups, non-empty
// indicator lists, globally unique IDs and recognized polarities.
func (h Hierarchy) Validate() error {
	if len(h.Groups) == 0 {
		return fmt.Errorf("hierarchy: no capability groups")
	}
	seen := make(map[string]bool)
	for _, g := range h.Groups {
		if g.ID == "" {
			return fmt.Errorf("hierarchy: group with empty id")
		}
		if seen[g.ID] {
			return fmt.Errorf("hierarchy: duplicate id %q", g.ID)
		}
		seen[g.ID] = true
		if len(g.Indicators) == 0 {
			return fmt.Errorf("hierarchy: group %q has no indicators", g.ID)
		}
		for _, ind := range g.Indicators {
			if ind.ID == "" {
				return fmt.Errorf("hierarchy: group %q contains indicator with empty id", g.ID)
			}
			if seen[ind.ID] {
				return fmt.Errorf("hierarchy: duplicate id %q", ind.ID)
			}
			seen[ind.ID] = true
			if ind.Polarity != topsis.Benefit && ind.Polarity != topsis.Cost {
				return fmt.Errorf("hierarchy: indicator %q has invalid polarity %q", ind.ID, ind.Polarity)
			}
		}
	}
	return nil
}

// Flatten returns all secondary indicators in stable group order.
func (h Hierarchy) Flatten() []Indicator {
	var out []Indicator
	for _, g := range h.Groups {
		out = append(out, g.Indicators...)
	}
	return out
}

// NumIndicators returns the total count of secondary indicators.
func (h Hierarchy) NumIndicators() int {
	n := 0
	for _, g := range h.Groups {
		n += len(g.Indicators)
	}
	return n
}

// Polarities returns the polarity list aligned with Flatten order.
func (h Hierarchy) Polarities() []topsis.Polarity {
	out := make([]topsis.Polarity, 0, h.NumIndicators())
	for _, g := range h.Groups {
		for _, ind := range g.Indicators {
			out = append(out, ind.Polarity)
		}
	}
	return out
}
