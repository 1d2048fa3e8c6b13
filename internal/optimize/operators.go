package optimize

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// SelectionMethod names the parent selection strategy.
type SelectionMethod string

const (
	SelectionTournament SelectionMethod = "tournament"
	SelectionRoulette   SelectionMethod = "roulette"
	SelectionRank       SelectionMethod = "rank"
)

// CrossoverMethod names the recombination operator.
type CrossoverMethod string

const (
	CrossoverSinglePoint CrossoverMethod = "single_point"
	CrossoverTwoPoint    CrossoverMethod = "two_point"
	CrossoverUniform     CrossoverMethod = "uniform"
)

type individual struct {
	chrom   Chromosome
	fitness float64
	scored  bool
}

// selectParent picks one parent index according to the configured method.
func selectParent(rng *rand.Rand, pop []individual, method SelectionMethod, tournamentSize int) (int, error) {
	switch method {
	case SelectionTournament:
		best := rng.Intn(len(pop))
		for i := 1; i < tournamentSize; i++ {
			c := rng.Intn(len(pop))
			if pop[c].fitness > pop[best].fitness {
				best = c
			}
		}
		return best, nil

	case SelectionRoulette:
		// Shift so the worst individual still gets a sliver of wheel.
		min := pop[0].fitness
		for _, ind := range pop {
			min = math.Min(min, ind.fitness)
		}
		var total float64
		for _, ind := range pop {
			total += ind.fitness - min + 1e-9
		}
		spin := rng.Float64() * total
		for i, ind := range pop {
			spin -= ind.fitness - min + 1e-9
			if spin <= 0 {
				return i, nil
			}
		}
		return len(pop) - 1, nil

	case SelectionRank:
		order := make([]int, len(pop))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return pop[order[a]].fitness < pop[order[b]].fitness
		})
		// Linear rank weights 1..n over the ascending order.
		n := len(pop)
		total := float64(n*(n+1)) / 2
		spin := rng.Float64() * total
		for r, idx := range order {
			spin -= float64(r + 1)
			if spin <= 0 {
				return idx, nil
			}
		}
		return order[n-1], nil

	default:
		return 0, fmt.Errorf("optimize: unknown selection method %q", method)
	}
}

// crossover recombines two parents into two children.
func crossover(rng *rand.Rand, a, b Chromosome, method CrossoverMethod) (Chromosome, Chromosome, error) {
	ca, cb := a.Clone(), b.Clone()
	n := len(a)
	if n < 2 {
		return ca, cb, nil
	}
	switch method {
	case CrossoverSinglePoint:
		p := 1 + rng.Intn(n-1)
		for i := p; i < n; i++ {
			ca[i], cb[i] = cb[i], ca[i]
		}
	case CrossoverTwoPoint:
		p1 := 1 + rng.Intn(n-1)
		p2 := 1 + rng.Intn(n-1)
		if p1 > p2 {
			p1, p2 = p2, p1
		}
		for i := p1; i < p2; i++ {
			ca[i], cb[i] = cb[i], ca[i]
		}
	case CrossoverUniform:
		for i := 0; i < n; i++ {
			if rng.Float64() < 0.5 {
				ca[i], cb[i] = cb[i], ca[i]
			}
		}
	default:
		return nil, nil, fmt.Errorf("optimize: unknown crossover method %q", method)
	}
	return ca, cb, nil
}

// mutate perturbs genes in place. Numeric genes take gaussian steps scaled
// to their domain, choice genes reset to a random option, and count genes
// occasionally swap with another count gene to move units between types.
func mutate(rng *rand.Rand, enc Encoding, ch Chromosome, rate, stdDev float64) {
	for i, g := range enc.Genes {
		if rng.Float64() >= rate {
			continue
		}
		switch g.Kind {
		case KindFloat:
			ch[i] += rng.NormFloat64() * stdDev * g.span()
		case KindInt:
			step := rng.NormFloat64() * stdDev * g.span()
			if math.Abs(step) < 1 {
				if step < 0 {
					step = -1
				} else {
					step = 1
				}
			}
			ch[i] += math.Round(step)
			if g.Target == TargetPlatformCount && rng.Float64() < 0.25 {
				if j := otherCountGene(rng, enc, i); j >= 0 {
					ch[i], ch[j] = ch[j], ch[i]
				}
			}
		case KindChoice:
			ch[i] = float64(rng.Intn(len(g.Choices)))
		}
	}
	enc.Clamp(ch)
}

func otherCountGene(rng *rand.Rand, enc Encoding, skip int) int {
	var idx []int
	for i, g := range enc.Genes {
		if i != skip && g.Target == TargetPlatformCount {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return -1
	}
	return idx[rng.Intn(len(idx))]
}

// diversity measures the population spread as the mean pairwise distance
// with each gene normalized by its domain width, yielding a value in [0, 1].
func diversity(enc Encoding, pop []individual) float64 {
	n := len(pop)
	if n < 2 {
		return 0
	}
	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var d float64
			for k, g := range enc.Genes {
				if s := g.span(); s > 0 {
					d += math.Abs(pop[i].chrom[k]-pop[j].chrom[k]) / s
				}
			}
			sum += d / float64(len(enc.Genes))
			pairs++
		}
	}
	return sum / float64(pairs)
}
