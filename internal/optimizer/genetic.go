// Package optimizer searches power-cut allocations with a genetic
// algorithm. Given a capacity deficit and the circuits eligible for
// curtailment, it looks for the withheld-fraction vector that closes
// the shortfall at the lowest aggregate severity.
package optimizer

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/talgya/powergrid/internal/fuzzy"
	"github.com/talgya/powergrid/internal/grid"
)

// ErrInfeasibleAllocation reports that no candidate satisfied the
// coverage invariant within the generation budget. The least-infeasible
// plan is still returned and committed; callers flag it, they do not
// abort on it.
var ErrInfeasibleAllocation = errors.New("no feasible cut plan within budget")

// infeasiblePenalty ranks every infeasible candidate below every
// feasible one regardless of severity.
const infeasiblePenalty = 1e6

// Eligible is one circuit the optimizer may curtail, as seen through
// the chief agent's beliefs.
type Eligible struct {
	ID           grid.CircuitID
	Demand       float64 // MW this timestep
	Mood         float64 // current mood, biases cuts away from unhappy circuits
	LinkCapacity float64 // MW deliverable to this circuit through its links
}

// Config is the search budget and operator rates.
type Config struct {
	PopulationSize int
	Generations    int
	TournamentSize int
	PlateauGens    int     // stop after this many generations without improvement
	CrossoverRate  float64
	MutationRate   float64 // per-gene perturbation probability
	MutationSigma  float64 // perturbation magnitude (stddev)
	CutDuration    float64 // normalized duration of a committed cut
	Seed           int64
}

// DefaultConfig returns a budget that converges on grids of a few
// dozen circuits in well under a second.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 60,
		Generations:    120,
		TournamentSize: 3,
		PlateauGens:    25,
		CrossoverRate:  0.9,
		MutationRate:   0.15,
		MutationSigma:  0.1,
		CutDuration:    1,
		Seed:           1,
	}
}

// Validate rejects out-of-range budgets and rates.
func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("population size %d too small", c.PopulationSize)
	}
	if c.Generations < 1 {
		return fmt.Errorf("generation budget %d too small", c.Generations)
	}
	if c.TournamentSize < 1 || c.TournamentSize > c.PopulationSize {
		return fmt.Errorf("tournament size %d outside [1,%d]", c.TournamentSize, c.PopulationSize)
	}
	if c.PlateauGens < 1 {
		return fmt.Errorf("plateau window %d too small", c.PlateauGens)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate %.3f outside [0,1]", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate %.3f outside [0,1]", c.MutationRate)
	}
	if c.MutationSigma <= 0 {
		return fmt.Errorf("mutation sigma %.3f must be positive", c.MutationSigma)
	}
	if c.CutDuration <= 0 || c.CutDuration > 1 {
		return fmt.Errorf("cut duration %.3f outside (0,1]", c.CutDuration)
	}
	return nil
}

// Result describes how the search went, alongside the returned plan.
type Result struct {
	Converged   bool      // plateau reached before the generation budget ran out
	Feasible    bool      // best plan satisfies the coverage invariant
	Fitness     float64   // fitness of the returned plan
	Severity    float64   // aggregate severity of the returned plan
	Generations int       // generations actually run
	History     []float64 // best fitness per generation, non-decreasing
}

// Optimizer is a seeded GA over withheld-fraction vectors. One
// chromosome is a []float64, one gene per eligible circuit, each in
// [0,1]. All randomness flows from the seeded rng, so identical inputs
// and seed yield identical plans.
type Optimizer struct {
	cfg  Config
	eval *fuzzy.Evaluator
	rng  *rand.Rand
	norm distuv.Normal
}

// New builds an optimizer around a fuzzy evaluator.
func New(cfg Config, eval *fuzzy.Evaluator) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Optimizer{
		cfg:  cfg,
		eval: eval,
		rng:  rng,
		norm: distuv.Normal{Mu: 0, Sigma: cfg.MutationSigma, Src: rng},
	}, nil
}

// Reseed resets the random source. The engine reseeds per timestep so
// a whole run replays from one root seed.
func (o *Optimizer) Reseed(seed int64) {
	o.rng = rand.New(rand.NewSource(seed))
	o.norm = distuv.Normal{Mu: 0, Sigma: o.cfg.MutationSigma, Src: o.rng}
}

// Optimize searches for a CutPlan covering the deficit. It always
// returns a plan: the best feasible one found, or the least-infeasible
// one together with ErrInfeasibleAllocation.
func (o *Optimizer) Optimize(deficit float64, eligible []Eligible, step uint64) (grid.CutPlan, Result, error) {
	if deficit <= 0 || len(eligible) == 0 {
		return grid.EmptyPlan(step), Result{Converged: true, Feasible: deficit <= 0}, nil
	}

	// Stable gene order regardless of caller's map iteration.
	sorted := make([]Eligible, len(eligible))
	copy(sorted, eligible)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	totalDemand := 0.0
	for _, e := range sorted {
		totalDemand += e.Demand
	}
	deficitFrac := clamp01(deficit / totalDemand)

	// Severity per withheld MW is fixed per circuit within a timestep,
	// so one evaluator call per circuit covers the whole search.
	perUnit := make([]float64, len(sorted))
	for i, e := range sorted {
		perUnit[i] = o.eval.Evaluate(deficitFrac, e.Mood, o.cfg.CutDuration)
	}

	pop := o.seedPopulation(sorted, perUnit, deficit)

	best := make([]float64, len(sorted))
	bestFitness := -infeasiblePenalty * 10
	res := Result{}
	sinceImproved := 0

	for gen := 0; gen < o.cfg.Generations; gen++ {
		res.Generations = gen + 1

		fitness := make([]float64, len(pop))
		genBest := -1
		for i, chrom := range pop {
			fitness[i] = o.fitness(chrom, sorted, perUnit, deficit)
			if genBest < 0 || fitness[i] > fitness[genBest] {
				genBest = i
			}
		}

		if fitness[genBest] > bestFitness {
			bestFitness = fitness[genBest]
			copy(best, pop[genBest])
			sinceImproved = 0
		} else {
			sinceImproved++
		}
		res.History = append(res.History, bestFitness)

		if sinceImproved >= o.cfg.PlateauGens {
			res.Converged = true
			break
		}

		// Next generation: elite carried unmodified, rest bred.
		next := make([][]float64, 0, o.cfg.PopulationSize)
		elite := make([]float64, len(best))
		copy(elite, best)
		next = append(next, elite)

		for len(next) < o.cfg.PopulationSize {
			p1 := pop[o.tournament(fitness)]
			p2 := pop[o.tournament(fitness)]
			child := o.crossover(p1, p2)
			o.mutate(child)
			o.repair(child, sorted, deficit)
			next = append(next, child)
		}
		pop = next
	}

	plan := grid.CutPlan{Step: step, Fractions: make(map[grid.CircuitID]float64, len(sorted))}
	for i, e := range sorted {
		if best[i] > 0 {
			plan.Fractions[e.ID] = best[i]
		}
	}

	// Severity of the returned plan is reported even when it is
	// infeasible; only Fitness carries the penalty.
	for i, e := range sorted {
		res.Severity += perUnit[i] * best[i] * e.Demand
	}
	res.Fitness = bestFitness
	res.Feasible = bestFitness > -infeasiblePenalty/2
	if !res.Feasible {
		return plan, res, ErrInfeasibleAllocation
	}
	return plan, res, nil
}

// fitness is negative aggregate severity for feasible candidates, and
// a large negative penalty minus the violation magnitude otherwise.
func (o *Optimizer) fitness(chrom []float64, eligible []Eligible, perUnit []float64, deficit float64) float64 {
	withheld := 0.0
	violation := 0.0
	severity := 0.0
	for i, e := range eligible {
		f := chrom[i]
		withheld += f * e.Demand
		severity += perUnit[i] * f * e.Demand

		// A link that cannot carry the circuit's remaining demand
		// forces a deeper cut; undershooting it is a violation.
		delivered := (1 - f) * e.Demand
		if delivered > e.LinkCapacity {
			violation += delivered - e.LinkCapacity
		}
	}
	if withheld < deficit {
		violation += deficit - withheld
	}
	if violation > 0 {
		return -infeasiblePenalty - violation
	}
	return -severity
}

// seedPopulation mixes random vectors with greedy ones that cut the
// cheapest circuits first.
func (o *Optimizer) seedPopulation(eligible []Eligible, perUnit []float64, deficit float64) [][]float64 {
	pop := make([][]float64, 0, o.cfg.PopulationSize)

	// Greedy seeds: cut circuits in ascending per-unit severity until
	// the deficit is covered. A few jittered variants keep diversity.
	order := make([]int, len(eligible))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return perUnit[order[a]] < perUnit[order[b]] })

	greedySeeds := o.cfg.PopulationSize / 4
	if greedySeeds < 1 {
		greedySeeds = 1
	}
	for g := 0; g < greedySeeds; g++ {
		chrom := make([]float64, len(eligible))
		remaining := deficit
		for _, idx := range order {
			if remaining <= 0 {
				break
			}
			f := 1.0
			if eligible[idx].Demand > remaining {
				f = remaining / eligible[idx].Demand
			}
			if g > 0 {
				// Jitter later greedy seeds so they are not clones.
				f = clamp01(f + (o.rng.Float64()-0.5)*0.2)
			}
			chrom[idx] = f
			remaining -= f * eligible[idx].Demand
		}
		o.repair(chrom, eligible, deficit)
		pop = append(pop, chrom)
	}

	for len(pop) < o.cfg.PopulationSize {
		chrom := make([]float64, len(eligible))
		for i := range chrom {
			chrom[i] = o.rng.Float64()
		}
		o.repair(chrom, eligible, deficit)
		pop = append(pop, chrom)
	}
	return pop
}

// tournament picks the fittest of a random sample.
func (o *Optimizer) tournament(fitness []float64) int {
	best := o.rng.Intn(len(fitness))
	for k := 1; k < o.cfg.TournamentSize; k++ {
		c := o.rng.Intn(len(fitness))
		if fitness[c] > fitness[best] {
			best = c
		}
	}
	return best
}

// crossover blends two parents: either a single-point splice or a
// whole-vector arithmetic blend, at the configured rate.
func (o *Optimizer) crossover(p1, p2 []float64) []float64 {
	child := make([]float64, len(p1))
	if o.rng.Float64() >= o.cfg.CrossoverRate || len(p1) < 2 {
		copy(child, p1)
		return child
	}
	if o.rng.Float64() < 0.5 {
		point := 1 + o.rng.Intn(len(p1)-1)
		copy(child[:point], p1[:point])
		copy(child[point:], p2[point:])
	} else {
		alpha := o.rng.Float64()
		for i := range child {
			child[i] = alpha*p1[i] + (1-alpha)*p2[i]
		}
	}
	return child
}

// mutate perturbs genes in place, clamped to [0,1].
func (o *Optimizer) mutate(chrom []float64) {
	for i := range chrom {
		if o.rng.Float64() < o.cfg.MutationRate {
			chrom[i] = clamp01(chrom[i] + o.norm.Rand())
		}
	}
}

// repair scales fractions up proportionally when a candidate falls
// short of the deficit, the same trick the greedy seeds rely on. A
// candidate that cannot cover the deficit even at full cut stays
// infeasible and gets penalized by fitness instead.
func (o *Optimizer) repair(chrom []float64, eligible []Eligible, deficit float64) {
	withheld := 0.0
	for i, e := range eligible {
		withheld += chrom[i] * e.Demand
	}
	if withheld >= deficit || withheld == 0 {
		return
	}
	scale := deficit / withheld
	for i := range chrom {
		chrom[i] = clamp01(chrom[i] * scale)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
