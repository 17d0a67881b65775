package subset

import (
	"fmt"
	"math"
	"math/rand"

	"lsearch"
)

// ItemStats is the per-ID weight/value pair AdditiveProblem sums over.
type ItemStats struct {
	Weight float64
	Value  float64
}

// AdditiveProblem is an additive objective over a fixed ID universe: the
// objective is the sum of Value over selected IDs (in Sense); a capacity
// upper bound on summed Weight is a mandatory constraint, and an optional
// target weight is a penalizing constraint.
type AdditiveProblem struct {
	Stats    map[int]ItemStats
	Capacity float64

	// BalanceTarget, if non-nil, turns on a penalizing constraint: any
	// deviation of total selected weight from *BalanceTarget costs
	// BalancePenaltyFactor per unit of absolute deviation.
	BalanceTarget        *float64
	BalancePenaltyFactor float64

	sense       lsearch.Sense
	universe    []int
	minSelected int
	maxSelected int
}

// NewAdditiveProblem constructs an AdditiveProblem. universe is the fixed
// ID set createRandomSolution draws initial selections from; minSelected/
// maxSelected bound the size of a freshly generated random solution.
func NewAdditiveProblem(stats map[int]ItemStats, capacity float64, sense lsearch.Sense, universe []int, minSelected, maxSelected int) *AdditiveProblem {
	return &AdditiveProblem{
		Stats:       stats,
		Capacity:    capacity,
		sense:       sense,
		universe:    universe,
		minSelected: minSelected,
		maxSelected: maxSelected,
	}
}

// Sense implements lsearch.Problem.
func (p *AdditiveProblem) Sense() lsearch.Sense { return p.sense }

func (p *AdditiveProblem) totalWeight(sol *Solution) float64 {
	var w float64
	for id := range sol.Selected {
		w += p.Stats[id].Weight
	}
	return w
}

func (p *AdditiveProblem) totalValue(sol *Solution) float64 {
	var v float64
	for id := range sol.Selected {
		v += p.Stats[id].Value
	}
	return v
}

// penalty returns the balance-constraint contribution for a given total
// selected weight: zero unless BalanceTarget is set, in which case it's
// proportional to the absolute deviation from the target.
func (p *AdditiveProblem) penalty(weight float64) float64 {
	if p.BalanceTarget == nil {
		return 0
	}
	return math.Abs(weight-*p.BalanceTarget) * p.BalancePenaltyFactor
}

// evaluation is AdditiveProblem's Evaluation implementation: a
// lsearch.PenalizedEvaluation folding the balance penalty into the raw
// additive value, carrying the solution's total weight alongside it so
// DeltaEvaluate can adjust it in O(|move|) instead of resumming every
// selected ID.
type evaluation struct {
	lsearch.PenalizedEvaluation
	weight float64
}

func (p *AdditiveProblem) evaluationFor(value, weight float64) *evaluation {
	inner := lsearch.SimpleEvaluation(value)
	return &evaluation{
		PenalizedEvaluation: lsearch.NewPenalizedEvaluation(inner, p.penalty(weight), p.sense),
		weight:              weight,
	}
}

// Evaluate implements lsearch.Problem.
func (p *AdditiveProblem) Evaluate(s lsearch.Solution) (lsearch.Evaluation, error) {
	sol, err := asSolution(s)
	if err != nil {
		return nil, err
	}
	return p.evaluationFor(p.totalValue(sol), p.totalWeight(sol)), nil
}

// validation is AdditiveProblem's Validation implementation: a
// lsearch.PenalizingValidation carrying the solution's total weight
// alongside pass/fail and penalty, so DeltaValidate can adjust it in
// O(|move|) instead of resumming every selected ID.
type validation struct {
	lsearch.PenalizingValidation
	weight float64
}

func (p *AdditiveProblem) validationFor(weight float64) *validation {
	passed := weight <= p.Capacity
	return &validation{
		PenalizingValidation: lsearch.NewPenalizingValidation(passed, p.penalty(weight)),
		weight:               weight,
	}
}

// Validate implements lsearch.Problem.
func (p *AdditiveProblem) Validate(s lsearch.Solution) (lsearch.Validation, error) {
	sol, err := asSolution(s)
	if err != nil {
		return nil, err
	}
	return p.validationFor(p.totalWeight(sol)), nil
}

func (p *AdditiveProblem) moveDelta(m lsearch.Move) (weightDelta, valueDelta float64, err error) {
	switch mv := m.(type) {
	case SwapMove:
		out, in := p.Stats[mv.Out], p.Stats[mv.In]
		return in.Weight - out.Weight, in.Value - out.Value, nil
	case MultiSwapMove:
		for _, sw := range mv.Swaps {
			out, in := p.Stats[sw.Out], p.Stats[sw.In]
			weightDelta += in.Weight - out.Weight
			valueDelta += in.Value - out.Value
		}
		return weightDelta, valueDelta, nil
	default:
		return 0, 0, fmt.Errorf("subset: unsupported move type %T", m)
	}
}

// DeltaEvaluate implements lsearch.Problem in O(|move|), reading the
// pre-move weight and unpenalized value back out of cur rather than
// resumming the whole solution.
func (p *AdditiveProblem) DeltaEvaluate(m lsearch.Move, s lsearch.Solution, cur lsearch.Evaluation) (lsearch.Evaluation, error) {
	curE, ok := cur.(*evaluation)
	if !ok {
		return nil, fmt.Errorf("subset: DeltaEvaluate given foreign Evaluation %T", cur)
	}
	weightDelta, valueDelta, err := p.moveDelta(m)
	if err != nil {
		return nil, err
	}
	return p.evaluationFor(curE.Inner().Value()+valueDelta, curE.weight+weightDelta), nil
}

// DeltaValidate implements lsearch.Problem in O(|move|), reading the
// pre-move weight back out of cur rather than resumming the whole solution.
func (p *AdditiveProblem) DeltaValidate(m lsearch.Move, s lsearch.Solution, cur lsearch.Validation) (lsearch.Validation, error) {
	curV, ok := cur.(*validation)
	if !ok {
		return nil, fmt.Errorf("subset: DeltaValidate given foreign Validation %T", cur)
	}
	weightDelta, _, err := p.moveDelta(m)
	if err != nil {
		return nil, err
	}
	return p.validationFor(curV.weight + weightDelta), nil
}

// CreateRandomSolution implements lsearch.Problem: selects a random-size
// subset of the universe between minSelected and maxSelected.
func (p *AdditiveProblem) CreateRandomSolution(rng *rand.Rand) (lsearch.Solution, error) {
	if len(p.universe) == 0 {
		return nil, fmt.Errorf("subset: empty universe")
	}
	lo, hi := p.minSelected, p.maxSelected
	if hi > len(p.universe) {
		hi = len(p.universe)
	}
	if lo > hi {
		lo = hi
	}
	count := lo
	if hi > lo {
		count = lo + rng.Intn(hi-lo+1)
	}

	shuffled := shuffleCopy(p.universe, rng)
	selected := append([]int(nil), shuffled[:count]...)
	return NewSolution(p.universe, selected), nil
}
