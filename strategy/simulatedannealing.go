package strategy

import (
	"fmt"
	"math"
	"math/rand"

	"lsearch"
)

// SimulatedAnnealing is a NeighbourhoodSearch strategy implementing
// Metropolis acceptance: a random move that improves the current solution
// is always accepted; one that worsens it is accepted with probability
// exp(delta/Temperature).
type SimulatedAnnealing struct {
	*lsearch.NeighbourhoodSearch

	Temperature float64
}

// NewSimulatedAnnealing constructs a SimulatedAnnealing strategy at a fixed
// temperature. temperature must be > 0.
func NewSimulatedAnnealing(name string, problem lsearch.Problem, neighbourhood lsearch.Neighbourhood, cache lsearch.EvaluatedMoveCache, rng *rand.Rand, temperature float64) (*SimulatedAnnealing, error) {
	if temperature <= 0 {
		return nil, fmt.Errorf("strategy: simulated annealing temperature must be > 0, got %v", temperature)
	}
	sa := &SimulatedAnnealing{Temperature: temperature}
	sa.NeighbourhoodSearch = lsearch.NewNeighbourhoodSearch(name, problem, neighbourhood, cache, rng, sa)
	return sa, nil
}

// Step implements lsearch.Stepper.
func (sa *SimulatedAnnealing) Step() error {
	current, _, _ := sa.CurrentSolution()
	m, ok, err := sa.Neighbourhood().RandomMove(current, sa.Rand())
	if err != nil {
		return err
	}
	if !ok {
		// No move generable from the current solution this step; try again
		// next step rather than stopping, since this is a transient state.
		return nil
	}

	val, err := sa.Validate(m)
	if err != nil {
		return err
	}
	if !val.Passed() {
		sa.Reject(m)
		return nil
	}

	eval, err := sa.Evaluate(m)
	if err != nil {
		return err
	}
	_, curEval, _ := sa.CurrentSolution()
	delta := sa.Problem().Sense().Delta(curEval, eval)

	accept := delta >= 0
	if !accept {
		accept = sa.Rand().Float64() < math.Exp(delta/sa.Temperature)
	}

	if !accept {
		sa.Reject(m)
		return nil
	}
	_, err = sa.Accept(m)
	return err
}
