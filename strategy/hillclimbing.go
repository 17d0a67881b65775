// Package strategy provides concrete lsearch.Stepper implementations: hill
// climbing, simulated annealing, and tabu search, all built on
// lsearch.NeighbourhoodSearch's protected primitives.
package strategy

import (
	"math/rand"

	"lsearch"
)

// HillClimbing is a NeighbourhoodSearch strategy that either scans the
// entire neighbourhood for the steepest improving move (steepest descent)
// or accepts the first improving move it encounters (first improvement).
// It stops the search once no improving move exists (a local optimum).
type HillClimbing struct {
	*lsearch.NeighbourhoodSearch

	firstImprovement bool
}

// NewSteepestDescentHillClimbing constructs a HillClimbing strategy that
// evaluates the whole neighbourhood each step and accepts the best move.
func NewSteepestDescentHillClimbing(name string, problem lsearch.Problem, neighbourhood lsearch.Neighbourhood, cache lsearch.EvaluatedMoveCache, rng *rand.Rand) *HillClimbing {
	hc := &HillClimbing{firstImprovement: false}
	hc.NeighbourhoodSearch = lsearch.NewNeighbourhoodSearch(name, problem, neighbourhood, cache, rng, hc)
	return hc
}

// NewFirstImprovementHillClimbing constructs a HillClimbing strategy that
// accepts the first improving move it finds while scanning the
// neighbourhood, without evaluating the rest.
func NewFirstImprovementHillClimbing(name string, problem lsearch.Problem, neighbourhood lsearch.Neighbourhood, cache lsearch.EvaluatedMoveCache, rng *rand.Rand) *HillClimbing {
	hc := &HillClimbing{firstImprovement: true}
	hc.NeighbourhoodSearch = lsearch.NewNeighbourhoodSearch(name, problem, neighbourhood, cache, rng, hc)
	return hc
}

// Step implements lsearch.Stepper.
func (hc *HillClimbing) Step() error {
	current, _, _ := hc.CurrentSolution()
	it, err := hc.Neighbourhood().AllMoves(current)
	if err != nil {
		return err
	}

	if hc.firstImprovement {
		return hc.stepFirstImprovement(it)
	}
	return hc.stepSteepestDescent(it)
}

func (hc *HillClimbing) stepFirstImprovement(it lsearch.MoveIterator) error {
	for {
		m, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		isImprovement, err := hc.IsImprovement(m)
		if err != nil {
			return err
		}
		if !isImprovement {
			continue
		}
		accepted, err := hc.Accept(m)
		if err != nil {
			return err
		}
		if !accepted {
			hc.Reject(m)
		}
		return nil
	}

	// No improving move exists anywhere in the neighbourhood: local optimum.
	hc.Stop()
	return nil
}

func (hc *HillClimbing) stepSteepestDescent(it lsearch.MoveIterator) error {
	best, ok, err := hc.GetBestMove(it, true)
	if err != nil {
		return err
	}
	if !ok {
		hc.Stop()
		return nil
	}
	if _, err := hc.Accept(best); err != nil {
		return err
	}
	return nil
}
