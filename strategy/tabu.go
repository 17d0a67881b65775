package strategy

import (
	"fmt"
	"math/rand"

	"lsearch"
)

// Tabu is a NeighbourhoodSearch strategy that forbids re-applying any of
// the last Tenure accepted moves' keys, forcing the search away from
// recently visited solutions via a MoveFilter built from a tenure list
// rather than a static exclusion set. Each step picks the best non-tabu
// move over the whole neighbourhood, regardless of whether it improves on
// the current solution.
type Tabu struct {
	*lsearch.NeighbourhoodSearch

	tenure int
	recent []any
	next   int
}

// NewTabu constructs a Tabu strategy with the given tenure (the number of
// most-recently-accepted move keys that remain forbidden). tenure must be
// >= 1.
func NewTabu(name string, problem lsearch.Problem, neighbourhood lsearch.Neighbourhood, cache lsearch.EvaluatedMoveCache, rng *rand.Rand, tenure int) (*Tabu, error) {
	if tenure < 1 {
		return nil, fmt.Errorf("strategy: tabu tenure must be >= 1, got %d", tenure)
	}
	t := &Tabu{tenure: tenure}
	t.NeighbourhoodSearch = lsearch.NewNeighbourhoodSearch(name, problem, neighbourhood, cache, rng, t)
	return t, nil
}

// Started implements lsearch.Starter on top of NeighbourhoodSearch.Started:
// it clears the tenure list for the new run.
func (t *Tabu) Started() error {
	if err := t.NeighbourhoodSearch.Started(); err != nil {
		return err
	}
	t.recent = make([]any, 0, t.tenure)
	t.next = 0
	return nil
}

func (t *Tabu) isTabu(key any) bool {
	for _, k := range t.recent {
		if k == key {
			return true
		}
	}
	return false
}

func (t *Tabu) markTabu(key any) {
	if len(t.recent) < t.tenure {
		t.recent = append(t.recent, key)
		return
	}
	t.recent[t.next] = key
	t.next = (t.next + 1) % t.tenure
}

// Step implements lsearch.Stepper.
func (t *Tabu) Step() error {
	current, _, _ := t.CurrentSolution()
	it, err := t.Neighbourhood().AllMoves(current)
	if err != nil {
		return err
	}

	notTabu := func(m lsearch.Move) bool { return !t.isTabu(m.Key()) }

	best, ok, err := t.GetBestMove(it, false, notTabu)
	if err != nil {
		return err
	}
	if !ok {
		// Entire neighbourhood is tabu or invalid: nothing to do this step.
		t.Stop()
		return nil
	}

	key := best.Key()
	accepted, err := t.Accept(best)
	if err != nil {
		return err
	}
	if !accepted {
		t.Reject(best)
		return nil
	}
	t.markTabu(key)
	return nil
}
