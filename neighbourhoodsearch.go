package lsearch

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
)

// DebugDeltaChecks, when true, makes NeighbourhoodSearch.Evaluate and
// Validate cross-check every delta-path result against a full recomputation,
// raising KindIncompatibleDeltaEvaluation / KindIncompatibleDeltaValidation
// on mismatch beyond DeltaTolerance. Off by default since it doubles the
// cost of every move inspection; flip it on in tests and during Problem
// development.
var DebugDeltaChecks = false

// MoveFilter excludes a Move from GetBestMove's search when it returns
// false, e.g. a tabu-tenure filter.
type MoveFilter func(m Move) bool

// NeighbourhoodSearch adds neighbourhood exploration on top of LocalSearch:
// cache-assisted delta evaluation/validation, best-move selection, and
// accept/reject bookkeeping. Concrete strategies (hill climbing, simulated
// annealing, tabu) embed *NeighbourhoodSearch and implement Step by calling
// GetBestMove/Accept/Reject.
type NeighbourhoodSearch struct {
	*LocalSearch

	neighbourhood Neighbourhood
	cache         EvaluatedMoveCache

	numAccepted atomic.Int64
	numRejected atomic.Int64
}

// NewNeighbourhoodSearch constructs a NeighbourhoodSearch. impl is the
// outermost concrete Stepper, forwarded down to NewSearch for hook dispatch.
func NewNeighbourhoodSearch(name string, problem Problem, neighbourhood Neighbourhood, cache EvaluatedMoveCache, rng *rand.Rand, impl Stepper) *NeighbourhoodSearch {
	return &NeighbourhoodSearch{
		LocalSearch:   NewLocalSearch(name, problem, rng, impl),
		neighbourhood: neighbourhood,
		cache:         cache,
	}
}

// Neighbourhood returns the Neighbourhood this search explores.
func (ns *NeighbourhoodSearch) Neighbourhood() Neighbourhood { return ns.neighbourhood }

// SetNeighbourhood replaces the Neighbourhood. Requires IDLE.
func (ns *NeighbourhoodSearch) SetNeighbourhood(n Neighbourhood) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if err := ns.assertIdle("NeighbourhoodSearch.SetNeighbourhood"); err != nil {
		return err
	}
	ns.neighbourhood = n
	return nil
}

// SetEvaluatedMoveCache replaces the move cache. Requires IDLE.
func (ns *NeighbourhoodSearch) SetEvaluatedMoveCache(c EvaluatedMoveCache) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if err := ns.assertIdle("NeighbourhoodSearch.SetEvaluatedMoveCache"); err != nil {
		return err
	}
	ns.cache = c
	return nil
}

// NumAcceptedMoves returns the number of moves accepted during the
// current/last run, or InvalidMoveCount while INITIALIZING.
func (ns *NeighbourhoodSearch) NumAcceptedMoves() int64 {
	if !ns.inObservationWindow() {
		return int64(InvalidMoveCount)
	}
	return ns.numAccepted.Load()
}

// NumRejectedMoves returns the number of moves rejected during the
// current/last run, or InvalidMoveCount while INITIALIZING.
func (ns *NeighbourhoodSearch) NumRejectedMoves() int64 {
	if !ns.inObservationWindow() {
		return int64(InvalidMoveCount)
	}
	return ns.numRejected.Load()
}

// Started implements Starter on top of LocalSearch.Started: it chains to
// the embedded layer first (so a random initial solution is generated if
// none was set), then resets the accept/reject counters and clears the
// move cache for the new run.
func (ns *NeighbourhoodSearch) Started() error {
	if err := ns.LocalSearch.Started(); err != nil {
		return err
	}
	ns.numAccepted.Store(0)
	ns.numRejected.Store(0)
	ns.cache.Clear()
	return nil
}

// Evaluate returns the Evaluation of applying m to the current solution,
// consulting the cache first and falling back to the Problem's delta path.
func (ns *NeighbourhoodSearch) Evaluate(m Move) (Evaluation, error) {
	if e, ok := ns.cache.GetEval(m); ok {
		return e, nil
	}

	current, curEval, _ := ns.CurrentSolution()
	e, err := ns.problem.DeltaEvaluate(m, current, curEval)
	if err != nil {
		return nil, newError(KindIncompatibleMove, "NeighbourhoodSearch.Evaluate", err)
	}

	if DebugDeltaChecks {
		if err := ns.checkDeltaEvaluation(m, current, e); err != nil {
			return nil, err
		}
	}

	ns.cache.PutEval(m, e)
	return e, nil
}

// Validate returns the Validation of applying m to the current solution,
// consulting the cache first and falling back to the Problem's delta path.
func (ns *NeighbourhoodSearch) Validate(m Move) (Validation, error) {
	if v, ok := ns.cache.GetVal(m); ok {
		return v, nil
	}

	current, _, curVal := ns.CurrentSolution()
	v, err := ns.problem.DeltaValidate(m, current, curVal)
	if err != nil {
		return nil, newError(KindIncompatibleMove, "NeighbourhoodSearch.Validate", err)
	}

	if DebugDeltaChecks {
		if err := ns.checkDeltaValidation(m, current, v); err != nil {
			return nil, err
		}
	}

	ns.cache.PutVal(m, v)
	return v, nil
}

func (ns *NeighbourhoodSearch) checkDeltaEvaluation(m Move, current Solution, delta Evaluation) error {
	applied := current.Copy()
	if err := m.Apply(applied); err != nil {
		return newError(KindIncompatibleMove, "NeighbourhoodSearch.checkDeltaEvaluation", err)
	}
	full, err := ns.problem.Evaluate(applied)
	if err != nil {
		return newError(KindIncompatibleMove, "NeighbourhoodSearch.checkDeltaEvaluation", err)
	}
	if math.Abs(full.Value()-delta.Value()) > DeltaTolerance {
		return newError(KindIncompatibleDeltaEvaluation, "NeighbourhoodSearch.checkDeltaEvaluation",
			fmt.Errorf("delta evaluation %v diverges from full evaluation %v beyond tolerance %v", delta.Value(), full.Value(), DeltaTolerance))
	}
	return nil
}

func (ns *NeighbourhoodSearch) checkDeltaValidation(m Move, current Solution, delta Validation) error {
	applied := current.Copy()
	if err := m.Apply(applied); err != nil {
		return newError(KindIncompatibleMove, "NeighbourhoodSearch.checkDeltaValidation", err)
	}
	full, err := ns.problem.Validate(applied)
	if err != nil {
		return newError(KindIncompatibleMove, "NeighbourhoodSearch.checkDeltaValidation", err)
	}
	if full.Passed() != delta.Passed() {
		return newError(KindIncompatibleDeltaValidation, "NeighbourhoodSearch.checkDeltaValidation",
			fmt.Errorf("delta validation passed=%v diverges from full validation passed=%v", delta.Passed(), full.Passed()))
	}
	return nil
}

// IsImprovement reports whether m, applied to the current solution, both
// passes validation and improves on the current evaluation (sense-adjusted).
// A move is also an improvement whenever the current solution is itself
// invalid, since any valid move is progress in that case.
func (ns *NeighbourhoodSearch) IsImprovement(m Move) (bool, error) {
	if m == nil {
		return false, nil
	}
	val, err := ns.Validate(m)
	if err != nil {
		return false, err
	}
	if !val.Passed() {
		return false, nil
	}

	_, curEval, curVal := ns.CurrentSolution()
	if curVal != nil && curVal.Passed() {
		eval, err := ns.Evaluate(m)
		if err != nil {
			return false, err
		}
		return ns.sense().Delta(curEval, eval) > 0, nil
	}
	return true, nil
}

// GetBestMove scans moves, returning the valid move with the greatest
// sense-adjusted delta over the current evaluation (first move seen wins
// ties). If requireImprovement is true and the current solution is valid,
// only moves with a strictly positive delta qualify; if the current
// solution is invalid, any valid move qualifies regardless. filters are
// applied before validation, in order; a move rejected by any filter is
// skipped entirely. Returns ok=false if no qualifying move exists.
func (ns *NeighbourhoodSearch) GetBestMove(it MoveIterator, requireImprovement bool, filters ...MoveFilter) (Move, bool, error) {
	_, curEval, curVal := ns.CurrentSolution()
	curValid := curVal != nil && curVal.Passed()

	var (
		found     bool
		bestMove  Move
		bestDelta float64
		bestEval  Evaluation
		bestVal   Validation
	)

	for {
		m, ok, err := it.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			break
		}

		skip := false
		for _, f := range filters {
			if !f(m) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		val, err := ns.Validate(m)
		if err != nil {
			return nil, false, err
		}
		if !val.Passed() {
			continue
		}

		eval, err := ns.Evaluate(m)
		if err != nil {
			return nil, false, err
		}
		delta := ns.sense().Delta(curEval, eval)

		if requireImprovement && curValid && delta <= 0 {
			continue
		}

		if !found || delta > bestDelta {
			found = true
			bestMove, bestDelta, bestEval, bestVal = m, delta, eval, val
		}
	}

	if !found {
		return nil, false, nil
	}

	// Re-prime the cache with the winner's result in case a SingleEntry
	// cache evicted it while scanning later candidates.
	ns.cache.PutEval(bestMove, bestEval)
	ns.cache.PutVal(bestMove, bestVal)

	return bestMove, true, nil
}

// Accept applies m to the current solution. Validation and evaluation are
// always computed before Apply, since the delta path reads pre-apply state;
// reversing this order would evaluate m against a solution it has already
// mutated. Returns false, nil if m fails validation (m is left unapplied
// and counted as a rejection is the caller's responsibility in that case,
// via Reject).
func (ns *NeighbourhoodSearch) Accept(m Move) (bool, error) {
	val, err := ns.Validate(m)
	if err != nil {
		return false, err
	}
	if !val.Passed() {
		return false, nil
	}
	eval, err := ns.Evaluate(m)
	if err != nil {
		return false, err
	}

	current, _, _ := ns.CurrentSolution()
	if err := m.Apply(current); err != nil {
		return false, newError(KindIncompatibleMove, "NeighbourhoodSearch.Accept", err)
	}

	ns.current = current
	ns.currentEval = eval
	ns.currentVal = val

	ns.considerBest(ns.sense(), current, eval, val)

	ns.cache.Clear()
	ns.numAccepted.Add(1)
	return true, nil
}

// Reject records m as rejected without applying it. Strategies that track
// additional per-rejection state (e.g. tabu tenure) override this and call
// NeighbourhoodSearch.Reject to preserve the counter.
func (ns *NeighbourhoodSearch) Reject(m Move) {
	ns.numRejected.Add(1)
}
