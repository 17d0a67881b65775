package lsearch

import (
	"math/rand"
)

// LocalSearch adds current-solution state on top of Search: a mutable
// "current" Solution together with its cached full Evaluation and
// Validation. Embedders get Search's lifecycle/listener/
// stop-criterion/best-solution capabilities for free via promotion.
type LocalSearch struct {
	*Search

	problem Problem
	rng     *rand.Rand

	current     Solution
	currentEval Evaluation
	currentVal  Validation
}

// NewLocalSearch constructs a LocalSearch over problem. impl is the
// outermost concrete Stepper, forwarded to NewSearch for hook dispatch.
func NewLocalSearch(name string, problem Problem, rng *rand.Rand, impl Stepper) *LocalSearch {
	return &LocalSearch{
		Search:  NewSearch(name, impl),
		problem: problem,
		rng:     rng,
	}
}

// Problem returns the Problem this search operates against.
func (ls *LocalSearch) Problem() Problem { return ls.problem }

// Rand returns the search's own random source. Every randomized component
// takes an RNG explicitly, so runs can be replayed deterministically.
func (ls *LocalSearch) Rand() *rand.Rand { return ls.rng }

// CurrentSolution returns the current Solution along with its cached
// Evaluation and Validation.
func (ls *LocalSearch) CurrentSolution() (Solution, Evaluation, Validation) {
	return ls.current, ls.currentEval, ls.currentVal
}

// SetCurrentSolution deep-copies sol, evaluates and validates it via the
// Problem, installs it as the current solution, and updates the
// best-found solution if applicable. Requires the Search to be IDLE: the
// configuration-setter rule applies to current-solution changes too, since
// it is itself search state.
func (ls *LocalSearch) SetCurrentSolution(sol Solution) error {
	ls.mu.Lock()
	if err := ls.assertIdle("LocalSearch.SetCurrentSolution"); err != nil {
		ls.mu.Unlock()
		return err
	}
	ls.mu.Unlock()

	return ls.installSolution(sol)
}

// installSolution does the work of SetCurrentSolution without the IDLE
// assertion, so it can also be invoked from the Started() hook, which runs
// while the Search is already INITIALIZING.
func (ls *LocalSearch) installSolution(sol Solution) error {
	cp := sol.Copy()
	eval, err := ls.problem.Evaluate(cp)
	if err != nil {
		return newError(KindIncompatibleSolution, "LocalSearch.installSolution", err)
	}
	val, err := ls.problem.Validate(cp)
	if err != nil {
		return newError(KindIncompatibleSolution, "LocalSearch.installSolution", err)
	}

	ls.current = cp
	ls.currentEval = eval
	ls.currentVal = val

	ls.considerBest(ls.sense(), cp, eval, val)
	return nil
}

func (ls *LocalSearch) sense() Sense { return ls.problem.Sense() }

// AdoptCurrentSolution installs sol/eval/val as the current solution
// directly, without the IDLE assertion or re-evaluation SetCurrentSolution
// performs. For use by components that manage their own concurrent
// sub-state and already hold a consistent (Solution, Evaluation,
// Validation) triple — the parallel-tempering coordinator adopting a
// replica's solution as its own reporting state each batch.
func (ls *LocalSearch) AdoptCurrentSolution(sol Solution, eval Evaluation, val Validation) {
	ls.current = sol
	ls.currentEval = eval
	ls.currentVal = val
}

// GenerateRandomInitialSolution asks the Problem for a fresh random
// Solution and installs it as current via SetCurrentSolution. Requires IDLE;
// use Started() for lazily generating an initial solution at run start.
func (ls *LocalSearch) GenerateRandomInitialSolution() error {
	sol, err := ls.problem.CreateRandomSolution(ls.rng)
	if err != nil {
		return newError(KindIncompatibleSolution, "LocalSearch.GenerateRandomInitialSolution", err)
	}
	return ls.SetCurrentSolution(sol)
}

// Started implements Starter: if no current solution has been installed by
// the time the run begins, one is generated from the Problem. Embedders
// (NeighbourhoodSearch and concrete strategies) that define their own
// Started must call LocalSearch.Started explicitly to preserve this.
func (ls *LocalSearch) Started() error {
	if ls.current != nil {
		return nil
	}
	sol, err := ls.problem.CreateRandomSolution(ls.rng)
	if err != nil {
		return newError(KindIncompatibleSolution, "LocalSearch.Started", err)
	}
	return ls.installSolution(sol)
}
