package lsearch

import "math/rand"

// Problem owns a Solution's objective and constraints: full evaluation and
// validation, delta (incremental) evaluation/validation for a single Move,
// and random-solution generation. Implementations must be safe for
// concurrent reads — a running Search never mutates a Problem.
//
// Delta contract: for any Move m applicable to s,
//
//	Evaluate(Apply(m, s)).Value() == DeltaEvaluate(m, s, Evaluate(s)).Value()
//
// up to DeltaTolerance. NeighbourhoodSearch.Evaluate/Validate check this in
// debug mode (see DebugDeltaChecks) and raise KindIncompatibleDeltaEvaluation /
// KindIncompatibleDeltaValidation otherwise.
type Problem interface {
	// Sense reports whether the objective is minimized or maximized.
	Sense() Sense
	// Evaluate computes the full Evaluation of s.
	Evaluate(s Solution) (Evaluation, error)
	// Validate computes the full Validation of s.
	Validate(s Solution) (Validation, error)
	// DeltaEvaluate computes the Evaluation of Apply(m, s) without fully
	// recomputing it, given s's current Evaluation cur.
	DeltaEvaluate(m Move, s Solution, cur Evaluation) (Evaluation, error)
	// DeltaValidate computes the Validation of Apply(m, s) without fully
	// recomputing it, given s's current Validation cur.
	DeltaValidate(m Move, s Solution, cur Validation) (Validation, error)
	// CreateRandomSolution produces a random, structurally valid starting
	// Solution.
	CreateRandomSolution(rng *rand.Rand) (Solution, error)
}

// DeltaTolerance is the default tolerance used when comparing delta-path
// results against full recomputation.
const DeltaTolerance = 1e-10
