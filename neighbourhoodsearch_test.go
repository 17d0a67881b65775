package lsearch

import (
	"errors"
	"math/rand"
	"testing"
)

// fixedNeighbourhoodSearch is a minimal Stepper embedding NeighbourhoodSearch
// for unit-testing Evaluate/Validate/GetBestMove/Accept/Reject directly,
// bypassing a concrete strategy.
type fixedNeighbourhoodSearch struct {
	*NeighbourhoodSearch
}

func (f *fixedNeighbourhoodSearch) Step() error { return nil }

func newFixedNS(t *testing.T, problem Problem, n Neighbourhood, cache EvaluatedMoveCache, initial int) *fixedNeighbourhoodSearch {
	t.Helper()
	f := &fixedNeighbourhoodSearch{}
	f.NeighbourhoodSearch = NewNeighbourhoodSearch("t", problem, n, cache, rand.New(rand.NewSource(1)), f)
	if err := f.SetCurrentSolution(&counterSolution{Value: initial}); err != nil {
		t.Fatalf("SetCurrentSolution: %v", err)
	}
	return f
}

func TestEvaluateUsesDeltaPathAndCachesResult(t *testing.T) {
	p := &counterProblem{Max: 100}
	ns := newFixedNS(t, p, &counterNeighbourhood{}, NewSingleEntryCache(), 10)

	m := deltaMove{Delta: 5}
	e, err := ns.Evaluate(m)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if e.Value() != 15 {
		t.Fatalf("Evaluate(+5 @ 10) = %v, want 15", e.Value())
	}

	cached, ok := ns.cache.GetEval(m)
	if !ok || cached.Value() != 15 {
		t.Fatalf("cache after Evaluate: %v, %v; want 15, true", cached, ok)
	}
}

func TestDebugDeltaChecksCatchesDivergence(t *testing.T) {
	old := DebugDeltaChecks
	DebugDeltaChecks = true
	defer func() { DebugDeltaChecks = old }()

	p := &counterProblem{Max: 100, brokenDelta: true}
	ns := newFixedNS(t, p, &counterNeighbourhood{}, NewSingleEntryCache(), 10)

	_, err := ns.Evaluate(deltaMove{Delta: 5})
	if err == nil {
		t.Fatal("Evaluate with broken delta path: want error, got nil")
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindIncompatibleDeltaEvaluation {
		t.Fatalf("err = %v, want KindIncompatibleDeltaEvaluation", err)
	}
}

func TestGetBestMoveTieBreaksOnFirstSeen(t *testing.T) {
	p := &counterProblem{Max: 100}
	// Two moves with identical sense-adjusted delta (+1) but distinct keys:
	// deltaMove{Delta: 1} first, then tiedMove, which behaves like it.
	moves := []Move{deltaMove{Delta: 1}, tiedMove{}}
	ns := newFixedNS(t, p, &counterNeighbourhood{}, NewSingleEntryCache(), 10)

	it := NewMoveSliceIterator(moves)
	best, ok, err := ns.GetBestMove(it, true)
	if err != nil {
		t.Fatalf("GetBestMove: %v", err)
	}
	if !ok {
		t.Fatal("GetBestMove: ok = false, want true")
	}
	if best.Key() != (deltaMove{Delta: 1}).Key() {
		t.Fatalf("GetBestMove tie-break = %v, want first-seen deltaMove{1}", best)
	}
}

// tiedMove behaves exactly like deltaMove{Delta: 1} but carries a distinct
// Key, so it can appear alongside deltaMove{Delta: 1} in a tie-break test
// without the cache conflating the two.
type tiedMove struct{}

func (tiedMove) Apply(s Solution) error { return deltaMove{Delta: 1}.Apply(s) }
func (tiedMove) Undo(s Solution) error  { return deltaMove{Delta: 1}.Undo(s) }
func (tiedMove) Key() any               { return "tied" }
func (tiedMove) signedDelta() int       { return 1 }

func TestGetBestMoveRequireImprovementSemantics(t *testing.T) {
	p := &counterProblem{Max: 100}
	ns := newFixedNS(t, p, &counterNeighbourhood{}, NewSingleEntryCache(), 10)

	// From a valid current solution, requireImprovement restricts to
	// strictly-positive-delta moves: the -1 move must not qualify.
	it := NewMoveSliceIterator([]Move{deltaMove{Delta: -1}})
	_, ok, err := ns.GetBestMove(it, true)
	if err != nil {
		t.Fatalf("GetBestMove: %v", err)
	}
	if ok {
		t.Fatal("a worsening move qualified under requireImprovement from a valid current solution")
	}

	// Force an invalid current solution (Value > Max, via a Problem with a
	// lower cap than SetCurrentSolution's own validation checks): any valid
	// move must now qualify, even a worsening one, since requireImprovement
	// only restricts moves when the current solution is itself valid.
	invalidP := &counterProblem{Max: 0}
	invalidNS := newFixedNS(t, invalidP, &counterNeighbourhood{}, NewSingleEntryCache(), 0)
	// Bypass SetCurrentSolution's own evaluate/validate round-trip so the
	// installed current solution is deliberately out of bounds.
	invalidNS.AdoptCurrentSolution(&counterSolution{Value: 5}, SimpleEvaluation(5), SimpleValidation(false))

	it2 := NewMoveSliceIterator([]Move{deltaMove{Delta: -5}})
	_, ok2, err := invalidNS.GetBestMove(it2, true)
	if err != nil {
		t.Fatalf("GetBestMove: %v", err)
	}
	if !ok2 {
		t.Fatal("a valid move from an invalid current solution should always qualify")
	}
}

func TestAcceptAppliesMoveAndUpdatesCounters(t *testing.T) {
	p := &counterProblem{Max: 100}
	ns := newFixedNS(t, p, &counterNeighbourhood{}, NewSingleEntryCache(), 10)

	accepted, err := ns.Accept(deltaMove{Delta: 5})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if !accepted {
		t.Fatal("Accept: want true")
	}
	sol, eval, _ := ns.CurrentSolution()
	if sol.(*counterSolution).Value != 15 || eval.Value() != 15 {
		t.Fatalf("current solution after accept = %+v/%v, want 15/15", sol, eval.Value())
	}
	if n := ns.numAccepted.Load(); n != 1 {
		t.Fatalf("numAccepted = %d, want 1", n)
	}

	ns.Reject(deltaMove{Delta: -1})
	if n := ns.numRejected.Load(); n != 1 {
		t.Fatalf("numRejected = %d, want 1", n)
	}
}

func TestAcceptRejectsInvalidMoveWithoutApplying(t *testing.T) {
	p := &counterProblem{Max: 10}
	ns := newFixedNS(t, p, &counterNeighbourhood{}, NewSingleEntryCache(), 10)

	accepted, err := ns.Accept(deltaMove{Delta: 5}) // would push Value to 15 > Max
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted {
		t.Fatal("Accept of an out-of-bounds move: want false")
	}
	sol, _, _ := ns.CurrentSolution()
	if sol.(*counterSolution).Value != 10 {
		t.Fatalf("current solution mutated despite failed validation: %+v", sol)
	}
}
