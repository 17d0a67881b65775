package lsearch

import (
	"fmt"
	"math/rand"
)

// counterSolution is a minimal Solution for exercising the engine's
// lifecycle/cache/evaluation machinery without a real domain: a single
// bounded integer.
type counterSolution struct {
	Value int
}

func (c *counterSolution) Copy() Solution { return &counterSolution{Value: c.Value} }

func (c *counterSolution) Equals(other Solution) bool {
	o, ok := other.(*counterSolution)
	return ok && o.Value == c.Value
}

// signedMove is implemented by every Move counterProblem knows how to
// delta-evaluate, so test-only Move variants with distinct Keys (e.g.
// tiedMove) can still be recognized by name rather than concrete type.
type signedMove interface {
	Move
	signedDelta() int
}

// deltaMove adds Delta to a counterSolution's Value.
type deltaMove struct {
	Delta int
}

func (m deltaMove) Apply(s Solution) error {
	cs := s.(*counterSolution)
	cs.Value += m.Delta
	return nil
}

func (m deltaMove) Undo(s Solution) error {
	cs := s.(*counterSolution)
	cs.Value -= m.Delta
	return nil
}

func (m deltaMove) Key() any         { return m.Delta }
func (m deltaMove) signedDelta() int { return m.Delta }

// counterProblem maximizes Value subject to 0 <= Value <= Max.
type counterProblem struct {
	Max int
	// brokenDelta, if true, makes DeltaEvaluate return a wrong answer, for
	// exercising DebugDeltaChecks's cross-check.
	brokenDelta bool
}

func (p *counterProblem) Sense() Sense { return Maximize }

func (p *counterProblem) Evaluate(s Solution) (Evaluation, error) {
	return SimpleEvaluation(float64(s.(*counterSolution).Value)), nil
}

func (p *counterProblem) Validate(s Solution) (Validation, error) {
	v := s.(*counterSolution).Value
	return SimpleValidation(v >= 0 && v <= p.Max), nil
}

func (p *counterProblem) DeltaEvaluate(m Move, s Solution, cur Evaluation) (Evaluation, error) {
	sm, ok := m.(signedMove)
	if !ok {
		return nil, fmt.Errorf("counterProblem: unsupported move %T", m)
	}
	delta := sm.signedDelta()
	if p.brokenDelta {
		delta += 1000
	}
	return SimpleEvaluation(cur.Value() + float64(delta)), nil
}

func (p *counterProblem) DeltaValidate(m Move, s Solution, cur Validation) (Validation, error) {
	sm, ok := m.(signedMove)
	if !ok {
		return nil, fmt.Errorf("counterProblem: unsupported move %T", m)
	}
	next := s.(*counterSolution).Value + sm.signedDelta()
	return SimpleValidation(next >= 0 && next <= p.Max), nil
}

func (p *counterProblem) CreateRandomSolution(rng *rand.Rand) (Solution, error) {
	return &counterSolution{Value: rng.Intn(p.Max + 1)}, nil
}

// counterNeighbourhood generates +1/-1 moves, optionally restricted so only
// +1 is ever offered (oneDirectional), for deterministic hill-climbing tests.
type counterNeighbourhood struct {
	oneDirectional bool
}

func (n *counterNeighbourhood) RandomMove(s Solution, rng *rand.Rand) (Move, bool, error) {
	if n.oneDirectional {
		return deltaMove{Delta: 1}, true, nil
	}
	if rng.Intn(2) == 0 {
		return deltaMove{Delta: 1}, true, nil
	}
	return deltaMove{Delta: -1}, true, nil
}

func (n *counterNeighbourhood) AllMoves(s Solution) (MoveIterator, error) {
	if n.oneDirectional {
		return NewMoveSliceIterator([]Move{deltaMove{Delta: 1}}), nil
	}
	return NewMoveSliceIterator([]Move{deltaMove{Delta: 1}, deltaMove{Delta: -1}}), nil
}

// scriptedStepper is a bare Stepper (optionally a Starter/Ender) for testing
// Search's lifecycle in isolation from LocalSearch/NeighbourhoodSearch.
type scriptedStepper struct {
	*Search

	steps       int
	stopAfter   int
	startErr    error
	startCalled int
	stopCalled  int
}

func newScriptedStepper(name string, stopAfter int) *scriptedStepper {
	s := &scriptedStepper{stopAfter: stopAfter}
	s.Search = NewSearch(name, s)
	return s
}

func (s *scriptedStepper) Step() error {
	s.steps++
	if s.steps >= s.stopAfter {
		s.Stop()
	}
	return nil
}

func (s *scriptedStepper) Started() error {
	s.startCalled++
	return s.startErr
}

func (s *scriptedStepper) Stopped() {
	s.stopCalled++
}
