package tempering

import (
	"math/rand"
	"sync/atomic"
	"time"

	"lsearch"
)

// counterSolution/counterProblem/counterNeighbourhood mirror the toy
// fixtures used across the other packages' test suites, duplicated here
// since tempering cannot reach into another package's test-only types.
type counterSolution struct {
	Value int
}

func (c *counterSolution) Copy() lsearch.Solution { return &counterSolution{Value: c.Value} }

func (c *counterSolution) Equals(other lsearch.Solution) bool {
	o, ok := other.(*counterSolution)
	return ok && o.Value == c.Value
}

type deltaMove struct {
	Delta int
}

func (m deltaMove) Apply(s lsearch.Solution) error {
	cs := s.(*counterSolution)
	cs.Value += m.Delta
	return nil
}

func (m deltaMove) Undo(s lsearch.Solution) error {
	cs := s.(*counterSolution)
	cs.Value -= m.Delta
	return nil
}

func (m deltaMove) Key() any { return m.Delta }

type counterProblem struct {
	Min, Max int
}

func (p *counterProblem) Sense() lsearch.Sense { return lsearch.Maximize }

func (p *counterProblem) Evaluate(s lsearch.Solution) (lsearch.Evaluation, error) {
	return lsearch.SimpleEvaluation(float64(s.(*counterSolution).Value)), nil
}

func (p *counterProblem) Validate(s lsearch.Solution) (lsearch.Validation, error) {
	v := s.(*counterSolution).Value
	return lsearch.SimpleValidation(v >= p.Min && v <= p.Max), nil
}

func (p *counterProblem) DeltaEvaluate(m lsearch.Move, s lsearch.Solution, cur lsearch.Evaluation) (lsearch.Evaluation, error) {
	return lsearch.SimpleEvaluation(cur.Value() + float64(m.(deltaMove).Delta)), nil
}

func (p *counterProblem) DeltaValidate(m lsearch.Move, s lsearch.Solution, cur lsearch.Validation) (lsearch.Validation, error) {
	next := s.(*counterSolution).Value + m.(deltaMove).Delta
	return lsearch.SimpleValidation(next >= p.Min && next <= p.Max), nil
}

func (p *counterProblem) CreateRandomSolution(rng *rand.Rand) (lsearch.Solution, error) {
	return &counterSolution{Value: p.Min + rng.Intn(p.Max-p.Min+1)}, nil
}

// counterNeighbourhood generates/enumerates every step in [-span, span] \ {0}.
type counterNeighbourhood struct {
	span int
}

func (n *counterNeighbourhood) RandomMove(s lsearch.Solution, rng *rand.Rand) (lsearch.Move, bool, error) {
	deltas := n.allDeltas()
	return deltas[rng.Intn(len(deltas))], true, nil
}

func (n *counterNeighbourhood) AllMoves(s lsearch.Solution) (lsearch.MoveIterator, error) {
	deltas := n.allDeltas()
	moves := make([]lsearch.Move, len(deltas))
	for i, d := range deltas {
		moves[i] = d
	}
	return lsearch.NewMoveSliceIterator(moves), nil
}

func (n *counterNeighbourhood) allDeltas() []deltaMove {
	var moves []deltaMove
	for d := -n.span; d <= n.span; d++ {
		if d != 0 {
			moves = append(moves, deltaMove{Delta: d})
		}
	}
	return moves
}

// slowNeighbourhood wraps counterNeighbourhood with an artificial per-move
// delay, so a test can observe a batch being interrupted mid-flight instead
// of racing to complete it. calls counts every RandomMove invocation across
// all replicas, for asserting how much of a huge batch actually ran.
type slowNeighbourhood struct {
	counterNeighbourhood
	delay atomic.Int64 // nanoseconds
	calls atomic.Int64
}

func (n *slowNeighbourhood) RandomMove(s lsearch.Solution, rng *rand.Rand) (lsearch.Move, bool, error) {
	n.calls.Add(1)
	time.Sleep(time.Duration(n.delay.Load()))
	return n.counterNeighbourhood.RandomMove(s, rng)
}
