package strategy

import (
	"math/rand"

	"lsearch"
)

// counterSolution/counterProblem/counterNeighbourhood mirror the lsearch
// package's own toy fixtures, duplicated here (strategy cannot import
// lsearch's unexported test helpers across package boundaries) for exercising
// each strategy's Step logic without a real domain.
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

// counterProblem maximizes Value subject to Min <= Value <= Max.
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
	moves := n.allDeltas()
	return moves[rng.Intn(len(moves))], true, nil
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
