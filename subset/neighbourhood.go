package subset

import (
	"fmt"
	"math/rand"

	"lsearch"
)

// availableOut returns the selected IDs eligible to leave the selection
// (selected \ fixed), ascending.
func availableOut(sol *Solution, fixed map[int]struct{}) []int {
	ids := sol.SelectedIDs()
	return excludeFixed(ids, fixed)
}

// availableIn returns the unselected IDs eligible to enter the selection
// (unselected \ fixed), ascending.
func availableIn(sol *Solution, fixed map[int]struct{}) []int {
	ids := sol.UnselectedIDs()
	return excludeFixed(ids, fixed)
}

func excludeFixed(ids []int, fixed map[int]struct{}) []int {
	if len(fixed) == 0 {
		return ids
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := fixed[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func asSolution(s lsearch.Solution) (*Solution, error) {
	sol, ok := s.(*Solution)
	if !ok {
		return nil, fmt.Errorf("subset: expected *subset.Solution, got %T", s)
	}
	return sol, nil
}

// SingleSwapNeighbourhood enumerates/generates every single-item swap
// between a selected and an unselected ID, honoring a fixed-ID set.
type SingleSwapNeighbourhood struct {
	Fixed map[int]struct{}
}

// RandomMove implements lsearch.Neighbourhood.
func (n *SingleSwapNeighbourhood) RandomMove(s lsearch.Solution, rng *rand.Rand) (lsearch.Move, bool, error) {
	sol, err := asSolution(s)
	if err != nil {
		return nil, false, err
	}
	outs := availableOut(sol, n.Fixed)
	ins := availableIn(sol, n.Fixed)
	if len(outs) == 0 || len(ins) == 0 {
		return nil, false, nil
	}
	out := outs[rng.Intn(len(outs))]
	in := ins[rng.Intn(len(ins))]
	return SwapMove{Out: out, In: in}, true, nil
}

// AllMoves implements lsearch.Neighbourhood: |allMoves| = |outs| * |ins|.
func (n *SingleSwapNeighbourhood) AllMoves(s lsearch.Solution) (lsearch.MoveIterator, error) {
	sol, err := asSolution(s)
	if err != nil {
		return nil, err
	}
	outs := availableOut(sol, n.Fixed)
	ins := availableIn(sol, n.Fixed)
	moves := make([]lsearch.Move, 0, len(outs)*len(ins))
	for _, o := range outs {
		for _, i := range ins {
			moves = append(moves, SwapMove{Out: o, In: i})
		}
	}
	return lsearch.NewMoveSliceIterator(moves), nil
}

// MultiSwapNeighbourhood enumerates/generates simultaneous swaps of up to K
// disjoint (out, in) pairs, honoring a fixed-ID set. K=1 is equivalent to
// SingleSwapNeighbourhood.
type MultiSwapNeighbourhood struct {
	K     int
	Fixed map[int]struct{}
}

// RandomMove implements lsearch.Neighbourhood: picks a random swap count in
// [1, min(K, |outs|, |ins|)], then a random disjoint pairing of that size.
func (n *MultiSwapNeighbourhood) RandomMove(s lsearch.Solution, rng *rand.Rand) (lsearch.Move, bool, error) {
	sol, err := asSolution(s)
	if err != nil {
		return nil, false, err
	}
	outs := availableOut(sol, n.Fixed)
	ins := availableIn(sol, n.Fixed)

	limit := n.K
	if limit > len(outs) {
		limit = len(outs)
	}
	if limit > len(ins) {
		limit = len(ins)
	}
	if limit < 1 {
		return nil, false, nil
	}

	size := 1
	if limit > 1 {
		size = rng.Intn(limit) + 1
	}

	shuffledOuts := shuffleCopy(outs, rng)
	shuffledIns := shuffleCopy(ins, rng)
	swaps := make([]SwapMove, size)
	for i := 0; i < size; i++ {
		swaps[i] = SwapMove{Out: shuffledOuts[i], In: shuffledIns[i]}
	}
	return MultiSwapMove{Swaps: swaps}, true, nil
}

// AllMoves implements lsearch.Neighbourhood, realizing the Θ formula
// |allMoves| = Σ_{i=1..min(K,S,U)} C(S,i)·C(U,i), where S=|outs|, U=|ins|:
// for each swap count i, every (i-subset of outs, i-subset of ins) pair,
// paired up in ascending order, is one distinct move.
func (n *MultiSwapNeighbourhood) AllMoves(s lsearch.Solution) (lsearch.MoveIterator, error) {
	sol, err := asSolution(s)
	if err != nil {
		return nil, err
	}
	outs := availableOut(sol, n.Fixed)
	ins := availableIn(sol, n.Fixed)

	limit := n.K
	if limit > len(outs) {
		limit = len(outs)
	}
	if limit > len(ins) {
		limit = len(ins)
	}

	var moves []lsearch.Move
	for i := 1; i <= limit; i++ {
		outCombos := combinations(outs, i)
		inCombos := combinations(ins, i)
		for _, oc := range outCombos {
			for _, ic := range inCombos {
				swaps := make([]SwapMove, i)
				for j := 0; j < i; j++ {
					swaps[j] = SwapMove{Out: oc[j], In: ic[j]}
				}
				moves = append(moves, MultiSwapMove{Swaps: swaps})
			}
		}
	}
	return lsearch.NewMoveSliceIterator(moves), nil
}

// shuffleCopy returns a Fisher-Yates shuffled copy of ids.
func shuffleCopy(ids []int, rng *rand.Rand) []int {
	out := append([]int(nil), ids...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// combinations returns every r-element combination of items (already
// ascending), each combination itself in ascending order.
func combinations(items []int, r int) [][]int {
	if r <= 0 || r > len(items) {
		return nil
	}
	var results [][]int
	combo := make([]int, r)
	var choose func(start, depth int)
	choose = func(start, depth int) {
		if depth == r {
			results = append(results, append([]int(nil), combo...))
			return
		}
		for i := start; i <= len(items)-(r-depth); i++ {
			combo[depth] = items[i]
			choose(i+1, depth+1)
		}
	}
	choose(0, 0)
	return results
}
