package subset

import (
	"fmt"
	"sort"
	"strings"

	"lsearch"
)

// SwapMove removes Out from the selected set and adds In from the
// unselected set. It is its own inverse with Out/In swapped.
type SwapMove struct {
	Out int
	In  int
}

// Apply implements lsearch.Move.
func (m SwapMove) Apply(s lsearch.Solution) error {
	sol, ok := s.(*Solution)
	if !ok {
		return fmt.Errorf("subset: SwapMove applied to %T, want *subset.Solution", s)
	}
	if _, ok := sol.Selected[m.Out]; !ok {
		return fmt.Errorf("subset: SwapMove.Out=%d is not selected", m.Out)
	}
	if _, ok := sol.Unselected[m.In]; !ok {
		return fmt.Errorf("subset: SwapMove.In=%d is not unselected", m.In)
	}
	delete(sol.Selected, m.Out)
	sol.Unselected[m.Out] = struct{}{}
	delete(sol.Unselected, m.In)
	sol.Selected[m.In] = struct{}{}
	return nil
}

// Undo implements lsearch.Move by applying the inverse swap.
func (m SwapMove) Undo(s lsearch.Solution) error {
	return SwapMove{Out: m.In, In: m.Out}.Apply(s)
}

// Key implements lsearch.Move. SwapMove is a plain comparable struct, so it
// is its own key.
func (m SwapMove) Key() any { return m }

// MultiSwapMove applies several disjoint SwapMoves as one atomic move.
type MultiSwapMove struct {
	Swaps []SwapMove
}

// Apply implements lsearch.Move, rolling back any swaps already applied if
// a later one fails (e.g. a stale move against a solution that changed
// concurrently).
func (m MultiSwapMove) Apply(s lsearch.Solution) error {
	applied := 0
	for _, sw := range m.Swaps {
		if err := sw.Apply(s); err != nil {
			for i := applied - 1; i >= 0; i-- {
				m.Swaps[i].Undo(s) //nolint:errcheck // best-effort rollback of a move we just applied
			}
			return err
		}
		applied++
	}
	return nil
}

// Undo implements lsearch.Move, undoing swaps in reverse order.
func (m MultiSwapMove) Undo(s lsearch.Solution) error {
	for i := len(m.Swaps) - 1; i >= 0; i-- {
		if err := m.Swaps[i].Undo(s); err != nil {
			return err
		}
	}
	return nil
}

// Key implements lsearch.Move: a canonical (order-independent) string over
// the sorted swap set, so two MultiSwapMoves touching the same IDs compare
// equal regardless of construction order.
func (m MultiSwapMove) Key() any {
	sorted := append([]SwapMove(nil), m.Swaps...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Out != sorted[j].Out {
			return sorted[i].Out < sorted[j].Out
		}
		return sorted[i].In < sorted[j].In
	})
	var b strings.Builder
	for _, sw := range sorted {
		fmt.Fprintf(&b, "%d:%d;", sw.Out, sw.In)
	}
	return b.String()
}
