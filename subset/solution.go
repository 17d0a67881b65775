// Package subset is a reference domain exercising lsearch: select a subset
// of a fixed ID universe under a capacity constraint, optionally balancing
// total weight toward a target. It is reference material for the engine's
// test suite and demo command, not part of the engine's own contract.
package subset

import (
	"sort"

	"lsearch"
)

// Solution partitions a fixed universe of integer IDs into Selected and
// Unselected sets.
type Solution struct {
	IDs        []int
	Selected   map[int]struct{}
	Unselected map[int]struct{}
}

// NewSolution builds a Solution over ids with selected marked as initially
// selected; every other ID starts unselected.
func NewSolution(ids []int, selected []int) *Solution {
	sel := make(map[int]struct{}, len(selected))
	for _, id := range selected {
		sel[id] = struct{}{}
	}
	uns := make(map[int]struct{}, len(ids)-len(sel))
	for _, id := range ids {
		if _, ok := sel[id]; !ok {
			uns[id] = struct{}{}
		}
	}
	return &Solution{IDs: ids, Selected: sel, Unselected: uns}
}

// Copy implements lsearch.Solution.
func (s *Solution) Copy() lsearch.Solution {
	sel := make(map[int]struct{}, len(s.Selected))
	for id := range s.Selected {
		sel[id] = struct{}{}
	}
	uns := make(map[int]struct{}, len(s.Unselected))
	for id := range s.Unselected {
		uns[id] = struct{}{}
	}
	return &Solution{IDs: s.IDs, Selected: sel, Unselected: uns}
}

// Equals implements lsearch.Solution: two subset solutions are equal iff
// they select exactly the same IDs.
func (s *Solution) Equals(other lsearch.Solution) bool {
	o, ok := other.(*Solution)
	if !ok || len(s.Selected) != len(o.Selected) {
		return false
	}
	for id := range s.Selected {
		if _, ok := o.Selected[id]; !ok {
			return false
		}
	}
	return true
}

// IsSelected reports whether id is currently selected.
func (s *Solution) IsSelected(id int) bool {
	_, ok := s.Selected[id]
	return ok
}

// SelectedIDs returns the currently selected IDs in ascending order.
func (s *Solution) SelectedIDs() []int {
	ids := make([]int, 0, len(s.Selected))
	for id := range s.Selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// UnselectedIDs returns the currently unselected IDs in ascending order.
func (s *Solution) UnselectedIDs() []int {
	ids := make([]int, 0, len(s.Unselected))
	for id := range s.Unselected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
