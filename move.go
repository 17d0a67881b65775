package lsearch

// Solution is the opaque, user-supplied representation the engine searches
// over. The engine never introspects a Solution beyond Copy and Equals.
type Solution interface {
	// Copy returns a deep copy of the Solution, independent of the receiver.
	Copy() Solution
	// Equals reports structural equality with other.
	Equals(other Solution) bool
}

// Move is a reversible mutation plan: Apply mutates a Solution in place,
// and Undo restores it to the state just before the matching Apply, so
// that Undo(Apply(s)) leaves s structurally equal to its original state.
// The engine may Apply then later Undo for speculative evaluation, or
// Apply once and never Undo (accepted moves).
//
// Moves are value-like: two Moves producing identical mutations must
// return equal Keys, since Key is used for cache lookups. A Key must be
// comparable (usable as a Go map key); implementers typically return a
// small struct or array of the mutated IDs.
type Move interface {
	// Apply mutates s in place. It returns an *Error with Kind
	// KindIncompatibleMove if s has a shape the Move cannot operate on.
	Apply(s Solution) error
	// Undo reverses the effect of the immediately preceding Apply on s.
	Undo(s Solution) error
	// Key identifies this Move for cache-equality purposes.
	Key() any
}
