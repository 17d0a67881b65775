package lsearch

import "sync"

// EvaluatedMoveCache memoizes (Move -> Evaluation) and (Move -> Validation)
// for the current Solution. Entries are keyed by Move.Key(). Clear() MUST be
// invoked by NeighbourhoodSearch.updateCurrentSolution, since a cache is
// only valid while the current Solution hasn't changed since the cache was
// last cleared.
type EvaluatedMoveCache interface {
	GetEval(m Move) (Evaluation, bool)
	GetVal(m Move) (Validation, bool)
	PutEval(m Move, e Evaluation)
	PutVal(m Move, v Validation)
	Clear()
}

type cacheEntry struct {
	eval Evaluation
	val  Validation
	hasE bool
	hasV bool
}

// singleEntryCache holds at most one (key, eval, val) triple: O(1) space,
// evicting on any differently-keyed put.
type singleEntryCache struct {
	mu     sync.Mutex
	hasKey bool
	key    any
	entry  cacheEntry
}

// NewSingleEntryCache returns an EvaluatedMoveCache that remembers only the
// most recently queried Move.
func NewSingleEntryCache() EvaluatedMoveCache {
	return &singleEntryCache{}
}

func (c *singleEntryCache) reset(key any) {
	if !c.hasKey || c.key != key {
		c.hasKey = true
		c.key = key
		c.entry = cacheEntry{}
	}
}

func (c *singleEntryCache) GetEval(m Move) (Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasKey || c.key != m.Key() || !c.entry.hasE {
		return nil, false
	}
	return c.entry.eval, true
}

func (c *singleEntryCache) GetVal(m Move) (Validation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasKey || c.key != m.Key() || !c.entry.hasV {
		return nil, false
	}
	return c.entry.val, true
}

func (c *singleEntryCache) PutEval(m Move, e Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(m.Key())
	c.entry.eval = e
	c.entry.hasE = true
}

func (c *singleEntryCache) PutVal(m Move, v Validation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset(m.Key())
	c.entry.val = v
	c.entry.hasV = true
}

func (c *singleEntryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasKey = false
	c.entry = cacheEntry{}
}

// unboundedCache holds every queried Move until Clear.
type unboundedCache struct {
	mu      sync.Mutex
	entries map[any]*cacheEntry
}

// NewUnboundedCache returns an EvaluatedMoveCache that remembers every
// queried Move until Clear is called.
func NewUnboundedCache() EvaluatedMoveCache {
	return &unboundedCache{entries: make(map[any]*cacheEntry)}
}

func (c *unboundedCache) entryFor(key any) *cacheEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	return e
}

func (c *unboundedCache) GetEval(m Move) (Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[m.Key()]
	if !ok || !e.hasE {
		return nil, false
	}
	return e.eval, true
}

func (c *unboundedCache) GetVal(m Move) (Validation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[m.Key()]
	if !ok || !e.hasV {
		return nil, false
	}
	return e.val, true
}

func (c *unboundedCache) PutEval(m Move, e Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entryFor(m.Key())
	entry.eval = e
	entry.hasE = true
}

func (c *unboundedCache) PutVal(m Move, v Validation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entryFor(m.Key())
	entry.val = v
	entry.hasV = true
}

func (c *unboundedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[any]*cacheEntry)
}

// noCache implements the "None" cache policy: every lookup misses, nothing
// is ever stored. Useful when the Problem's delta evaluation is cheaper
// than a map lookup, or for isolating cache-related bugs.
type noCache struct{}

// NewNoCache returns an EvaluatedMoveCache that never caches anything.
func NewNoCache() EvaluatedMoveCache { return noCache{} }

func (noCache) GetEval(Move) (Evaluation, bool) { return nil, false }
func (noCache) GetVal(Move) (Validation, bool)  { return nil, false }
func (noCache) PutEval(Move, Evaluation)        {}
func (noCache) PutVal(Move, Validation)         {}
func (noCache) Clear()                          {}
