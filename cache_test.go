package lsearch

import "testing"

func TestSingleEntryCacheEvictsOnDifferentKey(t *testing.T) {
	c := NewSingleEntryCache()
	a, b := deltaMove{Delta: 1}, deltaMove{Delta: -1}

	c.PutEval(a, SimpleEvaluation(10))
	if e, ok := c.GetEval(a); !ok || e.Value() != 10 {
		t.Fatalf("GetEval(a) = %v, %v; want 10, true", e, ok)
	}

	// Querying a different key evicts a's entry entirely.
	c.PutEval(b, SimpleEvaluation(20))
	if _, ok := c.GetEval(a); ok {
		t.Fatal("a's entry should have been evicted by b's put")
	}
	if e, ok := c.GetEval(b); !ok || e.Value() != 20 {
		t.Fatalf("GetEval(b) = %v, %v; want 20, true", e, ok)
	}
}

func TestSingleEntryCacheClear(t *testing.T) {
	c := NewSingleEntryCache()
	m := deltaMove{Delta: 1}
	c.PutEval(m, SimpleEvaluation(1))
	c.Clear()
	if _, ok := c.GetEval(m); ok {
		t.Fatal("GetEval after Clear: want miss")
	}
}

func TestUnboundedCacheRemembersEveryKey(t *testing.T) {
	c := NewUnboundedCache()
	moves := []deltaMove{{Delta: 1}, {Delta: -1}, {Delta: 2}, {Delta: -2}}
	for i, m := range moves {
		c.PutEval(m, SimpleEvaluation(float64(i)))
	}
	for i, m := range moves {
		e, ok := c.GetEval(m)
		if !ok || e.Value() != float64(i) {
			t.Fatalf("GetEval(%v) = %v, %v; want %v, true", m, e, ok, i)
		}
	}
	c.Clear()
	for _, m := range moves {
		if _, ok := c.GetEval(m); ok {
			t.Fatalf("GetEval(%v) after Clear: want miss", m)
		}
	}
}

func TestNoCacheNeverHits(t *testing.T) {
	c := NewNoCache()
	m := deltaMove{Delta: 1}
	c.PutEval(m, SimpleEvaluation(1))
	c.PutVal(m, SimpleValidation(true))
	if _, ok := c.GetEval(m); ok {
		t.Fatal("noCache GetEval: want permanent miss")
	}
	if _, ok := c.GetVal(m); ok {
		t.Fatal("noCache GetVal: want permanent miss")
	}
}
