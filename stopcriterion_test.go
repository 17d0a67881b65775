package lsearch

import (
	"testing"
	"time"
)

// neverStoppingStepper runs forever until a stop criterion (or an explicit
// Stop) ends it; used to exercise the checker thread in isolation.
type neverStoppingStepper struct {
	*Search
	steps int
}

func (s *neverStoppingStepper) Step() error {
	s.steps++
	return nil
}

func TestMaxStepsStopCriterionStopsTheSearch(t *testing.T) {
	s := &neverStoppingStepper{}
	s.Search = NewSearch("t", s)
	s.SetStopCriterionCheckPeriod(time.Millisecond)
	s.AddStopCriterion(MaxSteps{Limit: 5})

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitStopped(t, s.Search, time.Second)
	waitIdle(t, s.Search, time.Second)

	if s.steps < 5 {
		t.Fatalf("steps = %d, want >= 5", s.steps)
	}
}

func TestMaxRuntimeStopCriterionStopsTheSearch(t *testing.T) {
	s := &neverStoppingStepper{}
	s.Search = NewSearch("t", s)
	s.SetStopCriterionCheckPeriod(time.Millisecond)
	s.AddStopCriterion(MaxRuntime{Limit: 20 * time.Millisecond})

	start := time.Now()
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitStopped(t, s.Search, time.Second)

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("stopped after %v, want >= 20ms", elapsed)
	}
}

func TestExplicitStopHaltsCheckerThread(t *testing.T) {
	s := &neverStoppingStepper{}
	s.Search = NewSearch("t", s)
	s.SetStopCriterionCheckPeriod(time.Millisecond)
	// No stop criteria registered: only an explicit Stop() ends the run,
	// exercising the checker's halt-on-external-stop path.
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	waitStopped(t, s.Search, time.Second)
}

// plateauStepper improves once, on the very first step, then never again.
type plateauStepper struct {
	*Search
}

func (s *plateauStepper) Step() error {
	s.ConsiderBest(Maximize, &counterSolution{Value: 1}, SimpleEvaluation(1), SimpleValidation(true))
	return nil
}

func TestMaxStepsWithoutImprovementStopCriterion(t *testing.T) {
	s := &plateauStepper{}
	s.Search = NewSearch("t", s)
	s.SetStopCriterionCheckPeriod(time.Millisecond)
	s.AddStopCriterion(MaxStepsWithoutImprovement{Limit: 5})

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitStopped(t, s.Search, time.Second)
	waitIdle(t, s.Search, time.Second)

	if s.Steps() < 5 {
		t.Fatalf("steps = %d, want >= 5 (stop criterion allows the first 5 plateaued steps)", s.Steps())
	}
}
