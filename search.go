package lsearch

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Sentinels returned by run-metadata getters outside a valid observation
// window.
const (
	InvalidMoveCount = -1
	InvalidStepCount = int64(-1)
)

// InvalidTimeSpan is the sentinel duration returned for time-based metadata
// outside a valid observation window.
const InvalidTimeSpan = time.Duration(-1)

// Stepper performs one unit of search work. Concrete strategies (hill
// climbing, simulated annealing, tabu, parallel tempering) implement
// Step; Search's run loop invokes it once per iteration while RUNNING.
type Stepper interface {
	Step() error
}

// Starter is an optional extension point invoked once, after per-run
// metadata has been reset but before the first Step, letting layers above
// Search (LocalSearch, NeighbourhoodSearch, a concrete strategy) perform
// their own per-run setup. Implementations that want to extend a layer
// below them must explicitly call that layer's Started/Stopped — Go
// embedding does not chain these automatically past the first override.
type Starter interface {
	Started() error
}

// Ender is the symmetric extension point invoked once after the run loop
// exits, before the checker thread is joined.
type Ender interface {
	Stopped()
}

// Search is the base capability set: the status state machine, the run
// loop, stop-criterion checking, listener dispatch, and best-solution
// tracking. LocalSearch and NeighbourhoodSearch add capabilities on top by
// embedding *Search, composing traits rather than an inheritance chain.
type Search struct {
	mu     sync.Mutex // the single status lock
	name   string
	status Status
	impl   Stepper

	listeners    *ListenerBus
	criteriaMu   sync.RWMutex
	criteria     []StopCriterion
	checkPeriod  time.Duration
	minDeltaTime time.Duration

	chk *checker

	steps        atomic.Int64
	startNano    atomic.Int64
	stopNano     atomic.Int64
	lastBestStep atomic.Int64
	lastBestNano atomic.Int64

	bestMu   sync.Mutex
	best     Solution
	bestEval Evaluation
	hasBest  bool
}

// NewSearch constructs the base Search. impl must be the outermost
// concrete value (the one embedding everything else), since that's what
// Go's embedding-based method promotion resolves Starter/Ender against.
func NewSearch(name string, impl Stepper) *Search {
	return &Search{
		name:        name,
		status:      StatusIdle,
		impl:        impl,
		listeners:   NewListenerBus(),
		checkPeriod: DefaultStopCriterionCheckPeriod,
	}
}

func (s *Search) Name() string { return s.name }

// Status returns the current SearchStatus, taking the status lock briefly.
func (s *Search) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Search) assertIdle(op string) error {
	if s.status != StatusIdle {
		return newError(KindBadStatus, op, fmt.Errorf("expected IDLE, got %s", s.status))
	}
	return nil
}

// AssertIdle is the exported, lock-taking form of assertIdle, for use by
// higher-level mutators defined outside this package (e.g. a replica
// coordinator's own setNeighbourhood/setCurrentSolution) that must enforce
// the same "configuration changes require IDLE" rule Search's own mutators
// follow.
func (s *Search) AssertIdle(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assertIdle(op)
}

// SetStopCriterionCheckPeriod configures the checker thread's polling
// period. Requires the Search to be IDLE.
func (s *Search) SetStopCriterionCheckPeriod(dt time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assertIdle("Search.SetStopCriterionCheckPeriod"); err != nil {
		return err
	}
	s.checkPeriod = dt
	return nil
}

// SetMinDeltaTime configures the minimum wall-clock spacing enforced
// between consecutive Step invocations. Requires IDLE.
func (s *Search) SetMinDeltaTime(dt time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.assertIdle("Search.SetMinDeltaTime"); err != nil {
		return err
	}
	s.minDeltaTime = dt
	return nil
}

func (s *Search) MinDeltaTime() time.Duration { return s.minDeltaTime }

// AddSearchListener registers l to receive lifecycle notifications.
func (s *Search) AddSearchListener(l SearchListener) {
	s.listeners.Add(l)
}

// RemoveSearchListener unregisters l.
func (s *Search) RemoveSearchListener(l SearchListener) {
	s.listeners.Remove(l)
}

// AddStopCriterion registers sc to be polled by the checker thread.
func (s *Search) AddStopCriterion(sc StopCriterion) {
	s.criteriaMu.Lock()
	defer s.criteriaMu.Unlock()
	s.criteria = append(s.criteria, sc)
}

// RemoveStopCriterion unregisters sc.
func (s *Search) RemoveStopCriterion(sc StopCriterion) {
	s.criteriaMu.Lock()
	defer s.criteriaMu.Unlock()
	for i, cur := range s.criteria {
		if cur == sc {
			s.criteria = append(s.criteria[:i], s.criteria[i+1:]...)
			return
		}
	}
}

func (s *Search) anyStopCriterionSatisfied() bool {
	s.criteriaMu.RLock()
	defer s.criteriaMu.RUnlock()
	for _, sc := range s.criteria {
		if sc.ShouldStop(s) {
			return true
		}
	}
	return false
}

// Start transitions IDLE -> INITIALIZING and returns promptly; the actual
// run loop (searchStarted hook, checker thread, INITIALIZING -> RUNNING,
// stepping, searchStopped hook, TERMINATING -> IDLE) executes on a
// dedicated worker goroutine.
func (s *Search) Start() error {
	s.mu.Lock()
	if !canTransition(s.status, StatusInitializing) {
		err := newError(KindBadStatus, "Search.Start", fmt.Errorf("cannot start from %s", s.status))
		s.mu.Unlock()
		return err
	}
	s.status = StatusInitializing
	s.mu.Unlock()

	go s.runWorker()
	return nil
}

// Stop is non-blocking, idempotent, and safe to call from any goroutine.
// It has effect only when RUNNING.
func (s *Search) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if canTransition(s.status, StatusTerminating) {
		s.status = StatusTerminating
	}
}

// Dispose transitions IDLE -> DISPOSED. A disposed Search cannot be
// restarted.
func (s *Search) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !canTransition(s.status, StatusDisposed) {
		return newError(KindBadStatus, "Search.Dispose", fmt.Errorf("cannot dispose from %s", s.status))
	}
	s.status = StatusDisposed
	return nil
}

func (s *Search) runWorker() {
	s.resetRunMetadata()

	if starter, ok := s.impl.(Starter); ok {
		if err := starter.Started(); err != nil {
			// Abort the run before RUNNING is ever reached or any
			// listener sees SearchStarted; the checker never started.
			s.finishRun()
			return
		}
	}
	s.listeners.fireSearchStarted(s)

	s.mu.Lock()
	s.chk = newChecker(s, s.checkPeriod)
	s.status = StatusRunning
	s.mu.Unlock()

	checkerDone := make(chan struct{})
	go func() {
		defer close(checkerDone)
		s.chk.run()
	}()

	s.stepLoop()

	if ender, ok := s.impl.(Ender); ok {
		ender.Stopped()
	}
	s.listeners.fireSearchStopped(s)

	s.chk.halt()
	<-checkerDone

	s.finishRun()
}

func (s *Search) finishRun() {
	s.stopNano.Store(time.Now().UnixNano())
	s.mu.Lock()
	s.status = StatusIdle
	s.mu.Unlock()
}

func (s *Search) stepLoop() {
	for {
		s.mu.Lock()
		running := s.status == StatusRunning
		s.mu.Unlock()
		if !running {
			return
		}

		stepStart := time.Now()
		if err := s.impl.Step(); err != nil {
			s.Stop()
			// still emit StepCompleted for this (failed) step so
			// listeners observe a consistent step count, then exit.
			n := s.steps.Add(1)
			s.listeners.fireStepCompleted(s, n)
			return
		}
		n := s.steps.Add(1)
		s.listeners.fireStepCompleted(s, n)

		if s.minDeltaTime > 0 {
			if remaining := s.minDeltaTime - time.Since(stepStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (s *Search) resetRunMetadata() {
	s.steps.Store(0)
	s.startNano.Store(time.Now().UnixNano())
	s.stopNano.Store(0)
	s.lastBestStep.Store(0)
	s.lastBestNano.Store(0)
}

// inObservationWindow reports whether run metadata is currently valid for
// external observation: INVALID during INITIALIZING.
func (s *Search) inObservationWindow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status != StatusInitializing
}

// Steps returns the number of completed steps in the current/last run, or
// InvalidStepCount while INITIALIZING.
func (s *Search) Steps() int64 {
	if !s.inObservationWindow() {
		return InvalidStepCount
	}
	return s.steps.Load()
}

// RunDuration returns the elapsed time since the run started (or, once
// stopped, the total run time), or InvalidTimeSpan while INITIALIZING.
func (s *Search) RunDuration() time.Duration {
	if !s.inObservationWindow() {
		return InvalidTimeSpan
	}
	start := s.startNano.Load()
	if start == 0 {
		return InvalidTimeSpan
	}
	if stop := s.stopNano.Load(); stop != 0 {
		return time.Duration(stop - start)
	}
	return time.Since(time.Unix(0, start))
}

func (s *Search) stepsUnsafe() int64 { return s.steps.Load() }

func (s *Search) startTimeUnsafe() (time.Time, bool) {
	n := s.startNano.Load()
	if n == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, n), true
}

func (s *Search) stepsSinceBestUnsafe() int64 {
	return s.steps.Load() - s.lastBestStep.Load()
}

func (s *Search) timeSinceBestUnsafe() (time.Duration, bool) {
	ref := s.lastBestNano.Load()
	if ref == 0 {
		ref = s.startNano.Load()
	}
	if ref == 0 {
		return 0, false
	}
	return time.Since(time.Unix(0, ref)), true
}

// BestSolution returns the best Solution found so far (across all runs of
// this Search's lifetime) and its Evaluation, or ok=false if none has been
// recorded yet.
func (s *Search) BestSolution() (sol Solution, eval Evaluation, ok bool) {
	s.bestMu.Lock()
	defer s.bestMu.Unlock()
	if !s.hasBest {
		return nil, nil, false
	}
	return s.best, s.bestEval, true
}

// considerBest updates the best-found solution if val passes and delta vs.
// the current best (sense-adjusted) is positive or no best exists yet. It
// is the shared best-solution-update utility invoked by
// LocalSearch/NeighbourhoodSearch after every accepted move or fresh
// solution evaluation.
func (s *Search) considerBest(sense Sense, sol Solution, eval Evaluation, val Validation) bool {
	if val != nil && !val.Passed() {
		return false
	}

	s.bestMu.Lock()
	improved := !s.hasBest || sense.Delta(s.bestEval, eval) > 0
	if improved {
		s.best = sol.Copy()
		s.bestEval = eval
		s.hasBest = true
	}
	s.bestMu.Unlock()

	if improved {
		s.lastBestStep.Store(s.steps.Load())
		s.lastBestNano.Store(time.Now().UnixNano())
		s.listeners.fireNewBestSolution(s, sol, eval)
	}
	return improved
}

// ConsiderBest is the exported form of considerBest, for higher-level
// components outside this package (the parallel-tempering coordinator)
// that update a Search's best-found solution from state that never passed
// through SetCurrentSolution/Accept directly — e.g. a replica's current
// solution after a swap.
func (s *Search) ConsiderBest(sense Sense, sol Solution, eval Evaluation, val Validation) bool {
	return s.considerBest(sense, sol, eval, val)
}
