package lsearch

import (
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// DefaultStopCriterionCheckPeriod is the default polling period for the
// stop-criterion checker thread.
const DefaultStopCriterionCheckPeriod = 50 * time.Millisecond

// StopCriterion is a pluggable predicate polled by a Search's checker
// thread; ShouldStop returning true causes the Search to stop.
type StopCriterion interface {
	ShouldStop(s *Search) bool
}

// MaxRuntime stops the search once it has run for at least Limit.
type MaxRuntime struct{ Limit time.Duration }

func (c MaxRuntime) ShouldStop(s *Search) bool {
	start, ok := s.startTimeUnsafe()
	if !ok {
		return false
	}
	return time.Since(start) >= c.Limit
}

// MaxSteps stops the search once it has executed at least Limit steps.
type MaxSteps struct{ Limit int64 }

func (c MaxSteps) ShouldStop(s *Search) bool {
	return s.stepsUnsafe() >= c.Limit
}

// MaxStepsWithoutImprovement stops the search once Limit steps have elapsed
// since the last new best solution (or since the start, if none found yet).
type MaxStepsWithoutImprovement struct{ Limit int64 }

func (c MaxStepsWithoutImprovement) ShouldStop(s *Search) bool {
	return s.stepsSinceBestUnsafe() >= c.Limit
}

// MaxTimeWithoutImprovement stops the search once Limit has elapsed since
// the last new best solution (or since the start, if none found yet).
type MaxTimeWithoutImprovement struct{ Limit time.Duration }

func (c MaxTimeWithoutImprovement) ShouldStop(s *Search) bool {
	t, ok := s.timeSinceBestUnsafe()
	if !ok {
		return false
	}
	return t >= c.Limit
}

// checker is the dedicated worker that polls a Search's StopCriteria every
// period and calls stop() the first time one is satisfied. Polling uses the
// same done-channel ticker idiom as the rest of this codebase's liveness
// loops.
type checker struct {
	search *Search
	period time.Duration
	done   chan struct{}
	stopCh chan struct{}
}

func newChecker(s *Search, period time.Duration) *checker {
	return &checker{
		search: s,
		period: period,
		stopCh: make(chan struct{}),
	}
}

// run polls until either a stop criterion fires (calling search.Stop()) or
// the checker is told to shut down via checker.halt (the search transitioned
// to TERMINATING by some other means, e.g. an explicit Stop() call).
func (c *checker) run() {
	ticks := channerics.NewTicker(c.stopCh, c.period)
	for range ticks {
		if c.search.anyStopCriterionSatisfied() {
			c.search.Stop()
			return
		}
		select {
		case <-c.stopCh:
			return
		default:
		}
	}
}

// halt signals the checker goroutine to exit; safe to call multiple times.
func (c *checker) halt() {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
}
