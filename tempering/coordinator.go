package tempering

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"lsearch"
	"lsearch/internal/atomicfloat"
	"lsearch/strategy"
)

// errBatchInterrupted is returned by runBatch when the Coordinator's own
// status leaves RUNNING (e.g. Stop was called) before a batch has completed
// its k steps.
var errBatchInterrupted = errors.New("tempering: batch interrupted, status no longer RUNNING")

// Coordinator is the parallel-tempering main search: a ladder of
// Metropolis replicas, stepped concurrently in batches of
// replicaSteps and periodically swapped bottom-up. It embeds *LocalSearch
// for the current-solution/best-solution/lifecycle capabilities a caller
// sees; a Coordinator never evaluates moves itself — every Step delegates
// to the replica ladder.
type Coordinator struct {
	*lsearch.LocalSearch

	replicas      []*strategy.SimulatedAnnealing
	temperatures  []float64
	replicaSteps  int64
	neighbourhood lsearch.Neighbourhood

	// liveBest tracks the best evaluation value seen across all replicas
	// since the Coordinator was constructed (it is not reset between batches
	// or runs), updated by each replica's own goroutine inside Step and safe
	// to read concurrently from outside it without waiting for a batch to
	// finish. Stored sense-adjusted (higher
	// is always better) so a lock-free RaiseTo works regardless of whether
	// the problem minimizes or maximizes; initialized to -Inf so the first
	// update always wins.
	liveBest *atomicfloat.Float64
}

// NewCoordinator constructs a Coordinator with numReplicas Metropolis
// replicas at temperatures geometrically spaced between tMin and tMax,
// each batch-stepped replicaSteps times per Coordinator.Step call. newCache
// is invoked once per replica to give each its own EvaluatedMoveCache.
func NewCoordinator(name string, problem lsearch.Problem, neighbourhood lsearch.Neighbourhood, newCache func() lsearch.EvaluatedMoveCache, rng *rand.Rand, numReplicas int, tMin, tMax float64, replicaSteps int64, factory MetropolisFactory) (*Coordinator, error) {
	if replicaSteps < 1 {
		return nil, fmt.Errorf("tempering: replicaSteps must be >= 1, got %d", replicaSteps)
	}
	replicas, temps, err := buildReplicas(problem, neighbourhood, newCache, rng, numReplicas, tMin, tMax, factory)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		replicas:      replicas,
		temperatures:  temps,
		replicaSteps:  replicaSteps,
		neighbourhood: neighbourhood,
		liveBest:      atomicfloat.New(math.Inf(-1)),
	}
	c.LocalSearch = lsearch.NewLocalSearch(name, problem, rng, c)
	return c, nil
}

// LiveBestEstimate returns the best sense-adjusted evaluation value observed
// across all replicas over every batch so far, including one still in
// flight. Safe to call concurrently with Step, including while a batch is
// still running on other goroutines; returns false if no replica has
// completed a step yet.
func (c *Coordinator) LiveBestEstimate() (value float64, sense lsearch.Sense, ok bool) {
	v := c.liveBest.Load()
	if math.IsInf(v, -1) {
		return 0, c.Problem().Sense(), false
	}
	sense = c.Problem().Sense()
	return float64(sense) * v, sense, true
}

// Replicas exposes the underlying replica searches, mainly for inspection
// and tests; callers should not mutate their configuration directly —
// use Coordinator's own setters so changes propagate consistently.
func (c *Coordinator) Replicas() []*strategy.SimulatedAnnealing { return c.replicas }

func (c *Coordinator) hasCurrent() bool {
	sol, _, _ := c.CurrentSolution()
	return sol != nil
}

// Started implements lsearch.Starter: it chains to LocalSearch.Started
// (which lazily generates a random initial solution if none is set) and,
// if it had to generate one, propagates a deep copy to every replica, so
// every replica shares the same initial current solution even when the
// search is started without an explicit SetCurrentSolution call.
func (c *Coordinator) Started() error {
	hadCurrent := c.hasCurrent()
	if err := c.LocalSearch.Started(); err != nil {
		return err
	}
	if hadCurrent {
		return nil
	}
	sol, _, _ := c.CurrentSolution()
	for _, r := range c.replicas {
		if err := r.SetCurrentSolution(sol.Copy()); err != nil {
			return lsearch.NewError(lsearch.KindIncompatibleSolution, "tempering.Coordinator.Started", err)
		}
	}
	return nil
}

// SetCurrentSolution sets the coordinator's own current solution and
// propagates a distinct deep copy to every replica. Requires IDLE.
func (c *Coordinator) SetCurrentSolution(sol lsearch.Solution) error {
	if err := c.AssertIdle("tempering.Coordinator.SetCurrentSolution"); err != nil {
		return err
	}
	if err := c.LocalSearch.SetCurrentSolution(sol); err != nil {
		return err
	}
	for _, r := range c.replicas {
		if err := r.SetCurrentSolution(sol.Copy()); err != nil {
			return err
		}
	}
	return nil
}

// SetNeighbourhood replaces the Neighbourhood used by every replica.
// Requires IDLE.
func (c *Coordinator) SetNeighbourhood(n lsearch.Neighbourhood) error {
	if err := c.AssertIdle("tempering.Coordinator.SetNeighbourhood"); err != nil {
		return err
	}
	for _, r := range c.replicas {
		if err := r.SetNeighbourhood(n); err != nil {
			return err
		}
	}
	c.neighbourhood = n
	return nil
}

// SetReplicaSteps changes the batch size k. Requires IDLE and k >= 1.
func (c *Coordinator) SetReplicaSteps(k int64) error {
	if k < 1 {
		return fmt.Errorf("tempering: replicaSteps must be >= 1, got %d", k)
	}
	if err := c.AssertIdle("tempering.Coordinator.SetReplicaSteps"); err != nil {
		return err
	}
	c.replicaSteps = k
	return nil
}

// Step implements lsearch.Stepper: it runs every replica for replicaSteps
// steps concurrently, performs the bottom-up Metropolis swap phase, and
// adopts the best replica's current solution for reporting.
func (c *Coordinator) Step() error {
	sense := c.Problem().Sense()
	g, ctx := errgroup.WithContext(context.Background())
	for _, r := range c.replicas {
		r := r
		g.Go(func() error { return c.runBatch(ctx, r, c.replicaSteps, sense) })
	}
	if err := g.Wait(); err != nil {
		return lsearch.NewError(lsearch.KindInterrupted, "tempering.Coordinator.Step", err)
	}

	c.swapPhase()
	c.adoptBest()
	return nil
}

// runBatch steps r up to k times, bailing out with errBatchInterrupted the
// instant the Coordinator's own status leaves RUNNING, so that Stop()
// interrupts a batch promptly even when k is huge (a caller stopping a
// 10^9-step batch shouldn't have to wait for all 10^9 steps to run).
func (c *Coordinator) runBatch(ctx context.Context, r *strategy.SimulatedAnnealing, k int64, sense lsearch.Sense) error {
	for i := int64(0); i < k; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if c.Status() != lsearch.StatusRunning {
			return errBatchInterrupted
		}
		if err := r.Step(); err != nil {
			return err
		}
		if _, eval, _ := r.CurrentSolution(); eval != nil {
			c.liveBest.RaiseTo(float64(sense) * eval.Value())
		}
	}
	return nil
}

// swapPhase walks the ladder bottom-up (i = N-2 .. 0), proposing a swap of
// replicas i and i+1's current solutions with Metropolis probability
// min(1, exp(Δ)), Δ = (1/T_i - 1/T_{i+1}) * (E_{i+1} - E_i). After any
// swap, the main search's best is updated from either swapped replica.
func (c *Coordinator) swapPhase() {
	sense := c.Problem().Sense()
	for i := len(c.replicas) - 2; i >= 0; i-- {
		a, b := c.replicas[i], c.replicas[i+1]
		ta, tb := c.temperatures[i], c.temperatures[i+1]

		_, evalA, _ := a.CurrentSolution()
		_, evalB, _ := b.CurrentSolution()
		delta := (1/ta - 1/tb) * (evalB.Value() - evalA.Value())
		prob := math.Min(1, math.Exp(delta))

		if c.Rand().Float64() >= prob {
			continue
		}

		solA, _, _ := a.CurrentSolution()
		solB, _, _ := b.CurrentSolution()
		if err := a.SetCurrentSolution(solB); err != nil {
			continue
		}
		if err := b.SetCurrentSolution(solA); err != nil {
			continue
		}

		for _, r := range [2]*strategy.SimulatedAnnealing{a, b} {
			sol, eval, val := r.CurrentSolution()
			c.ConsiderBest(sense, sol, eval, val)
		}
	}
}

// adoptBest installs the best-evaluated replica's current solution as the
// coordinator's own current solution, for reporting purposes only.
func (c *Coordinator) adoptBest() {
	sense := c.Problem().Sense()
	best := c.replicas[0]
	_, bestEval, _ := best.CurrentSolution()
	for _, r := range c.replicas[1:] {
		_, eval, _ := r.CurrentSolution()
		if sense.Delta(bestEval, eval) > 0 {
			best, bestEval = r, eval
		}
	}
	sol, eval, val := best.CurrentSolution()
	c.AdoptCurrentSolution(sol.Copy(), eval, val)
}
