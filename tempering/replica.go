// Package tempering implements the parallel-tempering replica coordinator:
// a ladder of Metropolis replicas at geometrically spaced temperatures,
// batch-stepped concurrently and periodically swapped.
package tempering

import (
	"fmt"
	"math"
	"math/rand"

	"lsearch"
	"lsearch/strategy"
)

// MetropolisFactory builds one replica search at the given temperature,
// sharing the coordinator's Problem and Neighbourhood but owning a
// distinct cache and RNG. strategy.NewSimulatedAnnealing matches this
// signature directly. NewCoordinator has no default factory: the caller
// always passes one.
type MetropolisFactory func(name string, problem lsearch.Problem, neighbourhood lsearch.Neighbourhood, cache lsearch.EvaluatedMoveCache, rng *rand.Rand, temperature float64) (*strategy.SimulatedAnnealing, error)

// temperatureLadder returns n geometrically spaced temperatures from tMin
// to tMax inclusive: T_i = tMin * (tMax/tMin)^(i/(n-1)) for i in [0,n-1].
// A single-replica ladder runs at tMin.
func temperatureLadder(n int, tMin, tMax float64) []float64 {
	temps := make([]float64, n)
	if n == 1 {
		temps[0] = tMin
		return temps
	}
	ratio := tMax / tMin
	for i := 0; i < n; i++ {
		temps[i] = tMin * math.Pow(ratio, float64(i)/float64(n-1))
	}
	return temps
}

func buildReplicas(problem lsearch.Problem, neighbourhood lsearch.Neighbourhood, newCache func() lsearch.EvaluatedMoveCache, rng *rand.Rand, numReplicas int, tMin, tMax float64, factory MetropolisFactory) ([]*strategy.SimulatedAnnealing, []float64, error) {
	if numReplicas < 1 {
		return nil, nil, fmt.Errorf("tempering: numReplicas must be >= 1, got %d", numReplicas)
	}
	if tMin <= 0 {
		return nil, nil, fmt.Errorf("tempering: tMin must be > 0, got %v", tMin)
	}
	if numReplicas > 1 && tMax <= tMin {
		return nil, nil, fmt.Errorf("tempering: tMax (%v) must be > tMin (%v)", tMax, tMin)
	}

	temps := temperatureLadder(numReplicas, tMin, tMax)
	replicas := make([]*strategy.SimulatedAnnealing, numReplicas)
	for i, t := range temps {
		replicaRng := rand.New(rand.NewSource(rng.Int63()))
		r, err := factory(fmt.Sprintf("replica-%d", i), problem, neighbourhood, newCache(), replicaRng, t)
		if err != nil {
			return nil, nil, fmt.Errorf("tempering: constructing replica %d at T=%v: %w", i, t, err)
		}
		replicas[i] = r
	}
	return replicas, temps, nil
}
