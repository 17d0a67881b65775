// Command demo wires the subset reference domain through one of
// hill-climbing, simulated-annealing, or parallel-tempering, chosen by the
// -strategy flag, mirroring the shape
// of the codebase's own main.go: flag parsing, a context with a deadline,
// start a search, optionally serve a progress monitor, done.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"lsearch"
	"lsearch/config"
	"lsearch/monitor"
	"lsearch/strategy"
	"lsearch/subset"
	"lsearch/tempering"
)

var (
	configPath  = flag.String("config", "", "path to a SearchConfig YAML document (optional)")
	strategyFl  = flag.String("strategy", "hillclimbing", "hillclimbing | annealing | tempering")
	universe    = flag.Int("universe", 40, "size of the subset universe")
	capacity    = flag.Float64("capacity", 100, "capacity constraint on total selected weight")
	deadline    = flag.Duration("deadline", 5*time.Second, "maximum run duration")
	monitorAddr = flag.String("monitor", "", "if set, serve a progress monitor on this address, e.g. :8080")
	seed        = flag.Int64("seed", 1, "RNG seed")
)

func randomProblem(rng *rand.Rand, n int, capacity float64) *subset.AdditiveProblem {
	ids := make([]int, n)
	stats := make(map[int]subset.ItemStats, n)
	for i := range ids {
		ids[i] = i
		stats[i] = subset.ItemStats{
			Weight: 1 + rng.Float64()*10,
			Value:  1 + rng.Float64()*10,
		}
	}
	return subset.NewAdditiveProblem(stats, capacity, lsearch.Maximize, ids, 0, n)
}

func buildSearch(name string, problem *subset.AdditiveProblem, rng *rand.Rand) (*lsearch.Search, error) {
	neighbourhood := &subset.MultiSwapNeighbourhood{K: 2}
	cache := lsearch.NewSingleEntryCache()

	switch *strategyFl {
	case "hillclimbing":
		hc := strategy.NewSteepestDescentHillClimbing(name, problem, neighbourhood, cache, rng)
		return hc.Search, nil
	case "annealing":
		sa, err := strategy.NewSimulatedAnnealing(name, problem, neighbourhood, cache, rng, 10.0)
		if err != nil {
			return nil, err
		}
		return sa.Search, nil
	case "tempering":
		coord, err := tempering.NewCoordinator(
			name, problem, neighbourhood,
			lsearch.NewSingleEntryCache, rng,
			4, 1.0, 50.0, 20,
			strategy.NewSimulatedAnnealing,
		)
		if err != nil {
			return nil, err
		}
		return coord.Search, nil
	default:
		return nil, fmt.Errorf("demo: unknown strategy %q", *strategyFl)
	}
}

func run() error {
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	problem := randomProblem(rng, *universe, *capacity)

	search, err := buildSearch("demo", problem, rng)
	if err != nil {
		return err
	}

	if *configPath != "" {
		cfg, err := config.LoadYAML(*configPath)
		if err != nil {
			return fmt.Errorf("demo: loading config: %w", err)
		}
		if err := config.Apply(search, cfg); err != nil {
			return fmt.Errorf("demo: applying config: %w", err)
		}
	}

	search.AddStopCriterion(lsearch.MaxRuntime{Limit: *deadline})

	var mon *monitor.Server
	if *monitorAddr != "" {
		mon = monitor.NewServer(16)
		search.AddSearchListener(mon)
		go func() {
			if err := mon.Serve(*monitorAddr); err != nil {
				log.Println("demo: monitor server:", err)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *deadline+time.Second)
	defer cancel()

	if err := search.Start(); err != nil {
		return fmt.Errorf("demo: starting search: %w", err)
	}

	<-ctx.Done()

	sol, eval, ok := search.BestSolution()
	if !ok {
		fmt.Println("demo: no solution found")
		return nil
	}
	fmt.Printf("demo: best value=%v steps=%d solution=%v\n", eval.Value(), search.Steps(), sol)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
