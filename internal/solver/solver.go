// Package solver exposes the run-level entry points: standard LaCAM,
// factorized solving over a work queue of sub-instances, and the
// multi-threaded variant with a shared worker pool.
package solver

import (
	"log/slog"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/lacam-fact/internal/algo"
	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// Options carries the run-wide solver knobs.
type Options struct {
	Objective   algo.Objective
	RestartRate float64
	Deadline    *core.Deadline
	Seed        int64
	UseRandom   bool // seed a PRNG for tie-breaking and shuffles
}

// Result is the outcome of one solver run.
type Result struct {
	Solution   core.Solution
	Info       algo.RunInfo
	Infos      *algo.Infos
	Partitions algo.PartitionsMap
}

func (o Options) rng(offset int64) *rand.Rand {
	if !o.UseRandom {
		return nil
	}
	return rand.New(rand.NewSource(o.Seed + offset))
}

// Solve runs the standard (non-factorized) search on ins.
func Solve(ins *core.Instance, o Options) *Result {
	infos := &algo.Infos{}
	dist := algo.NewDistTable(ins)
	pl := algo.NewPlanner(ins, dist, o.Deadline, o.rng(0), o.Objective, o.RestartRate, infos)
	sol, info := pl.Solve()
	return &Result{Solution: sol, Info: info, Infos: infos}
}

// globalSolution is the shared per-agent row buffer that sub-instance
// solutions are merged into. Rows are indexed by global agent id.
type globalSolution struct {
	mu   sync.Mutex
	rows []core.Config
}

func newGlobalSolution(n int) *globalSolution {
	return &globalSolution{rows: make([]core.Config, n)}
}

// rowLen returns the number of configurations already written for a
// global agent; it equals the absolute start timestep of the next
// sub-instance covering that agent.
func (s *globalSolution) rowLen(globalID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[globalID])
}

// writeSol appends the local solution's per-agent columns to the rows
// of the corresponding global agents.
func (s *globalSolution) writeSol(local core.Solution, enabled []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, globalID := range enabled {
		for t := range local {
			s.rows[globalID] = append(s.rows[globalID], local[t][k])
		}
	}
}

// finish pads every row with its last vertex up to the longest row and
// transposes the buffer into a configuration-per-timestep solution.
func (s *globalSolution) finish() core.Solution {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxLen := 0
	for _, row := range s.rows {
		if len(row) > maxLen {
			maxLen = len(row)
		}
	}
	if maxLen == 0 {
		return nil
	}
	for i, row := range s.rows {
		if len(row) == 0 {
			return nil // an agent was never solved
		}
		last := row[len(row)-1]
		for len(row) < maxLen {
			row = append(row, last)
		}
		s.rows[i] = row
	}

	solution := make(core.Solution, maxLen)
	for t := 0; t < maxLen; t++ {
		c := make(core.Config, len(s.rows))
		for i := range s.rows {
			c[i] = s.rows[i][t]
		}
		solution[t] = c
	}
	return solution
}

// SolveFact runs the factorized search single-threaded: a FIFO of
// sub-instances is consumed until empty, each bundle's local solution
// is merged into the global buffer before its children are enqueued.
func SolveFact(ins *core.Instance, fa algo.FactAlgo, o Options) *Result {
	infos := &algo.Infos{}
	dist := algo.NewDistTable(ins)
	sol := newGlobalSolution(ins.N)
	partitions := make(algo.PartitionsMap)

	queue := []*core.Instance{ins}
	solved := true
	for len(queue) > 0 {
		sub := queue[0]
		queue = queue[1:]

		startTime := sol.rowLen(sub.Enabled[0])
		pl := algo.NewPlanner(sub, dist, o.Deadline, o.rng(0), o.Objective, o.RestartRate, infos)
		bundle := pl.SolveFact(fa, startTime)
		if bundle.Solution == nil {
			solved = false
			break
		}
		sol.writeSol(bundle.Solution, sub.Enabled)
		queue = append(queue, bundle.SubInstances...)
		if len(bundle.Partition) > 0 {
			partitions[bundle.SplitTimestep] = bundle.Partition
		}
	}

	res := &Result{Infos: infos, Partitions: partitions}
	if solved {
		res.Solution = sol.finish()
	}
	res.Info = algo.RunInfo{
		Objective:  o.Objective,
		LoopCnt:    int(infos.LoopCount.Load()),
		NumNodeGen: int(infos.NodesGenerated.Load()),
	}
	return res
}

// SolveFactMT runs the factorized search with half as many workers as
// hardware threads (at least one). Workers share the FIFO, the global solution
// buffer, and the distance table; termination is detected when the
// queue is empty and no worker is running.
func SolveFactMT(ins *core.Instance, fa algo.FactAlgo, o Options) *Result {
	infos := &algo.Infos{}
	dist := algo.NewDistTable(ins)
	sol := newGlobalSolution(ins.N)
	partitions := make(algo.PartitionsMap)

	var (
		mu      sync.Mutex
		cond    = sync.NewCond(&mu)
		queue   = []*core.Instance{ins}
		running int
		done    bool
		failed  bool
	)

	numWorkers := runtime.NumCPU() / 2
	if numWorkers < 1 {
		numWorkers = 1
	}
	slog.Debug("starting workers", "count", numWorkers)

	var g errgroup.Group
	for w := 0; w < numWorkers; w++ {
		workerID := w
		g.Go(func() error {
			rng := o.rng(int64(workerID))
			for {
				mu.Lock()
				for len(queue) == 0 && running > 0 && !done {
					cond.Wait()
				}
				if done || len(queue) == 0 {
					done = true
					cond.Broadcast()
					mu.Unlock()
					return nil
				}
				sub := queue[0]
				queue = queue[1:]
				running++
				mu.Unlock()

				startTime := sol.rowLen(sub.Enabled[0])
				pl := algo.NewPlanner(sub, dist, o.Deadline, rng, o.Objective, o.RestartRate, infos)
				bundle := pl.SolveFact(fa, startTime)

				mu.Lock()
				if bundle.Solution == nil {
					failed = true
					done = true
				} else {
					mu.Unlock()
					// merge before enqueueing children so their rows
					// extend this one and row lengths stay consistent
					sol.writeSol(bundle.Solution, sub.Enabled)
					mu.Lock()
					queue = append(queue, bundle.SubInstances...)
					if len(bundle.Partition) > 0 {
						partitions[bundle.SplitTimestep] = bundle.Partition
					}
				}
				running--
				if running == 0 && len(queue) == 0 {
					done = true
				}
				cond.Broadcast()
				mu.Unlock()
			}
		})
	}
	_ = g.Wait() // workers never return errors; the group is the join point

	res := &Result{Infos: infos, Partitions: partitions}
	if !failed {
		res.Solution = sol.finish()
	}
	res.Info = algo.RunInfo{
		Objective:  o.Objective,
		LoopCnt:    int(infos.LoopCount.Load()),
		NumNodeGen: int(infos.NodesGenerated.Load()),
	}
	return res
}
