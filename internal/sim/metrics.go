package sim

import (
	"github.com/elektrokombinacija/lacam-fact/internal/algo"
	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// Makespan is the last move timestep: one less than the number of
// configurations.
func Makespan(solution core.Solution) int {
	if len(solution) == 0 {
		return 0
	}
	return len(solution) - 1
}

// PathCost is the timestep from which agent i stays on its final
// vertex: one more than the last timestep at which it is elsewhere, or
// 0 when it never leaves.
func PathCost(solution core.Solution, i int) int {
	goal := solution[len(solution)-1][i]
	c := len(solution)
	for c > 0 && solution[c-1][i] == goal {
		c--
	}
	return c
}

// SumOfCosts totals the per-agent path costs.
func SumOfCosts(solution core.Solution) int {
	if len(solution) == 0 {
		return 0
	}
	c := 0
	for i := range solution[0] {
		c += PathCost(solution, i)
	}
	return c
}

// SumOfLoss counts, over all agents and timesteps, the steps where the
// agent is away from its final vertex on either side of the move.
func SumOfLoss(solution core.Solution) int {
	if len(solution) == 0 {
		return 0
	}
	c := 0
	for i := range solution[0] {
		goal := solution[len(solution)-1][i]
		for t := 1; t < len(solution); t++ {
			if solution[t-1][i] != goal || solution[t][i] != goal {
				c++
			}
		}
	}
	return c
}

// MakespanLowerBound is the largest start-to-goal distance.
func MakespanLowerBound(ins *core.Instance, d *algo.DistTable) int {
	c := 0
	for i := 0; i < ins.N; i++ {
		if v := d.Get(ins.Enabled[i], ins.Starts[i]); v > c {
			c = v
		}
	}
	return c
}

// SumOfCostsLowerBound is the total of the start-to-goal distances.
func SumOfCostsLowerBound(ins *core.Instance, d *algo.DistTable) int {
	c := 0
	for i := 0; i < ins.N; i++ {
		c += d.Get(ins.Enabled[i], ins.Starts[i])
	}
	return c
}
