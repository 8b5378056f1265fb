// Package sim replays solved instances: post-hoc feasibility
// validation, solution metrics, the human-readable result log, and the
// stats JSON emitted after each run.
package sim

import (
	"fmt"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// Validate replays a solution against its instance and returns the
// first violation found: mismatched endpoints, a move between
// non-adjacent cells, a vertex collision, or an edge swap. An empty
// solution validates trivially (the solver reported failure elsewhere).
func Validate(ins *core.Instance, solution core.Solution) error {
	if len(solution) == 0 {
		return nil
	}

	if !core.IsSameConfig(solution[0], ins.Starts) {
		return fmt.Errorf("solution does not begin at the start configuration")
	}
	if !core.IsSameConfig(solution[len(solution)-1], ins.Goals) {
		return fmt.Errorf("solution does not end at the goal configuration")
	}

	width := ins.G.Width
	for t := 1; t < len(solution); t++ {
		for i := 0; i < ins.N; i++ {
			from := solution[t-1][i]
			to := solution[t][i]
			if from.Index != to.Index && !isNeighbor(from, to, width) {
				return fmt.Errorf("agent %d: invalid move %s -> %s at timestep %d",
					i, cellString(from, width), cellString(to, width), t)
			}
			for j := i + 1; j < ins.N; j++ {
				jFrom := solution[t-1][j]
				jTo := solution[t][j]
				if jTo.Index == to.Index {
					return fmt.Errorf("vertex conflict between agents %d and %d at %s, timestep %d",
						i, j, cellString(to, width), t)
				}
				if jTo.Index == from.Index && jFrom.Index == to.Index {
					return fmt.Errorf("edge conflict between agents %d and %d across %s-%s, timestep %d",
						i, j, cellString(from, width), cellString(to, width), t)
				}
			}
		}
	}
	return nil
}

// isNeighbor reports whether two cells are 4-adjacent on a grid of the
// given width.
func isNeighbor(v1, v2 *core.Vertex, width int) bool {
	x1, y1 := v1.Index%width, v1.Index/width
	x2, y2 := v2.Index%width, v2.Index/width
	dx, dy := x1-x2, y1-y2
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

func cellString(v *core.Vertex, width int) string {
	return fmt.Sprintf("(%d,%d)", v.Index%width, v.Index/width)
}
