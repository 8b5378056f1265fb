package sim

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/lacam-fact/internal/algo"
	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// LogParams gathers everything the solution log records besides the
// instance and solution themselves.
type LogParams struct {
	OutputName string
	CompTimeMS float64
	MapName    string
	Seed       int64
	Info       algo.RunInfo
	LogShort   bool
}

// MakeLog writes the key=value solution log consumed by the visualizer.
func MakeLog(ins *core.Instance, solution core.Solution, p LogParams) error {
	d := algo.NewDistTable(ins)

	if dir := filepath.Dir(p.OutputName); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
	}
	f, err := os.Create(p.OutputName)
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	solved := 0
	if len(solution) > 0 {
		solved = 1
	}
	optimal := 0
	if p.Info.Optimal {
		optimal = 1
	}

	fmt.Fprintf(w, "agents=%d\n", ins.N)
	fmt.Fprintf(w, "map_file=%s\n", filepath.Base(p.MapName))
	fmt.Fprintf(w, "solver=planner\n")
	fmt.Fprintf(w, "solved=%d\n", solved)
	fmt.Fprintf(w, "soc=%d\n", SumOfCosts(solution))
	fmt.Fprintf(w, "soc_lb=%d\n", SumOfCostsLowerBound(ins, d))
	fmt.Fprintf(w, "makespan=%d\n", Makespan(solution))
	fmt.Fprintf(w, "makespan_lb=%d\n", MakespanLowerBound(ins, d))
	fmt.Fprintf(w, "sum_of_loss=%d\n", SumOfLoss(solution))
	fmt.Fprintf(w, "sum_of_loss_lb=%d\n", SumOfCostsLowerBound(ins, d))
	fmt.Fprintf(w, "comp_time=%g\n", p.CompTimeMS)
	fmt.Fprintf(w, "seed=%d\n", p.Seed)
	fmt.Fprintf(w, "optimal=%d\n", optimal)
	fmt.Fprintf(w, "objective=%s\n", p.Info.Objective)
	fmt.Fprintf(w, "loop_cnt=%d\n", p.Info.LoopCnt)
	fmt.Fprintf(w, "num_node_gen=%d\n", p.Info.NumNodeGen)

	if !p.LogShort {
		width := ins.G.Width
		fmt.Fprintf(w, "starts=")
		for _, v := range ins.Starts {
			fmt.Fprintf(w, "(%d,%d),", v.Index%width, v.Index/width)
		}
		fmt.Fprintf(w, "\ngoals=")
		for _, v := range ins.Goals {
			fmt.Fprintf(w, "(%d,%d),", v.Index%width, v.Index/width)
		}
		fmt.Fprintf(w, "\nsolution=\n")
		for t, c := range solution {
			fmt.Fprintf(w, "%d:", t)
			for _, v := range c {
				fmt.Fprintf(w, "(%d,%d),", v.Index%width, v.Index/width)
			}
			fmt.Fprintf(w, "\n")
		}
	}
	return w.Flush()
}
