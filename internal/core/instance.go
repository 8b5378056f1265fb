package core

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"
)

// Instance is an immutable MAPF problem: a graph, start and goal
// configurations, the mapping from local agent ids to the global ids of
// the top-level problem, and the priority vector inherited across
// factorization splits (empty for a top-level instance).
type Instance struct {
	G        *Graph
	Starts   Config
	Goals    Config
	Enabled  []int
	Priority []float32
	N        int
}

// matches one scenario row; groups are x_s, y_s, x_g, y_g.
var reScen = regexp.MustCompile(`^\d+\t.+\.map\t\d+\t\d+\t(\d+)\t(\d+)\t(\d+)\t(\d+)\t.+`)

// NewInstance reads start/goal pairs from a MAPF benchmark scenario
// file until n valid rows are accepted. Enabled is initialised to the
// identity and the priority vector is left empty.
func NewInstance(scenFilename string, g *Graph, n int) (*Instance, error) {
	ins := &Instance{G: g, N: n, Enabled: make([]int, n)}
	for i := range ins.Enabled {
		ins.Enabled[i] = i
	}

	f, err := os.Open(scenFilename)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() && len(ins.Starts) < n {
		m := reScen.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		xs, _ := strconv.Atoi(m[1])
		ys, _ := strconv.Atoi(m[2])
		xg, _ := strconv.Atoi(m[3])
		yg, _ := strconv.Atoi(m[4])
		if xs >= g.Width || xg >= g.Width || ys >= g.Height || yg >= g.Height {
			break
		}
		s := g.U[g.Width*ys+xs]
		t := g.U[g.Width*yg+xg]
		if s == nil || t == nil {
			break
		}
		ins.Starts = append(ins.Starts, s)
		ins.Goals = append(ins.Goals, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ins, nil
}

// NewSubInstance builds an instance from explicit vectors, used for the
// sub-problems produced by factorization.
func NewSubInstance(g *Graph, starts, goals Config, enabled []int, priority []float32) *Instance {
	return &Instance{
		G:        g,
		Starts:   starts,
		Goals:    goals,
		Enabled:  enabled,
		Priority: priority,
		N:        len(starts),
	}
}

// RandomInstance draws n distinct random start cells and n distinct
// random goal cells from the passable vertices, for runs without a
// scenario file.
func RandomInstance(g *Graph, n int, rng *rand.Rand) (*Instance, error) {
	if n > g.Size() {
		return nil, fmt.Errorf("%d agents do not fit on %d cells", n, g.Size())
	}
	ins := &Instance{G: g, N: n, Enabled: make([]int, n)}
	for i := range ins.Enabled {
		ins.Enabled[i] = i
	}
	starts := rng.Perm(g.Size())[:n]
	goals := rng.Perm(g.Size())[:n]
	for i := 0; i < n; i++ {
		ins.Starts = append(ins.Starts, g.V[starts[i]])
		ins.Goals = append(ins.Goals, g.V[goals[i]])
	}
	return ins, nil
}

// IsValid checks that the agent count matches the start and goal
// configurations. Semantic validity is assumed from construction.
func (ins *Instance) IsValid() bool {
	return ins.N == len(ins.Starts) && ins.N == len(ins.Goals)
}
