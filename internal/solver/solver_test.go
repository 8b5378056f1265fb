package solver

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lacam-fact/internal/algo"
	"github.com/elektrokombinacija/lacam-fact/internal/core"
	"github.com/elektrokombinacija/lacam-fact/internal/sim"
)

const openMap10 = `type octile
height 10
width 10
map
..........
..........
..........
..........
..........
..........
..........
..........
..........
..........
`

func makeGraph(t *testing.T, s string) *core.Graph {
	t.Helper()
	g, err := core.ParseGraph(strings.NewReader(s))
	require.NoError(t, err)
	return g
}

func makeInstance(t *testing.T, g *core.Graph, starts, goals [][2]int) *core.Instance {
	t.Helper()
	s := make(core.Config, len(starts))
	q := make(core.Config, len(goals))
	enabled := make([]int, len(starts))
	for i := range starts {
		s[i] = g.U[g.Width*starts[i][1]+starts[i][0]]
		q[i] = g.U[g.Width*goals[i][1]+goals[i][0]]
		require.NotNil(t, s[i])
		require.NotNil(t, q[i])
		enabled[i] = i
	}
	return core.NewSubInstance(g, s, q, enabled, nil)
}

func testOptions() Options {
	return Options{
		Objective:   algo.ObjNone,
		RestartRate: 0.001,
		Deadline:    core.NewDeadline(10 * time.Second),
		Seed:        0,
		UseRandom:   true,
	}
}

func TestSolveStandard(t *testing.T) {
	g := makeGraph(t, openMap10)
	ins := makeInstance(t, g, [][2]int{{0, 0}, {9, 9}}, [][2]int{{9, 9}, {0, 0}})

	res := Solve(ins, testOptions())
	require.NotEmpty(t, res.Solution)
	require.NoError(t, sim.Validate(ins, res.Solution))
	assert.Positive(t, res.Infos.LoopCount.Load())
}

func TestSolveFactMergesSubSolutions(t *testing.T) {
	// four agents in two independent corners: the run must split and
	// the concatenated per-agent rows must still be jointly feasible
	g := makeGraph(t, openMap10)
	ins := makeInstance(t, g,
		[][2]int{{0, 0}, {1, 0}, {9, 9}, {8, 9}},
		[][2]int{{1, 0}, {0, 0}, {8, 9}, {9, 9}})

	fa, err := algo.NewFactAlgo("FactDistance", g)
	require.NoError(t, err)

	res := SolveFact(ins, fa, testOptions())
	require.NotEmpty(t, res.Solution)
	require.NoError(t, sim.Validate(ins, res.Solution))
	assert.NotEmpty(t, res.Partitions)
}

func TestSolveFactHeadOn(t *testing.T) {
	// crossing agents stay coupled through the conflict; the merged
	// solution must remain feasible whether or not a late split occurs
	g := makeGraph(t, openMap10)
	ins := makeInstance(t, g, [][2]int{{0, 5}, {9, 5}}, [][2]int{{9, 5}, {0, 5}})

	fa, err := algo.NewFactAlgo("FactDistance", g)
	require.NoError(t, err)

	res := SolveFact(ins, fa, testOptions())
	require.NotEmpty(t, res.Solution)
	require.NoError(t, sim.Validate(ins, res.Solution))
}

func TestSolveFactMT(t *testing.T) {
	g := makeGraph(t, openMap10)
	ins := makeInstance(t, g,
		[][2]int{{0, 0}, {1, 0}, {9, 9}, {8, 9}, {0, 9}, {9, 0}},
		[][2]int{{1, 0}, {0, 0}, {8, 9}, {9, 9}, {1, 9}, {8, 0}})

	fa, err := algo.NewFactAlgo("FactBbox", g)
	require.NoError(t, err)

	res := SolveFactMT(ins, fa, testOptions())
	require.NotEmpty(t, res.Solution)
	require.NoError(t, sim.Validate(ins, res.Solution))
}

func TestGlobalSolutionPadAndTranspose(t *testing.T) {
	g := makeGraph(t, openMap10)
	s := newGlobalSolution(2)

	// agent 0 gets three steps, agent 1 only one: padding repeats the
	// last vertex before transposing
	s.writeSol(core.Solution{{g.V[0]}, {g.V[1]}, {g.V[2]}}, []int{0})
	s.writeSol(core.Solution{{g.V[50]}}, []int{1})

	sol := s.finish()
	require.Len(t, sol, 3)
	assert.Equal(t, g.V[0], sol[0][0])
	assert.Equal(t, g.V[2], sol[2][0])
	assert.Equal(t, g.V[50], sol[0][1])
	assert.Equal(t, g.V[50], sol[2][1])
}

func TestGlobalSolutionRowLen(t *testing.T) {
	g := makeGraph(t, openMap10)
	s := newGlobalSolution(3)
	s.writeSol(core.Solution{{g.V[0], g.V[5]}, {g.V[1], g.V[6]}}, []int{0, 2})

	assert.Equal(t, 2, s.rowLen(0))
	assert.Equal(t, 0, s.rowLen(1))
	assert.Equal(t, 2, s.rowLen(2))
}

func TestSolveFactUnsolvableReportsFailure(t *testing.T) {
	corridor := `type octile
height 1
width 5
map
.....
`
	g := makeGraph(t, corridor)
	ins := makeInstance(t, g, [][2]int{{0, 0}, {4, 0}}, [][2]int{{4, 0}, {0, 0}})

	fa, err := algo.NewFactAlgo("FactDistance", g)
	require.NoError(t, err)

	res := SolveFact(ins, fa, testOptions())
	assert.Empty(t, res.Solution)
}
