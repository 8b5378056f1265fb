package sim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

const openMap5 = `type octile
height 5
width 5
map
.....
.....
.....
.....
.....
`

func makeGraph(t *testing.T, s string) *core.Graph {
	t.Helper()
	g, err := core.ParseGraph(strings.NewReader(s))
	require.NoError(t, err)
	return g
}

func cell(g *core.Graph, x, y int) *core.Vertex {
	return g.U[g.Width*y+x]
}

func twoAgentInstance(g *core.Graph) *core.Instance {
	starts := core.Config{cell(g, 0, 0), cell(g, 2, 0)}
	goals := core.Config{cell(g, 2, 0), cell(g, 0, 0)}
	return core.NewSubInstance(g, starts, goals, []int{0, 1}, nil)
}

func TestValidateAcceptsFeasible(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := twoAgentInstance(g)

	sol := core.Solution{
		{cell(g, 0, 0), cell(g, 2, 0)},
		{cell(g, 1, 0), cell(g, 2, 1)},
		{cell(g, 2, 0), cell(g, 1, 1)},
		{cell(g, 2, 0), cell(g, 1, 0)},
		{cell(g, 2, 0), cell(g, 0, 0)},
	}
	assert.NoError(t, Validate(ins, sol))
}

func TestValidateEmptySolution(t *testing.T) {
	g := makeGraph(t, openMap5)
	assert.NoError(t, Validate(twoAgentInstance(g), nil))
}

func TestValidateRejectsWrongEndpoints(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := twoAgentInstance(g)

	bad := core.Solution{{cell(g, 1, 1), cell(g, 2, 0)}}
	assert.Error(t, Validate(ins, bad))

	bad = core.Solution{
		{cell(g, 0, 0), cell(g, 2, 0)},
		{cell(g, 1, 0), cell(g, 2, 0)},
	}
	assert.Error(t, Validate(ins, bad)) // does not end at goals
}

func TestValidateRejectsDisconnectedMove(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := core.NewSubInstance(g,
		core.Config{cell(g, 0, 0)}, core.Config{cell(g, 2, 0)}, []int{0}, nil)

	bad := core.Solution{
		{cell(g, 0, 0)},
		{cell(g, 2, 0)}, // teleport
	}
	assert.Error(t, Validate(ins, bad))
}

func TestValidateRejectsVertexConflict(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := core.NewSubInstance(g,
		core.Config{cell(g, 0, 0), cell(g, 2, 0)},
		core.Config{cell(g, 1, 0), cell(g, 1, 0)}, []int{0, 1}, nil)

	bad := core.Solution{
		{cell(g, 0, 0), cell(g, 2, 0)},
		{cell(g, 1, 0), cell(g, 1, 0)},
	}
	assert.Error(t, Validate(ins, bad))
}

func TestValidateRejectsEdgeSwap(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := core.NewSubInstance(g,
		core.Config{cell(g, 0, 0), cell(g, 1, 0)},
		core.Config{cell(g, 1, 0), cell(g, 0, 0)}, []int{0, 1}, nil)

	bad := core.Solution{
		{cell(g, 0, 0), cell(g, 1, 0)},
		{cell(g, 1, 0), cell(g, 0, 0)},
	}
	assert.Error(t, Validate(ins, bad))
}
