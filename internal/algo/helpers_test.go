package algo

import (
	"strings"
	"testing"

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

// plusMap is five passable cells in a plus shape with centre (1,1).
const plusMap = `type octile
height 3
width 3
map
@.@
...
@.@
`

const corridorMap = `type octile
height 1
width 5
map
.....
`

// roomsMap has two components separated by a full wall.
const roomsMap = `type octile
height 3
width 5
map
..@..
..@..
..@..
`

func makeGraph(t *testing.T, s string) *core.Graph {
	t.Helper()
	g, err := core.ParseGraph(strings.NewReader(s))
	require.NoError(t, err)
	return g
}

// makeInstance builds a top-level instance from (x, y) start/goal pairs.
func makeInstance(t *testing.T, g *core.Graph, starts, goals [][2]int) *core.Instance {
	t.Helper()
	require.Equal(t, len(starts), len(goals))
	s := make(core.Config, len(starts))
	q := make(core.Config, len(goals))
	enabled := make([]int, len(starts))
	for i := range starts {
		s[i] = g.U[g.Width*starts[i][1]+starts[i][0]]
		q[i] = g.U[g.Width*goals[i][1]+goals[i][0]]
		require.NotNil(t, s[i], "start %v is an obstacle", starts[i])
		require.NotNil(t, q[i], "goal %v is an obstacle", goals[i])
		enabled[i] = i
	}
	return core.NewSubInstance(g, s, q, enabled, nil)
}
