package algo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

func newTestPlanner(t *testing.T, ins *core.Instance) *Planner {
	t.Helper()
	return NewPlanner(ins, NewDistTable(ins), core.NewDeadline(time.Second), nil, ObjNone, 0.001, nil)
}

func TestGetNewConfigCompletion(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := makeInstance(t, g,
		[][2]int{{0, 0}, {4, 4}, {2, 2}},
		[][2]int{{4, 0}, {0, 4}, {2, 0}})
	pl := newTestPlanner(t, ins)

	h := pl.newHNode(ins.Starts, nil, 0, 0)
	require.True(t, pl.getNewConfig(h, &lnode{}))

	for _, a := range pl.agents {
		require.NotNil(t, a.vNext)
		// either stays or moves to a neighbour
		if a.vNext != a.vNow {
			ok := false
			for _, u := range a.vNow.Neighbor {
				if u == a.vNext {
					ok = true
				}
			}
			assert.True(t, ok, "agent %d jumped", a.id)
		}
		// occupancy table is consistent with the reservation
		assert.Equal(t, a, pl.occupiedNext[a.vNext.ID])
	}

	// no two agents share a reservation
	seen := map[int]bool{}
	for _, a := range pl.agents {
		assert.False(t, seen[a.vNext.ID])
		seen[a.vNext.ID] = true
	}
}

func TestGetNewConfigConstraint(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := makeInstance(t, g, [][2]int{{0, 0}, {4, 4}}, [][2]int{{4, 0}, {0, 4}})
	pl := newTestPlanner(t, ins)
	h := pl.newHNode(ins.Starts, nil, 0, 0)

	// force agent 0 to stay put
	l := newLNode(&lnode{}, 0, ins.Starts[0])
	require.True(t, pl.getNewConfig(h, l))
	assert.Equal(t, ins.Starts[0], pl.agents[0].vNext)
}

func TestGetNewConfigConstraintConflict(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := makeInstance(t, g, [][2]int{{0, 0}, {1, 0}}, [][2]int{{4, 0}, {4, 4}})
	pl := newTestPlanner(t, ins)
	h := pl.newHNode(ins.Starts, nil, 0, 0)

	// both agents pre-committed to the same cell: vertex conflict
	target := g.U[2] // (2,0)
	l := newLNode(newLNode(&lnode{}, 0, target), 1, target)
	assert.False(t, pl.getNewConfig(h, l))

	// swapping commitments: edge conflict
	l = newLNode(newLNode(&lnode{}, 0, ins.Starts[1]), 1, ins.Starts[0])
	assert.False(t, pl.getNewConfig(h, l))
}

func TestPIBTPrefersGoalDirection(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := makeInstance(t, g, [][2]int{{2, 2}}, [][2]int{{4, 2}})
	pl := newTestPlanner(t, ins)
	h := pl.newHNode(ins.Starts, nil, 0, 0)

	require.True(t, pl.getNewConfig(h, &lnode{}))
	assert.Equal(t, g.U[g.Width*2+3], pl.agents[0].vNext) // one step right
}

func TestSwapDetectedOnPlusMap(t *testing.T) {
	g := makeGraph(t, plusMap)
	ins := makeInstance(t, g, [][2]int{{0, 1}, {2, 1}}, [][2]int{{2, 1}, {0, 1}})
	pl := newTestPlanner(t, ins)
	h := pl.newHNode(ins.Starts, nil, 0, 0)

	require.True(t, pl.getNewConfig(h, &lnode{}))

	// one joint step must be collision-free and leave the corridor
	// usable: nobody may end up swapping across the centre
	a0, a1 := pl.agents[0], pl.agents[1]
	assert.NotEqual(t, a0.vNext, a1.vNext)
	assert.False(t, a0.vNext == a1.vNow && a1.vNext == a0.vNow)
}
