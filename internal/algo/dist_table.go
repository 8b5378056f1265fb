// Package algo implements the factorized LaCAM solver: the lazy
// distance table, the factorization policies, the one-step PIBT
// planner, and the two-level configuration search.
package algo

import (
	"sync"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// DistTable memoises, per top-level agent, the hop distance from the
// agent's goal to every vertex. Distances are filled lazily by a
// resumable reverse BFS seeded at the goal; V (the vertex count) acts
// as the unreachable sentinel.
//
// One table is shared by all workers of a run. Each agent's row and
// BFS frontier are guarded by a per-agent mutex so Get is linearisable
// without serialising unrelated agents.
type DistTable struct {
	vsize int
	mu    []sync.Mutex
	table [][]int
	open  [][]*core.Vertex // per-agent FIFO frontier
	head  []int
}

// NewDistTable prepares the table for the agents of a top-level
// instance. Rows are indexed by global agent id.
func NewDistTable(ins *core.Instance) *DistTable {
	vsize := ins.G.Size()
	d := &DistTable{
		vsize: vsize,
		mu:    make([]sync.Mutex, ins.N),
		table: make([][]int, ins.N),
		open:  make([][]*core.Vertex, ins.N),
		head:  make([]int, ins.N),
	}
	for i := 0; i < ins.N; i++ {
		d.table[i] = make([]int, vsize)
		for j := range d.table[i] {
			d.table[i][j] = vsize
		}
		goal := ins.Goals[i]
		d.table[i][goal.ID] = 0
		d.open[i] = append(d.open[i], goal)
	}
	return d
}

// Size returns the vertex count, which doubles as the unreachable
// sentinel returned by Get.
func (d *DistTable) Size() int { return d.vsize }

// Get returns the hop distance from agent i's goal to v, resuming the
// agent's BFS if the value is not yet known. i is a global agent id.
//
// Sidenote carried over from the reference implementation: plain lazy
// BFS outperformed Reverse Resumable A* in this setting.
func (d *DistTable) Get(i int, v *core.Vertex) int {
	d.mu[i].Lock()
	defer d.mu[i].Unlock()

	table := d.table[i]
	if table[v.ID] < d.vsize {
		return table[v.ID]
	}

	for d.head[i] < len(d.open[i]) {
		n := d.open[i][d.head[i]]
		d.head[i]++
		dn := table[n.ID]
		for _, m := range n.Neighbor {
			if dn+1 >= table[m.ID] {
				continue
			}
			table[m.ID] = dn + 1
			d.open[i] = append(d.open[i], m)
		}
		if n.ID == v.ID {
			return dn
		}
	}
	return d.vsize
}
