package algo

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// bfsFrom computes reference distances with a plain full BFS.
func bfsFrom(g *core.Graph, goal *core.Vertex) []int {
	dist := make([]int, g.Size())
	for i := range dist {
		dist[i] = g.Size()
	}
	dist[goal.ID] = 0
	queue := []*core.Vertex{goal}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range n.Neighbor {
			if dist[n.ID]+1 < dist[m.ID] {
				dist[m.ID] = dist[n.ID] + 1
				queue = append(queue, m)
			}
		}
	}
	return dist
}

func TestDistTableMatchesBFS(t *testing.T) {
	g := makeGraph(t, openMap5)
	ins := makeInstance(t, g, [][2]int{{0, 0}, {2, 2}}, [][2]int{{4, 4}, {0, 4}})
	d := NewDistTable(ins)

	for i := 0; i < ins.N; i++ {
		want := bfsFrom(g, ins.Goals[i])
		for _, v := range g.V {
			assert.Equal(t, want[v.ID], d.Get(i, v), "agent %d vertex %d", i, v.ID)
		}
	}
	assert.Zero(t, d.Get(0, ins.Goals[0]))
	assert.Zero(t, d.Get(1, ins.Goals[1]))
}

func TestDistTableUnreachableSentinel(t *testing.T) {
	g := makeGraph(t, roomsMap)
	// goal in the left room, query in the right room
	ins := makeInstance(t, g, [][2]int{{0, 0}}, [][2]int{{1, 1}})
	d := NewDistTable(ins)

	right := g.U[g.Width*1+4]
	require.NotNil(t, right)
	assert.Equal(t, g.Size(), d.Get(0, right))

	left := g.U[g.Width*2+0]
	assert.Equal(t, 2, d.Get(0, left))
}

func TestDistTableIdempotent(t *testing.T) {
	g := makeGraph(t, openMap10)
	ins := makeInstance(t, g, [][2]int{{0, 0}}, [][2]int{{9, 9}})
	d := NewDistTable(ins)

	rng := rand.New(rand.NewSource(0))
	order := rng.Perm(g.Size())

	first := make([]int, g.Size())
	for _, id := range order {
		first[id] = d.Get(0, g.V[id])
	}
	// reverse pass must return memoised values unchanged
	for k := len(order) - 1; k >= 0; k-- {
		id := order[k]
		assert.Equal(t, first[id], d.Get(0, g.V[id]))
	}
}

func TestDistTableConcurrentGets(t *testing.T) {
	g := makeGraph(t, openMap10)
	ins := makeInstance(t, g,
		[][2]int{{0, 0}, {9, 0}, {0, 9}, {9, 9}},
		[][2]int{{9, 9}, {0, 9}, {9, 0}, {0, 0}})
	d := NewDistTable(ins)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for k := 0; k < 200; k++ {
				i := rng.Intn(ins.N)
				v := g.V[rng.Intn(g.Size())]
				want := g.Manhattan(ins.Goals[i].Index, v.Index) // open grid
				assert.Equal(t, want, d.Get(i, v))
			}
		}(int64(w))
	}
	wg.Wait()
}
