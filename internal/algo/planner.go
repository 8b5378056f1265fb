package algo

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// Objective selects the cost function minimised by the search.
type Objective int

const (
	ObjNone Objective = iota
	ObjMakespan
	ObjSumOfLoss
)

func (o Objective) String() string {
	switch o {
	case ObjMakespan:
		return "makespan"
	case ObjSumOfLoss:
		return "sum_of_loss"
	default:
		return "none"
	}
}

// lnode is a low-level constraint committing the agents of who to the
// vertices of where at the next timestep.
type lnode struct {
	who   []int
	where core.Config
	depth int
}

func newLNode(parent *lnode, i int, v *core.Vertex) *lnode {
	if parent == nil {
		return &lnode{}
	}
	l := &lnode{depth: parent.depth + 1}
	l.who = append(append(l.who, parent.who...), i)
	l.where = append(append(l.where, parent.where...), v)
	return l
}

// hnode is a high-level search node: one configuration with its search
// bookkeeping. Nodes form a cyclic graph via parent and neighbor edges
// during one planner invocation; the Go GC reclaims the graph when the
// planner returns.
type hnode struct {
	c      core.Config
	parent *hnode
	// neighbor holds the forward edges discovered so far, traversed by
	// the rewrite step.
	neighbor map[*hnode]struct{}

	g, h, f int

	priorities []float32
	order      []int
	tree       []*lnode // FIFO of low-level nodes
	treeHead   int
	depth      int
}

// newHNode creates and registers the node for configuration c. On a
// root node the priorities come from the inherited vector when the
// instance carries one, otherwise from the normalised goal distances;
// on any other node the dynamic PIBT update applies.
func (pl *Planner) newHNode(c core.Config, parent *hnode, g, h int) *hnode {
	n := len(c)
	hn := &hnode{
		c:          c,
		parent:     parent,
		neighbor:   make(map[*hnode]struct{}),
		g:          g,
		h:          h,
		f:          g + h,
		priorities: make([]float32, n),
		order:      make([]int, n),
	}
	hn.tree = append(hn.tree, newLNode(nil, 0, nil))
	if pl.infos != nil {
		pl.infos.NodesGenerated.Add(1)
	}

	if parent != nil {
		parent.neighbor[hn] = struct{}{}
		hn.depth = parent.depth + 1
	}

	switch {
	case parent == nil && len(pl.ins.Priority) == n:
		copy(hn.priorities, pl.ins.Priority)
	case parent == nil:
		for i := 0; i < n; i++ {
			hn.priorities[i] = float32(pl.dist.Get(pl.ins.Enabled[i], c[i])) / float32(n)
		}
	default:
		for i := 0; i < n; i++ {
			if pl.dist.Get(pl.ins.Enabled[i], c[i]) != 0 {
				hn.priorities[i] = parent.priorities[i] + 1
			} else {
				hn.priorities[i] = parent.priorities[i] - float32(int(parent.priorities[i]))
			}
		}
	}

	for i := range hn.order {
		hn.order[i] = i
	}
	sort.SliceStable(hn.order, func(a, b int) bool {
		return hn.priorities[hn.order[a]] > hn.priorities[hn.order[b]]
	})
	return hn
}

func (h *hnode) treeEmpty() bool { return h.treeHead >= len(h.tree) }

func (h *hnode) treePop() *lnode {
	l := h.tree[h.treeHead]
	h.tree[h.treeHead] = nil
	h.treeHead++
	return l
}

// RunInfo summarises one planner invocation for the solution log.
type RunInfo struct {
	Optimal    bool
	Objective  Objective
	LoopCnt    int
	NumNodeGen int
}

// Bundle is the return value of a factorized planner invocation: the
// local solution up to the split (or the goal), the sub-instances to
// enqueue, and the partition applied (global agent ids) for optional
// persistence.
type Bundle struct {
	Solution      core.Solution
	SubInstances  []*core.Instance
	Partition     Partitions
	SplitTimestep int
	Info          RunInfo
}

// Planner runs the two-level search on one instance. It owns all
// transient search state; the distance table, the graph, and the run
// counters (Infos) are the only shared structures it touches.
type Planner struct {
	ins         *core.Instance
	deadline    *core.Deadline
	rng         *rand.Rand
	objective   Objective
	restartRate float64

	n     int
	vsize int
	dist  *DistTable
	infos *Infos

	agents       []*agent
	occupiedNow  []*agent
	occupiedNext []*agent
	cNext        [][]*core.Vertex
	tieBreakers  []float64

	loopCnt int
	log     *slog.Logger
}

// NewPlanner prepares a planner for ins. dist must be the distance
// table of the top-level instance ins descends from; rng may be nil for
// deterministic tie-breaking.
func NewPlanner(ins *core.Instance, dist *DistTable, deadline *core.Deadline,
	rng *rand.Rand, objective Objective, restartRate float64, infos *Infos) *Planner {

	vsize := ins.G.Size()
	pl := &Planner{
		ins:          ins,
		deadline:     deadline,
		rng:          rng,
		objective:    objective,
		restartRate:  restartRate,
		n:            ins.N,
		vsize:        vsize,
		dist:         dist,
		infos:        infos,
		agents:       make([]*agent, ins.N),
		occupiedNow:  make([]*agent, vsize),
		occupiedNext: make([]*agent, vsize),
		cNext:        make([][]*core.Vertex, ins.N),
		tieBreakers:  make([]float64, vsize),
		log:          slog.Default(),
	}
	for i := range pl.agents {
		pl.agents[i] = &agent{id: i}
		pl.cNext[i] = make([]*core.Vertex, 0, 5)
	}
	return pl
}

// edgeCost is the transition cost between two configurations: under
// sum-of-loss, the number of agents away from goal on either side of
// the move; otherwise 1.
func (pl *Planner) edgeCost(c1, c2 core.Config) int {
	if pl.objective == ObjSumOfLoss {
		cost := 0
		for i := 0; i < pl.n; i++ {
			if c1[i] != pl.ins.Goals[i] || c2[i] != pl.ins.Goals[i] {
				cost++
			}
		}
		return cost
	}
	return 1
}

// hValue estimates the remaining cost of a configuration.
func (pl *Planner) hValue(c core.Config) int {
	cost := 0
	switch pl.objective {
	case ObjMakespan:
		for i := 0; i < pl.n; i++ {
			if d := pl.dist.Get(pl.ins.Enabled[i], c[i]); d > cost {
				cost = d
			}
		}
	case ObjSumOfLoss:
		for i := 0; i < pl.n; i++ {
			cost += pl.dist.Get(pl.ins.Enabled[i], c[i])
		}
	}
	return cost
}

// expandLowLevelTree enqueues one child constraint per candidate vertex
// of the next agent in h's priority order.
func (pl *Planner) expandLowLevelTree(h *hnode, l *lnode) {
	if l.depth >= pl.n {
		return
	}
	i := h.order[l.depth]
	cands := make([]*core.Vertex, 0, len(h.c[i].Neighbor)+1)
	cands = append(cands, h.c[i].Neighbor...)
	cands = append(cands, h.c[i])
	if pl.rng != nil {
		pl.rng.Shuffle(len(cands), func(a, b int) {
			cands[a], cands[b] = cands[b], cands[a]
		})
	}
	for _, v := range cands {
		h.tree = append(h.tree, newLNode(l, i, v))
	}
}

// rewrite records the new back-edge hFrom→hTo and propagates improved
// g-values through the neighbour graph, re-parenting and re-inserting
// improved nodes (Dijkstra-style update; this is what lets LaCAM
// converge to the optimum).
func (pl *Planner) rewrite(hFrom, hTo, hGoal *hnode, open *[]*hnode) {
	hFrom.neighbor[hTo] = struct{}{}

	queue := []*hnode{hFrom}
	for len(queue) > 0 {
		nFrom := queue[0]
		queue = queue[1:]
		for nTo := range nFrom.neighbor {
			g := nFrom.g + pl.edgeCost(nFrom.c, nTo.c)
			if g < nTo.g {
				if nTo == hGoal {
					pl.solverInfo("cost update", "from", nTo.g, "to", g)
				}
				nTo.g = g
				nTo.f = nTo.g + nTo.h
				nTo.parent = nFrom
				queue = append(queue, nTo)
				if hGoal != nil && nTo.f < hGoal.f {
					*open = append(*open, nTo)
				}
			}
		}
	}
}

func backtrack(h *hnode) core.Solution {
	var solution core.Solution
	for h != nil {
		solution = append(solution, h.c)
		h = h.parent
	}
	for a, b := 0, len(solution)-1; a < b; a, b = a+1, b-1 {
		solution[a], solution[b] = solution[b], solution[a]
	}
	return solution
}

func (pl *Planner) solverInfo(msg string, args ...any) {
	pl.log.Debug(msg, append([]any{
		"elapsed_ms", pl.deadline.ElapsedMS(),
		"loop_cnt", pl.loopCnt,
	}, args...)...)
}

// Solve runs the standard two-level search and returns the solution (or
// nil when none exists within the deadline).
func (pl *Planner) Solve() (core.Solution, RunInfo) {
	sol, _, info := pl.search(nil, 0)
	return sol, info
}

// SolveFact runs the search with the factorization gate armed: as soon
// as a freshly generated configuration is provably decomposable the
// search freezes its current path and returns the sub-instances.
// startTime is the absolute timestep of this sub-instance's start
// configuration within the global solution.
func (pl *Planner) SolveFact(fa FactAlgo, startTime int) Bundle {
	sol, bundle, info := pl.search(fa, startTime)
	if bundle != nil {
		bundle.Info = info
		return *bundle
	}
	return Bundle{Solution: sol, Info: info}
}

// search is the common DFS loop; fa non-nil arms the factorization
// gate of the factorized solver.
func (pl *Planner) search(fa FactAlgo, startTime int) (core.Solution, *Bundle, RunInfo) {
	pl.solverInfo("start search", "agents", pl.n)

	var open []*hnode
	explored := make(map[uint32][]*hnode)

	find := func(c core.Config) *hnode {
		for _, h := range explored[core.ConfigHash(c)] {
			if core.IsSameConfig(h.c, c) {
				return h
			}
		}
		return nil
	}
	insert := func(h *hnode) {
		key := core.ConfigHash(h.c)
		explored[key] = append(explored[key], h)
	}

	hInit := pl.newHNode(pl.ins.Starts, nil, 0, pl.hValue(pl.ins.Starts))
	open = append(open, hInit)
	insert(hInit)

	var hGoal *hnode
	var bundle *Bundle

	for len(open) > 0 && !pl.deadline.Expired() {
		pl.loopCnt++

		// do not pop yet: successful expansions keep the node on top
		h := open[len(open)-1]

		if h.treeEmpty() {
			open = open[:len(open)-1]
			continue
		}

		if hGoal != nil && h.f >= hGoal.f {
			open = open[:len(open)-1]
			continue
		}

		if hGoal == nil && core.IsSameConfig(h.c, pl.ins.Goals) {
			hGoal = h
			pl.solverInfo("found solution", "cost", h.g)
			if pl.objective == ObjNone {
				break
			}
			continue
		}

		// low-level successor, then the joint step realising it
		l := h.treePop()
		pl.expandLowLevelTree(h, l)
		if !pl.getNewConfig(h, l) {
			continue
		}

		cNew := make(core.Config, pl.n)
		for _, a := range pl.agents {
			cNew[a.id] = a.vNext
		}

		var hNew *hnode
		if hPrev := find(cNew); hPrev != nil {
			pl.rewrite(h, hPrev, hGoal, &open)
			// always re-insert the found node; restartRate is kept for
			// interface compatibility and does not trigger restarts
			if hGoal == nil || hPrev.f < hGoal.f {
				open = append(open, hPrev)
			}
		} else {
			hNew = pl.newHNode(cNew, h, h.g+pl.edgeCost(h.c, cNew), pl.hValue(cNew))
			insert(hNew)
			if hGoal == nil || hNew.f < hGoal.f {
				open = append(open, hNew)
			}
		}

		// factorization gate, armed on freshly generated configurations
		if fa != nil && hNew != nil && hGoal == nil && pl.n > 1 {
			// cNew's absolute timestep; rewrite may have re-parented
			// ancestors, so measure the current path rather than depth
			pathLen := 0
			for p := h; p != nil; p = p.parent {
				pathLen++
			}
			timestep := startTime + pathLen
			var subs []*core.Instance
			if fa.UseDef() {
				subs = fa.(*FactDef).FactorizeDef(cNew, pl.ins.Goals, pl.ins.Enabled, hNew.priorities, timestep)
			} else {
				var distances []int
				if fa.NeedAstar() {
					distances = make([]int, pl.n)
					for j := 0; j < pl.n; j++ {
						distances[j] = pl.dist.Get(pl.ins.Enabled[j], cNew[j])
					}
				}
				subs = Factorize(fa, pl.ins.G, cNew, pl.ins.Goals, pl.ins.Enabled, distances, hNew.priorities)
			}
			if len(subs) >= 2 {
				pl.solverInfo("factorized", "timestep", timestep, "parts", len(subs))
				partition := make(Partitions, len(subs))
				for idx, sub := range subs {
					partition[idx] = append([]int(nil), sub.Enabled...)
				}
				// freeze the path up to h; the children start at cNew
				bundle = &Bundle{
					Solution:      backtrack(h),
					SubInstances:  subs,
					Partition:     partition,
					SplitTimestep: timestep,
				}
				break
			}
		}
	}

	info := RunInfo{
		Optimal:    hGoal != nil && len(open) == 0,
		Objective:  pl.objective,
		LoopCnt:    pl.loopCnt,
		NumNodeGen: pl.nodeCount(explored),
	}
	if pl.infos != nil {
		pl.infos.LoopCount.Add(int64(pl.loopCnt))
	}

	switch {
	case bundle != nil:
		pl.solverInfo("split into sub-instances", "count", len(bundle.SubInstances))
		return nil, bundle, info
	case hGoal != nil && len(open) == 0:
		pl.solverInfo("solved optimally", "objective", pl.objective.String())
	case hGoal != nil:
		pl.solverInfo("solved sub-optimally", "objective", pl.objective.String())
	case len(open) == 0:
		pl.solverInfo("no solution")
	default:
		pl.solverInfo("timeout")
	}

	if hGoal == nil {
		return nil, nil, info
	}
	return backtrack(hGoal), nil, info
}

func (pl *Planner) nodeCount(explored map[uint32][]*hnode) int {
	n := 0
	for _, bucket := range explored {
		n += len(bucket)
	}
	return n
}
