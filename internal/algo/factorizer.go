package algo

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// safetyDistance is the extra margin (in cells) required between two
// agents before a policy declares them separable.
const safetyDistance = 0

// Partitions groups agent ids into disjoint sets; each set becomes one
// sub-instance.
type Partitions [][]int

// PartitionsMap records the partition applied at each timestep.
type PartitionsMap map[int]Partitions

// FactAlgo is a pairwise-separability policy. separable reports, for
// two agents given by their current grid indices and goal grid indices,
// that no pair of remaining paths can collide. distances carries the
// per-local-agent oracle distances when NeedAstar is set.
type FactAlgo interface {
	Name() string
	NeedAstar() bool
	UseDef() bool
	separable(p1, g1, p2, g2, j1, j2 int, distances []int) bool
}

// NewFactAlgo maps a CLI policy name to its implementation.
func NewFactAlgo(name string, g *core.Graph) (FactAlgo, error) {
	switch name {
	case "FactDistance":
		return &FactDistance{g: g}, nil
	case "FactBbox":
		return &FactBbox{g: g}, nil
	case "FactOrient":
		return &FactOrient{g: g}, nil
	case "FactAstar":
		return &FactAstar{g: g}, nil
	case "FactDef":
		return NewFactDef(g, FactDefPartitionsPath)
	}
	return nil, fmt.Errorf("unknown factorize policy %q", name)
}

// Factorize checks whether the enabled agents at configuration c can be
// split into ≥2 groups that the policy proves mutually independent. It
// returns the projected sub-instances, or nil when no split exists.
func Factorize(fa FactAlgo, g *core.Graph, c, goals core.Config, enabled []int,
	distances []int, priorities []float32) []*core.Instance {

	n := len(c)
	partitions := make(Partitions, n)
	agentLoc := make([]int, n)
	for j := 0; j < n; j++ {
		partitions[j] = []int{j}
		agentLoc[j] = j
	}

	merged := false
	for j1 := 0; j1 < n && !merged; j1++ {
		loc1 := agentLoc[j1]
		for j2 := j1 + 1; j2 < n; j2++ {
			loc2 := agentLoc[j2]
			if loc1 == loc2 {
				continue
			}
			if fa.separable(c[j1].Index, goals[j1].Index, c[j2].Index, goals[j2].Index, j1, j2, distances) {
				continue
			}
			// not separable: merge partition loc2 into loc1
			partitions[loc1] = append(partitions[loc1], partitions[loc2]...)
			for _, a := range partitions[loc2] {
				agentLoc[a] = loc1
			}
			partitions[loc2] = nil
			sort.Ints(partitions[loc1])
			if len(partitions[loc1]) == n {
				merged = true // all agents coupled, no split possible
				break
			}
		}
	}

	nonEmpty := partitions[:0]
	for _, p := range partitions {
		if len(p) > 0 {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) < 2 {
		return nil
	}
	return splitInstances(g, c, goals, enabled, nonEmpty, priorities)
}

// splitInstances projects the configuration, goals, enabled vector, and
// priorities onto each partition (of local agent ids) and builds one
// sub-instance per partition.
func splitInstances(g *core.Graph, c, goals core.Config, enabled []int,
	partitions Partitions, priorities []float32) []*core.Instance {

	subs := make([]*core.Instance, 0, len(partitions))
	for _, agents := range partitions {
		starts := make(core.Config, len(agents))
		subGoals := make(core.Config, len(agents))
		subEnabled := make([]int, len(agents))
		subPriorities := make([]float32, len(agents))
		for newID, relID := range agents {
			starts[newID] = c[relID]
			subGoals[newID] = goals[relID]
			subEnabled[newID] = enabled[relID]
			subPriorities[newID] = priorities[relID]
		}
		subs = append(subs, core.NewSubInstance(g, starts, subGoals, subEnabled, subPriorities))
	}
	return subs
}

// FactDistance separates two agents when their Manhattan distance
// exceeds the sum of their Manhattan distances to goal plus the safety
// margin.
type FactDistance struct {
	g *core.Graph
}

func (f *FactDistance) Name() string    { return "FactDistance" }
func (f *FactDistance) NeedAstar() bool { return false }
func (f *FactDistance) UseDef() bool    { return false }

func (f *FactDistance) separable(p1, g1, p2, g2, j1, j2 int, distances []int) bool {
	d1 := f.g.Manhattan(p1, g1)
	d2 := f.g.Manhattan(p2, g2)
	da := f.g.Manhattan(p1, p2)
	return da > d1+d2+safetyDistance
}

// FactBbox separates two agents when the axis-aligned bounding boxes of
// their (position, goal) pairs do not overlap.
type FactBbox struct {
	g *core.Graph
}

func (f *FactBbox) Name() string    { return "FactBbox" }
func (f *FactBbox) NeedAstar() bool { return false }
func (f *FactBbox) UseDef() bool    { return false }

func (f *FactBbox) separable(p1, g1, p2, g2, j1, j2 int, distances []int) bool {
	x1, y1 := f.g.Coord(p1)
	xg1, yg1 := f.g.Coord(g1)
	x2, y2 := f.g.Coord(p2)
	xg2, yg2 := f.g.Coord(g2)

	x1min, x1max := min(x1, xg1), max(x1, xg1)
	y1min, y1max := min(y1, yg1), max(y1, yg1)
	x2min, x2max := min(x2, xg2), max(x2, xg2)
	y2min, y2max := min(y2, yg2), max(y2, yg2)

	d := abs(x1-x2) + abs(y1-y2)

	overlap := !(x1max < x2min || x2max < x1min || y1max < y2min || y2max < y1min)
	return d > safetyDistance && !overlap
}

// FactOrient separates two agents when their (position, goal) segments
// do not intersect and stay at least the safety margin apart.
type FactOrient struct {
	g *core.Graph
}

func (f *FactOrient) Name() string    { return "FactOrient" }
func (f *FactOrient) NeedAstar() bool { return false }
func (f *FactOrient) UseDef() bool    { return false }

func (f *FactOrient) separable(p1, g1, p2, g2, j1, j2 int, distances []int) bool {
	x1, y1 := f.g.Coord(p1)
	xg1, yg1 := f.g.Coord(g1)
	x2, y2 := f.g.Coord(p2)
	xg2, yg2 := f.g.Coord(g2)

	da := abs(x1-x2) + abs(y1-y2)
	dg := abs(xg1-xg2) + abs(yg1-yg2)
	if da < safetyDistance && dg < safetyDistance {
		return false
	}

	a1, t1 := pt{x1, y1}, pt{xg1, yg1}
	a2, t2 := pt{x2, y2}, pt{xg2, yg2}

	notIntersecting := !segmentsIntersect(a1, t1, a2, t2)
	if safetyDistance != 0 {
		return notIntersecting && segmentsMinDistance(a1, t1, a2, t2) >= safetyDistance
	}
	return notIntersecting
}

// FactAstar applies the FactDistance algebra with the oracle's true
// shortest-path distances to goal instead of the Manhattan estimate.
// The caller supplies distances[j] = oracle distance of local agent j
// at its current vertex.
type FactAstar struct {
	g *core.Graph
}

func (f *FactAstar) Name() string    { return "FactAstar" }
func (f *FactAstar) NeedAstar() bool { return true }
func (f *FactAstar) UseDef() bool    { return false }

func (f *FactAstar) separable(p1, g1, p2, g2, j1, j2 int, distances []int) bool {
	d1 := distances[j1]
	d2 := distances[j2]
	da := f.g.Manhattan(p1, p2)
	return da > d1+d2+safetyDistance
}

// FactDefPartitionsPath is the conventional location of the persisted
// partition table consumed by FactDef.
const FactDefPartitionsPath = "assets/temp/FactDef_partitions.json"

// FactDef replays a partition table persisted by an earlier run: a JSON
// object mapping decimal timesteps to groups of global agent ids. A
// missing or malformed file is fatal at construction.
type FactDef struct {
	g          *core.Graph
	partitions PartitionsMap
}

// NewFactDef loads the partition table at path.
func NewFactDef(g *core.Graph, path string) (*FactDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("FactDef: %w", err)
	}
	var raw map[string]Partitions
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("FactDef: parse %s: %w", path, err)
	}
	fd := &FactDef{g: g, partitions: make(PartitionsMap, len(raw))}
	for key, value := range raw {
		t, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("FactDef: bad timestep key %q in %s", key, path)
		}
		fd.partitions[t] = value
	}
	return fd, nil
}

func (f *FactDef) Name() string    { return "FactDef" }
func (f *FactDef) NeedAstar() bool { return false }
func (f *FactDef) UseDef() bool    { return true }

func (f *FactDef) separable(p1, g1, p2, g2, j1, j2 int, distances []int) bool {
	return false
}

// FactorizeDef looks up the partition recorded for the given absolute
// timestep, keeps the groups that intersect the enabled set, and if at
// least two remain projects the sub-instances directly from global ids.
func (f *FactDef) FactorizeDef(c, goals core.Config, enabled []int,
	priorities []float32, timestep int) []*core.Instance {

	partition, ok := f.partitions[timestep]
	if !ok {
		return nil
	}

	// reverse of the enabled vector: global id -> local id
	agentMap := make(map[int]int, len(enabled))
	for j, globalID := range enabled {
		agentMap[globalID] = j
	}

	var filtered Partitions
	for _, block := range partition {
		for _, agent := range block {
			if _, ok := agentMap[agent]; ok {
				filtered = append(filtered, block)
				break
			}
		}
	}
	if len(filtered) < 2 {
		return nil
	}

	subs := make([]*core.Instance, 0, len(filtered))
	for _, block := range filtered {
		var starts, subGoals core.Config
		var subEnabled []int
		var subPriorities []float32
		for _, globalID := range block {
			relID, ok := agentMap[globalID]
			if !ok {
				continue // listed agent not part of this sub-problem
			}
			starts = append(starts, c[relID])
			subGoals = append(subGoals, goals[relID])
			subEnabled = append(subEnabled, globalID)
			subPriorities = append(subPriorities, priorities[relID])
		}
		if len(starts) > 0 {
			subs = append(subs, core.NewSubInstance(f.g, starts, subGoals, subEnabled, subPriorities))
		}
	}
	if len(subs) < 2 {
		return nil
	}
	return subs
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
