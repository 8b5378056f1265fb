package algo

import (
	"sort"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// agent is the transient working record used by PIBT while one joint
// successor configuration is assembled.
type agent struct {
	id    int
	vNow  *core.Vertex
	vNext *core.Vertex
}

// getNewConfig realises one joint step: it applies the low-level
// constraint L to the agents of H's configuration and completes the
// remaining assignments with PIBT in priority order. It reports false
// when the constraint is contradictory or PIBT fails.
func (pl *Planner) getNewConfig(h *hnode, l *lnode) bool {
	// reset the occupancy caches from the previous invocation
	for _, a := range pl.agents {
		if a.vNow != nil && pl.occupiedNow[a.vNow.ID] == a {
			pl.occupiedNow[a.vNow.ID] = nil
		}
		if a.vNext != nil {
			pl.occupiedNext[a.vNext.ID] = nil
			a.vNext = nil
		}
		a.vNow = h.c[a.id]
		pl.occupiedNow[a.vNow.ID] = a
	}

	// pre-commit the constrained agents
	for k := 0; k < l.depth; k++ {
		i := l.who[k]
		target := l.where[k]

		// vertex conflict with an earlier commitment
		if pl.occupiedNext[target.ID] != nil {
			return false
		}
		// swap conflict: someone moves into i's cell while i moves into theirs
		prev := h.c[i].ID
		if pl.occupiedNext[prev] != nil && pl.occupiedNow[target.ID] != nil &&
			pl.occupiedNext[prev].id == pl.occupiedNow[target.ID].id {
			return false
		}

		pl.agents[i].vNext = target
		pl.occupiedNext[target.ID] = pl.agents[i]
	}

	// complete the configuration in decreasing priority order
	for _, k := range h.order {
		a := pl.agents[k]
		if a.vNext == nil && !pl.funcPIBT(a) {
			return false
		}
	}

	if pl.infos != nil {
		pl.infos.ActionsCount.Add(int64(pl.n))
		moved := 0
		for _, a := range pl.agents {
			if a.vNext != nil && a.vNext.ID != a.vNow.ID {
				moved++
			}
		}
		pl.infos.ActionsCountActive.Add(int64(moved))
	}
	return true
}

// funcPIBT plans the next vertex for ai, recursively pushing the agents
// it displaces (priority inheritance). On failure ai is pinned to its
// current vertex.
func (pl *Planner) funcPIBT(ai *agent) bool {
	if pl.infos != nil {
		pl.infos.PIBTCalls.Add(1)
	}
	i := ai.id
	k := len(ai.vNow.Neighbor)

	cands := pl.cNext[i][:0]
	for _, u := range ai.vNow.Neighbor {
		cands = append(cands, u)
		if pl.rng != nil {
			pl.tieBreakers[u.ID] = pl.rng.Float64()
		}
	}
	cands = append(cands, ai.vNow)
	pl.cNext[i] = cands

	gi := pl.ins.Enabled[i]
	sort.SliceStable(cands, func(a, b int) bool {
		return float64(pl.dist.Get(gi, cands[a]))+pl.tieBreakers[cands[a].ID] <
			float64(pl.dist.Get(gi, cands[b]))+pl.tieBreakers[cands[b].ID]
	})

	swapAgent := pl.swapPossibleAndRequired(ai)
	if swapAgent != nil {
		for a, b := 0, len(cands)-1; a < b; a, b = a+1, b-1 {
			cands[a], cands[b] = cands[b], cands[a]
		}
	}

	for idx := 0; idx < k+1; idx++ {
		u := cands[idx]

		// vertex conflict: next cell already reserved
		if pl.occupiedNext[u.ID] != nil {
			continue
		}
		ak := pl.occupiedNow[u.ID]

		// swap conflict: its occupant heads into our cell
		if ak != nil && ak.vNext == ai.vNow {
			continue
		}

		pl.occupiedNext[u.ID] = ai
		ai.vNext = u

		// priority inheritance: displace the current occupant
		if ak != nil && ak != ai && ak.vNext == nil && !pl.funcPIBT(ak) {
			continue
		}

		// pull the swap partner behind us when the best move succeeded
		if idx == 0 && swapAgent != nil && swapAgent.vNext == nil &&
			pl.occupiedNext[ai.vNow.ID] == nil {
			swapAgent.vNext = ai.vNow
			pl.occupiedNext[swapAgent.vNext.ID] = swapAgent
		}
		if pl.infos != nil && ai.vNext.ID != ai.vNow.ID {
			pl.infos.PIBTCallsActive.Add(1)
		}
		return true
	}

	// no vertex could be secured: stay put
	pl.occupiedNext[ai.vNow.ID] = ai
	ai.vNext = ai.vNow
	return false
}

// swapPossibleAndRequired detects the two swap patterns: the direct
// case where ai's best move is blocked by an agent that must pass
// through ai's cell, and the clear case where a neighbour needs ai's
// corridor.
func (pl *Planner) swapPossibleAndRequired(ai *agent) *agent {
	i := ai.id
	if pl.cNext[i][0] == ai.vNow {
		return nil
	}

	// usual swap situation, c.f., case-a, b
	if aj := pl.occupiedNow[pl.cNext[i][0].ID]; aj != nil && aj.vNext == nil &&
		pl.isSwapRequired(ai.id, aj.id, ai.vNow, aj.vNow) &&
		pl.isSwapPossible(aj.vNow, ai.vNow) {
		return aj
	}

	// for clear operation, c.f., case-c
	for _, u := range ai.vNow.Neighbor {
		ak := pl.occupiedNow[u.ID]
		if ak == nil || pl.cNext[i][0] == ak.vNow {
			continue
		}
		if pl.isSwapRequired(ak.id, ai.id, ai.vNow, pl.cNext[i][0]) &&
			pl.isSwapPossible(pl.cNext[i][0], ai.vNow) {
			return ak
		}
	}
	return nil
}

// isSwapRequired walks the puller's side of the corridor away from the
// pusher; the swap is required when the pull direction strictly
// improves the pusher's distance while the push direction does not.
// pusher and puller are local agent ids.
func (pl *Planner) isSwapRequired(pusher, puller int, vPusherOrigin, vPullerOrigin *core.Vertex) bool {
	gPusher := pl.ins.Enabled[pusher]
	gPuller := pl.ins.Enabled[puller]
	vPusher := vPusherOrigin
	vPuller := vPullerOrigin
	var tmp *core.Vertex
	for pl.dist.Get(gPusher, vPuller) < pl.dist.Get(gPusher, vPusher) {
		n := len(vPuller.Neighbor)
		// remove agents who need not move
		for _, u := range vPuller.Neighbor {
			a := pl.occupiedNow[u.ID]
			if u == vPusher ||
				(len(u.Neighbor) == 1 && a != nil && pl.ins.Goals[a.id] == u) {
				n--
			} else {
				tmp = u
			}
		}
		if n >= 2 {
			return false // room to dodge, no swap needed
		}
		if n <= 0 {
			break
		}
		vPusher = vPuller
		vPuller = tmp
	}

	return pl.dist.Get(gPuller, vPusher) < pl.dist.Get(gPuller, vPuller) &&
		(pl.dist.Get(gPusher, vPusher) == 0 ||
			pl.dist.Get(gPusher, vPuller) < pl.dist.Get(gPusher, vPusher))
}

// isSwapPossible checks that the corridor eventually reaches a
// branching cell before re-entering the pusher's origin.
func (pl *Planner) isSwapPossible(vPusherOrigin, vPullerOrigin *core.Vertex) bool {
	vPusher := vPusherOrigin
	vPuller := vPullerOrigin
	var tmp *core.Vertex
	for vPuller != vPusherOrigin { // avoid loop
		n := len(vPuller.Neighbor)
		for _, u := range vPuller.Neighbor {
			a := pl.occupiedNow[u.ID]
			if u == vPusher ||
				(len(u.Neighbor) == 1 && a != nil && pl.ins.Goals[a.id] == u) {
				n--
			} else {
				tmp = u
			}
		}
		if n >= 2 {
			return true
		}
		if n <= 0 {
			return false
		}
		vPusher = vPuller
		vPuller = tmp
	}
	return false
}
