package algo

import "sync/atomic"

// Infos accumulates solver counters across planner invocations.
// Workers of a multi-threaded run share one Infos, so all fields are
// atomics. "Active" counters only tally calls and actions that moved an
// agent off its current vertex.
type Infos struct {
	LoopCount          atomic.Int64
	PIBTCalls          atomic.Int64
	PIBTCallsActive    atomic.Int64
	ActionsCount       atomic.Int64
	ActionsCountActive atomic.Int64
	NodesGenerated     atomic.Int64
}
