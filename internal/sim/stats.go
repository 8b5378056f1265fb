package sim

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/elektrokombinacija/lacam-fact/internal/algo"
	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// StatsParams describes one run for the stats JSON.
type StatsParams struct {
	FileName       string
	Factorize      string
	N              int
	CompTimeMS     float64
	Infos          *algo.Infos
	Solution       core.Solution
	MapName        string
	Success        bool
	MultiThreading bool
}

// statsEntry matches the stats schema of the analysis tooling.
type statsEntry struct {
	NumberOfAgents     int     `json:"Number of agents"`
	MapName            string  `json:"Map name"`
	Success            int     `json:"Success"`
	ComputationTimeMS  float64 `json:"Computation time (ms)"`
	Makespan           int     `json:"Makespan"`
	Factorized         string  `json:"Factorized"`
	MultiThreading     bool    `json:"Multi threading"`
	LoopCount          int64   `json:"Loop count"`
	PIBTCalls          int64   `json:"PIBT calls"`
	ActivePIBTCalls    int64   `json:"Active PIBT calls"`
	ActionCounts       int64   `json:"Action counts"`
	ActiveActionCounts int64   `json:"Active action counts"`
	SumOfCosts         int     `json:"Sum of costs"`
	SumOfLoss          int     `json:"Sum of loss"`
}

// MakeStats appends one entry to the stats JSON array, recreating the
// file when it is missing or unparsable.
func MakeStats(p StatsParams) error {
	var entries []statsEntry
	if data, err := os.ReadFile(p.FileName); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			slog.Warn("stats file malformed, overwriting", "file", p.FileName)
			entries = nil
		}
	}

	success := 0
	if p.Success {
		success = 1
	}
	entries = append(entries, statsEntry{
		NumberOfAgents:     p.N,
		MapName:            p.MapName,
		Success:            success,
		ComputationTimeMS:  p.CompTimeMS,
		Makespan:           Makespan(p.Solution),
		Factorized:         p.Factorize,
		MultiThreading:     p.MultiThreading,
		LoopCount:          p.Infos.LoopCount.Load(),
		PIBTCalls:          p.Infos.PIBTCalls.Load(),
		ActivePIBTCalls:    p.Infos.PIBTCallsActive.Load(),
		ActionCounts:       p.Infos.ActionsCount.Load(),
		ActiveActionCounts: p.Infos.ActionsCountActive.Load(),
		SumOfCosts:         SumOfCosts(p.Solution),
		SumOfLoss:          SumOfLoss(p.Solution),
	})

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return os.WriteFile(p.FileName, data, 0o644)
}

// WritePartitions persists the per-timestep partition table to
// assets/temp/<factorize>_partitions.json in the layout NewFactDef
// reads; FactDef itself loads the file named for "FactDef".
func WritePartitions(partitions algo.PartitionsMap, factorize string) error {
	obj := make(map[string]algo.Partitions, len(partitions))
	for timestep, parts := range partitions {
		if len(parts) > 0 {
			obj[strconv.Itoa(timestep)] = parts
		}
	}

	data, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return fmt.Errorf("write partitions: %w", err)
	}
	path := filepath.Join("assets", "temp", factorize+"_partitions.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write partitions: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
