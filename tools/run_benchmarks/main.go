// Package main provides a benchmark runner for the solver binary: it
// sweeps maps × agent counts × factorization policies, collects the
// stats JSON each run appends, and writes a CSV summary.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// statsEntry mirrors the stats schema written by the solver.
type statsEntry struct {
	NumberOfAgents    int     `json:"Number of agents"`
	MapName           string  `json:"Map name"`
	Success           int     `json:"Success"`
	ComputationTimeMS float64 `json:"Computation time (ms)"`
	Makespan          int     `json:"Makespan"`
	Factorized        string  `json:"Factorized"`
	MultiThreading    bool    `json:"Multi threading"`
	LoopCount         int64   `json:"Loop count"`
	SumOfCosts        int     `json:"Sum of costs"`
	SumOfLoss         int     `json:"Sum of loss"`
}

func main() {
	solverBin := flag.String("solver", "./build/lacam", "path to the solver binary")
	mapsDir := flag.String("maps", "assets/maps", "directory with .map files")
	agents := flag.String("agents", "10,20,40", "comma-separated agent counts")
	policies := flag.String("policies", "standard,FactDistance,FactBbox,FactOrient,FactAstar",
		"comma-separated factorize policies")
	timeLimit := flag.Int("time_limit_sec", 30, "per-run time limit")
	seed := flag.Int64("seed", 0, "seed passed to every run")
	outCSV := flag.String("csv", "benchmark_results.csv", "summary output file")
	flag.Parse()

	maps, err := filepath.Glob(filepath.Join(*mapsDir, "*.map"))
	if err != nil || len(maps) == 0 {
		fmt.Fprintf(os.Stderr, "no maps found under %s\n", *mapsDir)
		os.Exit(1)
	}

	statsFile := "stats.json"
	os.Remove(statsFile)

	runs := 0
	for _, mapFile := range maps {
		for _, nStr := range strings.Split(*agents, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(nStr))
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad agent count %q\n", nStr)
				os.Exit(1)
			}
			for _, policy := range strings.Split(*policies, ",") {
				policy = strings.TrimSpace(policy)
				fmt.Printf("run: map=%s num=%d factorize=%s\n", filepath.Base(mapFile), n, policy)
				cmd := exec.Command(*solverBin,
					"--map", mapFile,
					"--num", strconv.Itoa(n),
					"--seed", strconv.FormatInt(*seed, 10),
					"--time_limit_sec", strconv.Itoa(*timeLimit),
					"--factorize", policy,
					"--log_short",
				)
				cmd.Stderr = os.Stderr
				if err := cmd.Run(); err != nil {
					fmt.Fprintf(os.Stderr, "  solver failed: %v\n", err)
					continue
				}
				runs++
			}
		}
	}

	entries, err := loadStats(statsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeCSV(*outCSV, entries); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%d runs, %d stats entries -> %s\n", runs, len(entries), *outCSV)
}

func loadStats(path string) ([]statsEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	var entries []statsEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse stats: %w", err)
	}
	return entries, nil
}

func writeCSV(path string, entries []statsEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"map", "agents", "factorize", "success", "comp_time_ms",
		"makespan", "sum_of_costs", "sum_of_loss", "loop_count"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.MapName,
			strconv.Itoa(e.NumberOfAgents),
			e.Factorized,
			strconv.Itoa(e.Success),
			strconv.FormatFloat(e.ComputationTimeMS, 'f', 2, 64),
			strconv.Itoa(e.Makespan),
			strconv.Itoa(e.SumOfCosts),
			strconv.Itoa(e.SumOfLoss),
			strconv.FormatInt(e.LoopCount, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
