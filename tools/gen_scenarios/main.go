// Package main generates random MAPF benchmark scenarios for a grid
// map: distinct start cells, distinct goal cells, one agent per line.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

func main() {
	mapFile := flag.String("map", "", "grid map file")
	num := flag.Int("num", 100, "number of agents to generate")
	seed := flag.Int64("seed", 0, "random seed")
	output := flag.String("output", "", "scenario output file (default <map>.scen)")
	flag.Parse()

	if *mapFile == "" {
		fmt.Fprintln(os.Stderr, "missing -map")
		os.Exit(1)
	}
	out := *output
	if out == "" {
		out = *mapFile + ".scen"
	}

	g, err := core.NewGraph(*mapFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *num > g.Size() {
		fmt.Fprintf(os.Stderr, "%d agents do not fit on %d passable cells\n", *num, g.Size())
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	starts := rng.Perm(g.Size())[:*num]
	goals := rng.Perm(g.Size())[:*num]

	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "version 1")
	mapName := filepath.Base(*mapFile)
	for i := 0; i < *num; i++ {
		xs, ys := g.Coord(g.V[starts[i]].Index)
		xg, yg := g.Coord(g.V[goals[i]].Index)
		// trailing field is the optimal-distance placeholder
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			i, mapName, g.Width, g.Height, xs, ys, xg, yg,
			g.Manhattan(g.V[starts[i]].Index, g.V[goals[i]].Index))
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d agents to %s\n", *num, out)
}
