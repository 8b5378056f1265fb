// Command lacamvis replays a solver result log on its grid map.
package main

import (
	"flag"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
	"github.com/elektrokombinacija/lacam-fact/internal/vis"
)

func main() {
	mapFile := flag.String("map", "", "grid map file")
	resultFile := flag.String("result", "./build/result.txt", "solution log to replay")
	flag.Parse()

	if *mapFile == "" {
		log.Fatal("missing -map")
	}

	g, err := core.NewGraph(*mapFile)
	if err != nil {
		log.Fatal(err)
	}
	res, err := vis.LoadResult(*resultFile)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		window := new(app.Window)
		window.Option(
			app.Title("LaCAM Visualizer"),
			app.Size(unit.Dp(1200), unit.Dp(800)),
		)

		application := vis.NewApp(g, res)
		if err := application.Run(window); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}
