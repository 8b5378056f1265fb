package vis

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Result is the subset of a solution log the visualizer needs.
type Result struct {
	Agents   int
	Starts   []image.Point
	Goals    []image.Point
	Solution [][]image.Point // per timestep, one cell per agent
}

var (
	reKeyVal = regexp.MustCompile(`^(\w+)=(.*)$`)
	reCell   = regexp.MustCompile(`\((\d+),(\d+)\)`)
)

// LoadResult parses a solution log written by the solver.
func LoadResult(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	defer f.Close()

	res := &Result{}
	inSolution := false
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()

		if inSolution {
			colon := strings.IndexByte(line, ':')
			if colon < 0 {
				continue
			}
			res.Solution = append(res.Solution, parseCells(line[colon+1:]))
			continue
		}

		m := reKeyVal.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch m[1] {
		case "agents":
			res.Agents, _ = strconv.Atoi(m[2])
		case "starts":
			res.Starts = parseCells(m[2])
		case "goals":
			res.Goals = parseCells(m[2])
		case "solution":
			inSolution = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(res.Solution) == 0 {
		return nil, fmt.Errorf("load result %s: no solution recorded", path)
	}
	return res, nil
}

func parseCells(s string) []image.Point {
	var cells []image.Point
	for _, m := range reCell.FindAllStringSubmatch(s, -1) {
		x, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		cells = append(cells, image.Pt(x, y))
	}
	return cells
}
