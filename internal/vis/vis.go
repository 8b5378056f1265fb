// Package vis implements a Gio-based playback visualizer for solved
// MAPF instances: the grid map, goal markers, and agents animated along
// the solution with a scrubber timeline.
package vis

import (
	"image"
	"image/color"
	"math"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/lacam-fact/internal/core"
)

// cellSize is the world-space size of one grid cell in pixels at zoom 1.
const cellSize = 24

const timelineHeight = 48

var (
	colorBackground = color.NRGBA{R: 30, G: 30, B: 35, A: 255}
	colorCellFree   = color.NRGBA{R: 55, G: 60, B: 66, A: 255}
	colorCellWall   = color.NRGBA{R: 22, G: 22, B: 26, A: 255}
	colorGoal       = color.NRGBA{R: 80, G: 180, B: 100, A: 160}
	colorTrack      = color.NRGBA{R: 60, G: 65, B: 70, A: 255}
	colorTrackFill  = color.NRGBA{R: 100, G: 180, B: 255, A: 255}
	colorTimeline   = color.NRGBA{R: 35, G: 38, B: 42, A: 255}
)

// agent color palette, cycled by agent id
var agentPalette = []color.NRGBA{
	{R: 100, G: 200, B: 255, A: 255},
	{R: 255, G: 150, B: 100, A: 255},
	{R: 200, G: 100, B: 255, A: 255},
	{R: 120, G: 220, B: 120, A: 255},
	{R: 255, G: 120, B: 160, A: 255},
	{R: 240, G: 210, B: 90, A: 255},
}

// App is the playback application.
type App struct {
	graph    *core.Graph
	result   *Result
	playback *Playback
	camera   *Camera
	scrub    bool
}

// NewApp prepares the application for one map and one solution log.
func NewApp(g *core.Graph, res *Result) *App {
	return &App{
		graph:    g,
		result:   res,
		playback: NewPlayback(len(res.Solution)),
		camera:   NewCamera(),
	}
}

// Run drives the window event loop.
func (a *App) Run(w *app.Window) error {
	var ops op.Ops
	keyTag := new(int)

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err

		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)

			for {
				ev, ok := gtx.Event(key.Filter{Focus: keyTag})
				if !ok {
					break
				}
				if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
					a.handleKey(ke)
				}
			}
			event.Op(gtx.Ops, keyTag)

			a.layout(gtx)
			e.Frame(gtx.Ops)

			if a.playback.Playing {
				a.playback.Advance()
				w.Invalidate()
			}
		}
	}
}

func (a *App) handleKey(e key.Event) {
	switch e.Name {
	case key.NameSpace:
		a.playback.TogglePlay()
	case key.NameLeftArrow:
		a.playback.StepBack()
	case key.NameRightArrow:
		a.playback.StepForward()
	case key.NameHome:
		a.playback.Reset()
	case "R":
		a.camera.Reset()
	}
}

func (a *App) layout(gtx layout.Context) {
	paint.Fill(gtx.Ops, colorBackground)

	gridMax := gtx.Constraints.Max
	gridMax.Y -= timelineHeight
	a.handleGridEvents(gtx, gridMax)
	a.drawGrid(gtx)
	a.drawGoals(gtx)
	a.drawAgents(gtx)
	a.layoutTimeline(gtx, gridMax.Y)
}

func (a *App) handleGridEvents(gtx layout.Context, size image.Point) {
	defer clip.Rect(image.Rectangle{Max: size}).Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, a.camera)
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  a.camera,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -120, Max: 120},
		})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			a.camera.HandleEvent(pe)
		}
	}
}

func (a *App) drawGrid(gtx layout.Context) {
	for y := 0; y < a.graph.Height; y++ {
		for x := 0; x < a.graph.Width; x++ {
			col := colorCellFree
			if a.graph.U[a.graph.Width*y+x] == nil {
				col = colorCellWall
			}
			a.fillCell(gtx, float64(x), float64(y), col, 1)
		}
	}
}

func (a *App) drawGoals(gtx layout.Context) {
	for _, gcell := range a.result.Goals {
		a.fillCell(gtx, float64(gcell.X)+0.25, float64(gcell.Y)+0.25, colorGoal, 0.5)
	}
}

func (a *App) drawAgents(gtx layout.Context) {
	t := a.playback.Current
	t0 := int(math.Floor(t))
	t1 := t0 + 1
	if t1 >= len(a.result.Solution) {
		t1 = len(a.result.Solution) - 1
	}
	frac := t - float64(t0)

	for i := 0; i < a.result.Agents; i++ {
		p0 := a.result.Solution[t0][i]
		p1 := a.result.Solution[t1][i]
		x := float64(p0.X) + (float64(p1.X)-float64(p0.X))*frac
		y := float64(p0.Y) + (float64(p1.Y)-float64(p0.Y))*frac
		a.drawCircle(gtx, x+0.5, y+0.5, 0.38, agentPalette[i%len(agentPalette)])
	}
}

// fillCell fills a size×size square at grid position (x, y), with a one
// pixel gap so the grid lines show through.
func (a *App) fillCell(gtx layout.Context, x, y float64, col color.NRGBA, size float64) {
	sx, sy := a.camera.WorldToScreen(x*cellSize, y*cellSize)
	w := float32(cellSize*size)*a.camera.Zoom - 1
	if w < 1 {
		w = 1
	}
	rect := image.Rect(int(sx), int(sy), int(sx+w), int(sy+w))
	paint.FillShape(gtx.Ops, col, clip.Rect(rect).Op())
}

func (a *App) drawCircle(gtx layout.Context, x, y, radius float64, col color.NRGBA) {
	cx, cy := a.camera.WorldToScreen(x*cellSize, y*cellSize)
	r := float32(radius*cellSize) * a.camera.Zoom

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(cx+r, cy))
	segments := 24
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / float64(segments)
		path.LineTo(f32.Pt(cx+r*float32(math.Cos(angle)), cy+r*float32(math.Sin(angle))))
	}
	path.Close()
	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func (a *App) layoutTimeline(gtx layout.Context, top int) {
	maxX := gtx.Constraints.Max.X
	rect := image.Rect(0, top, maxX, top+timelineHeight)
	paint.FillShape(gtx.Ops, colorTimeline, clip.Rect(rect).Op())

	margin := 16
	trackY := top + timelineHeight/2
	trackWidth := maxX - 2*margin

	// scrubbing
	area := clip.Rect(rect).Push(gtx.Ops)
	event.Op(gtx.Ops, a.playback)
	area.Pop()
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: a.playback,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Press:
			a.scrub = true
		case pointer.Release:
			a.scrub = false
		}
		if a.scrub {
			frac := float64(pe.Position.X-float32(margin)) / float64(trackWidth)
			a.playback.Playing = false
			a.playback.SetTime(frac * a.playback.Max)
		}
	}

	track := image.Rect(margin, trackY-3, margin+trackWidth, trackY+3)
	paint.FillShape(gtx.Ops, colorTrack, clip.Rect(track).Op())

	fill := int(float64(trackWidth) * a.playback.Progress())
	if fill > 0 {
		fillRect := image.Rect(margin, trackY-3, margin+fill, trackY+3)
		paint.FillShape(gtx.Ops, colorTrackFill, clip.Rect(fillRect).Op())
	}
}
