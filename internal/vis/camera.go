package vis

import "gioui.org/io/pointer"

// Camera manages the view transform (pan and zoom) of the grid view.
type Camera struct {
	OffsetX float32
	OffsetY float32
	Zoom    float32

	dragging bool
	lastX    float32
	lastY    float32
}

// NewCamera creates a camera with the default view.
func NewCamera() *Camera {
	return &Camera{OffsetX: 60, OffsetY: 60, Zoom: 1}
}

// Reset restores the default view.
func (c *Camera) Reset() {
	c.OffsetX, c.OffsetY, c.Zoom = 60, 60, 1
}

// WorldToScreen converts world coordinates to screen pixels.
func (c *Camera) WorldToScreen(worldX, worldY float64) (float32, float32) {
	return float32(worldX)*c.Zoom + c.OffsetX, float32(worldY)*c.Zoom + c.OffsetY
}

// HandleEvent processes pointer events for pan (drag) and zoom
// (scroll).
func (c *Camera) HandleEvent(ev pointer.Event) {
	switch ev.Kind {
	case pointer.Press:
		if ev.Buttons.Contain(pointer.ButtonSecondary) || ev.Buttons.Contain(pointer.ButtonTertiary) {
			c.dragging = true
		}
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Drag:
		if c.dragging {
			c.OffsetX += ev.Position.X - c.lastX
			c.OffsetY += ev.Position.Y - c.lastY
		}
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Release, pointer.Cancel:
		c.dragging = false

	case pointer.Scroll:
		factor := float32(1.1)
		if ev.Scroll.Y > 0 {
			factor = 1 / factor
		}
		// zoom centered on the pointer
		c.OffsetX = ev.Position.X - (ev.Position.X-c.OffsetX)*factor
		c.OffsetY = ev.Position.Y - (ev.Position.Y-c.OffsetY)*factor
		c.Zoom *= factor
	}
}
