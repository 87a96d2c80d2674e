// Package preview draws converted script documents with Gio.
package preview

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
)

// Zoom limits in pixels per drawing unit
const (
	MinZoom = 0.01
	MaxZoom = 10000.0
)

// Camera maps drawing coordinates (Y up) to screen pixels (Y down)
type Camera struct {
	Center geom.Point // World position at the middle of the screen
	Zoom   float64    // Pixels per drawing unit

	ScreenWidth  int
	ScreenHeight int

	Flipped  bool    // Mirror around the vertical axis
	Rotation float64 // View rotation in degrees, kept in [0, 360)
	Pivot    geom.Point
}

// NewCamera creates a camera for a screen of the given size
func NewCamera(screenWidth, screenHeight int) *Camera {
	return &Camera{
		Zoom:         10.0,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

// WorldToScreen converts a drawing position to screen pixels
func (c *Camera) WorldToScreen(p geom.Point) (float64, float64) {
	p = c.view(p)

	x := (p.X-c.Center.X)*c.Zoom + float64(c.ScreenWidth)/2.0
	y := (p.Y-c.Center.Y)*c.Zoom + float64(c.ScreenHeight)/2.0

	return x, float64(c.ScreenHeight) - y
}

// ScreenToWorld converts screen pixels to a drawing position
func (c *Camera) ScreenToWorld(screenX, screenY float64) geom.Point {
	y := float64(c.ScreenHeight) - screenY

	p := geom.Point{
		X: (screenX-float64(c.ScreenWidth)/2.0)/c.Zoom + c.Center.X,
		Y: (y-float64(c.ScreenHeight)/2.0)/c.Zoom + c.Center.Y,
	}
	return c.inverseView(p)
}

// ZoomAt zooms by factor keeping the world point under the cursor fixed
func (c *Camera) ZoomAt(screenX, screenY, factor float64) {
	before := c.ScreenToWorld(screenX, screenY)

	c.Zoom = math.Max(MinZoom, math.Min(MaxZoom, c.Zoom*factor))

	after := c.ScreenToWorld(screenX, screenY)
	c.Center = c.Center.Add(before.Sub(after))
}

// Fit centers the box on screen and zooms so it fills 90% of the window
func (c *Camera) Fit(box geom.BoundingBox) {
	if box.IsEmpty() {
		return
	}

	c.Center = box.Center()
	c.Pivot = c.Center

	w, h := box.Width(), box.Height()
	switch {
	case w <= 0 && h <= 0:
		return
	case w <= 0:
		c.Zoom = float64(c.ScreenHeight) * 0.9 / h
	case h <= 0:
		c.Zoom = float64(c.ScreenWidth) * 0.9 / w
	default:
		c.Zoom = math.Min(float64(c.ScreenWidth)*0.9/w, float64(c.ScreenHeight)*0.9/h)
	}
	c.Zoom = math.Max(MinZoom, math.Min(MaxZoom, c.Zoom))
}

// Resize updates the screen size after a window resize
func (c *Camera) Resize(width, height int) {
	c.ScreenWidth = width
	c.ScreenHeight = height
}

// Flip toggles the mirrored view
func (c *Camera) Flip() {
	c.Flipped = !c.Flipped
}

// Rotate turns the view by degrees
func (c *Camera) Rotate(degrees float64) {
	c.Rotation = math.Mod(c.Rotation+degrees, 360)
	if c.Rotation < 0 {
		c.Rotation += 360
	}
}

// view applies rotation and then flip around the pivot
func (c *Camera) view(p geom.Point) geom.Point {
	d := p.Sub(c.Pivot)
	if c.Rotation != 0 {
		d = rotate(d, c.Rotation)
	}
	if c.Flipped {
		d.X = -d.X
	}
	return d.Add(c.Pivot)
}

func (c *Camera) inverseView(p geom.Point) geom.Point {
	d := p.Sub(c.Pivot)
	if c.Flipped {
		d.X = -d.X
	}
	if c.Rotation != 0 {
		d = rotate(d, -c.Rotation)
	}
	return d.Add(c.Pivot)
}

func rotate(p geom.Point, degrees float64) geom.Point {
	rad := degrees * math.Pi / 180.0
	sin, cos := math.Sincos(rad)
	return geom.Point{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}
