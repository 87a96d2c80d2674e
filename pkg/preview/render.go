package preview

import (
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

// ColorBackground is the canvas color
var ColorBackground = color.NRGBA{R: 0, G: 16, B: 35, A: 255}

// Palette holds the colors handed out to output layers in order of appearance
var Palette = []color.NRGBA{
	{R: 242, G: 237, B: 161, A: 255}, // yellow
	{R: 200, G: 52, B: 52, A: 255},   // red
	{R: 77, G: 127, B: 196, A: 255},  // blue
	{R: 127, G: 200, B: 127, A: 255}, // green
	{R: 206, G: 125, B: 44, A: 255},  // orange
	{R: 255, G: 38, B: 226, A: 255},  // magenta
	{R: 38, G: 233, B: 255, A: 255},  // cyan
	{R: 175, G: 175, B: 175, A: 255}, // gray
}

// Minimum on-screen sizes in pixels
const (
	minStrokeWidth = 1.0
	minTextSize    = 4.0
	maxTextSize    = 200.0
)

// Renderer draws a document onto a Gio operation list
type Renderer struct {
	doc    *script.Document
	shaper *text.Shaper
	colors map[string]color.NRGBA

	// StrokeWidth is the line width in drawing units
	StrokeWidth float64
}

// NewRenderer prepares a renderer for doc
func NewRenderer(doc *script.Document) *Renderer {
	r := &Renderer{
		doc:         doc,
		shaper:      text.NewShaper(text.WithCollection(gofont.Collection())),
		colors:      make(map[string]color.NRGBA),
		StrokeWidth: 0.1,
	}
	for _, cmd := range doc.Commands() {
		r.LayerColor(cmd.Target())
	}
	return r
}

// LayerColor returns the color assigned to an output layer
func (r *Renderer) LayerColor(layer string) color.NRGBA {
	if c, ok := r.colors[layer]; ok {
		return c
	}
	c := Palette[len(r.colors)%len(Palette)]
	r.colors[layer] = c
	return c
}

// Render draws every command of the document
func (r *Renderer) Render(gtx layout.Context, cam *Camera) {
	paint.Fill(gtx.Ops, ColorBackground)

	width := math.Max(r.StrokeWidth*cam.Zoom, minStrokeWidth)
	for _, cmd := range r.doc.Commands() {
		col := r.LayerColor(cmd.Target())
		if t, ok := cmd.(script.Text); ok {
			r.renderText(gtx, cam, t, col)
			continue
		}
		renderPolyline(gtx, cam, Outline(cmd), width, col)
	}
}

func renderPolyline(gtx layout.Context, cam *Camera, pts []geom.Point, width float64, col color.NRGBA) {
	if len(pts) < 2 {
		return
	}

	var path clip.Path
	path.Begin(gtx.Ops)
	x, y := cam.WorldToScreen(pts[0])
	path.MoveTo(f32.Pt(float32(x), float32(y)))
	for _, p := range pts[1:] {
		x, y = cam.WorldToScreen(p)
		path.LineTo(f32.Pt(float32(x), float32(y)))
	}

	stroke := clip.Stroke{
		Path:  path.End(),
		Width: float32(width),
	}.Op()
	paint.FillShape(gtx.Ops, col, stroke)
}

func (r *Renderer) renderText(gtx layout.Context, cam *Camera, t script.Text, col color.NRGBA) {
	size := t.Size
	if size == 0 {
		size = 1
	}
	px := size * cam.Zoom
	if px < minTextSize {
		return
	}
	px = math.Min(px, maxTextSize)

	x, y := cam.WorldToScreen(t.At)
	// Screen Y points down, so counter-clockwise drawing angles turn negative.
	angle := float32(-(t.Rotation + cam.Rotation) * math.Pi / 180.0)
	transform := f32.Affine2D{}.
		Offset(f32.Pt(0, float32(-px))).
		Rotate(f32.Pt(0, 0), angle).
		Offset(f32.Pt(float32(x), float32(y)))

	macro := op.Record(gtx.Ops)
	stack := op.Affine(transform).Push(gtx.Ops)

	paint.ColorOp{Color: col}.Add(gtx.Ops)
	label := widget.Label{Alignment: text.Start, MaxLines: 1}
	label.Layout(gtx, r.shaper, font.Font{}, unit.Sp(float32(px)), t.Content, op.CallOp{})

	stack.Pop()
	call := macro.Stop()
	call.Add(gtx.Ops)
}
