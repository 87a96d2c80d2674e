package preview

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

// SegmentsPerTurn is the number of straight segments used for a full circle
const SegmentsPerTurn = 72

// Outline returns the polyline traced by a geometry command in drawing
// coordinates. Text has no outline and returns nil.
func Outline(cmd script.Command) []geom.Point {
	switch c := cmd.(type) {
	case script.Wire:
		if c.Curve == 0 {
			return []geom.Point{c.From, c.To}
		}
		return wireArc(c)
	case script.Arc:
		return arcPoints(c.Center, c.Radius, c.StartAngle, c.Sweep)
	case script.Circle:
		return arcPoints(c.Center, c.Radius, 0, 360)
	}
	return nil
}

// wireArc traces a curved wire. The center sits on the chord's left normal
// for counter-clockwise curves.
func wireArc(w script.Wire) []geom.Point {
	d := w.To.Sub(w.From)
	chord := math.Hypot(d.X, d.Y)
	if chord == 0 {
		return []geom.Point{w.From, w.To}
	}

	half := w.Curve * math.Pi / 360.0
	normal := geom.Point{X: -d.Y / chord, Y: d.X / chord}
	center := w.From.Add(w.To).Mul(0.5).Add(normal.Mul(chord / 2 / math.Tan(half)))

	radius := w.From.Distance(center)
	start := math.Atan2(w.From.Y-center.Y, w.From.X-center.X) * 180.0 / math.Pi
	pts := arcPoints(center, radius, start, w.Curve)
	// Pin the ends to the exact wire endpoints.
	pts[0], pts[len(pts)-1] = w.From, w.To
	return pts
}

func arcPoints(center geom.Point, radius, start, sweep float64) []geom.Point {
	n := int(math.Ceil(math.Abs(sweep) / 360.0 * SegmentsPerTurn))
	if n < 2 {
		n = 2
	}
	pts := make([]geom.Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = geom.Polar(center, radius, start+sweep*float64(i)/float64(n))
	}
	return pts
}

// Bounds returns the extent of all commands in a document
func Bounds(doc *script.Document) geom.BoundingBox {
	box := geom.NewBoundingBox()
	for _, cmd := range doc.Commands() {
		switch c := cmd.(type) {
		case script.Circle:
			box.ExpandCircle(c.Center, c.Radius)
		case script.Text:
			box.Expand(c.At)
			box.Expand(c.At.Add(geom.Point{Y: c.Size}))
		default:
			for _, p := range Outline(cmd) {
				box.Expand(p)
			}
		}
	}
	return box
}
