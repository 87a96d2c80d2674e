package geom

import "math"

// Transform is the uniform scale followed by translation applied to every
// coordinate written to a script: output = input*Scale + Offset.
type Transform struct {
	Scale  float64 // Uniform scale factor, must be > 0
	Offset Point   // Translation applied after scaling
}

// Identity returns a transform that leaves points unchanged
func Identity() Transform {
	return Transform{Scale: 1.0}
}

// Apply applies the transformation to a point
func (t Transform) Apply(p Point) Point {
	return Point{
		X: p.X*t.Scale + t.Offset.X,
		Y: p.Y*t.Scale + t.Offset.Y,
	}
}

// ApplyAll transforms a sequence of points into a new slice
func (t Transform) ApplyAll(points []Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = t.Apply(p)
	}
	return out
}

// Length scales a distance (radius, text height). Offsets never apply to lengths.
func (t Transform) Length(v float64) float64 {
	return v * t.Scale
}

// Polar returns the point at angle deg (degrees, CCW from +X) on a circle
func Polar(center Point, radius, deg float64) Point {
	rad := deg * math.Pi / 180.0
	return Point{
		X: center.X + radius*math.Cos(rad),
		Y: center.Y + radius*math.Sin(rad),
	}
}

// NormalizeSweep returns the counter-clockwise sweep from start to end in
// degrees, in the range (0, 360]. Equal angles are a full turn.
func NormalizeSweep(start, end float64) float64 {
	sweep := math.Mod(end-start, 360)
	if sweep <= 0 {
		sweep += 360
	}
	return sweep
}

// BulgeAngle converts a polyline bulge into the signed included angle of the
// arc segment in degrees. Positive values turn counter-clockwise.
func BulgeAngle(bulge float64) float64 {
	return 4 * math.Atan(bulge) * 180.0 / math.Pi
}

// BulgeMid returns the point halfway along the arc segment from a to b
// described by bulge. A zero bulge yields the chord midpoint.
func BulgeMid(a, b Point, bulge float64) Point {
	mid := a.Add(b).Mul(0.5)
	d := b.Sub(a)
	// Sagitta is bulge * chord/2, measured to the right of a->b for CCW arcs.
	return Point{
		X: mid.X + bulge/2*d.Y,
		Y: mid.Y - bulge/2*d.X,
	}
}
