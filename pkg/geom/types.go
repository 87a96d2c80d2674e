// Package geom provides the 2D value types and the scale/offset transform shared by
// every stage of the DXF conversion pipeline.
package geom

import "math"

// Point represents a 2D coordinate in drawing units
type Point struct {
	X float64
	Y float64
}

// Add returns the component-wise sum of two points
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the component-wise difference p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul scales both components by s
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// IsFinite reports whether both components are finite numbers
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Distance returns the euclidean distance between two points
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// BoundingBox represents a rectangular boundary
type BoundingBox struct {
	Min Point // Minimum corner
	Max Point // Maximum corner
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// IsEmpty checks if the bounding box is empty
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand expands the bounding box to include a point
func (bb *BoundingBox) Expand(p Point) {
	bb.Min.X = math.Min(bb.Min.X, p.X)
	bb.Min.Y = math.Min(bb.Min.Y, p.Y)
	bb.Max.X = math.Max(bb.Max.X, p.X)
	bb.Max.Y = math.Max(bb.Max.Y, p.Y)
}

// ExpandCircle expands the bounding box to include a full circle
func (bb *BoundingBox) ExpandCircle(center Point, radius float64) {
	bb.Expand(Point{X: center.X - radius, Y: center.Y - radius})
	bb.Expand(Point{X: center.X + radius, Y: center.Y + radius})
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// Center returns the center point of the bounding box
func (bb BoundingBox) Center() Point {
	return Point{
		X: (bb.Min.X + bb.Max.X) / 2.0,
		Y: (bb.Min.Y + bb.Max.Y) / 2.0,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return isFinite(v)
}
