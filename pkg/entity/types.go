// Package entity defines the closed set of drawing primitives the converter
// understands. Entity is a sealed interface: only the variants declared in this
// package implement it, and consumers switch over them exhaustively.
package entity

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
)

// Kind identifies an entity variant
type Kind int

const (
	KindUnsupported Kind = iota
	KindLine
	KindArc
	KindCircle
	KindPolyline
	KindSpline
	KindText
	KindMalformed
)

// KindNames maps kinds to the names used in logs and summaries
var KindNames = map[Kind]string{
	KindUnsupported: "unsupported",
	KindLine:        "line",
	KindArc:         "arc",
	KindCircle:      "circle",
	KindPolyline:    "polyline",
	KindSpline:      "spline",
	KindText:        "text",
	KindMalformed:   "malformed",
}

func (k Kind) String() string {
	if name, ok := KindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds lists the supported kinds in summary order
var Kinds = []Kind{KindArc, KindCircle, KindLine, KindPolyline, KindSpline, KindText}

// Entity is one drawing primitive read from the source stream
type Entity interface {
	Kind() Kind
	Attrs() Header
	sealed()
}

// Header carries the attributes shared by every entity
type Header struct {
	Layer      string // Layer name, case-sensitive
	Handle     string // Source handle (DXF group 5), may be empty
	SourceLine int    // Line in the source file where the entity starts, 0 if unknown
}

// Attrs returns the shared attributes
func (h Header) Attrs() Header { return h }

func (h Header) sealed() {}

// Location formats the source position for diagnostics, empty if unknown
func (h Header) Location() string {
	switch {
	case h.Handle != "" && h.SourceLine > 0:
		return fmt.Sprintf("line %d, handle %s", h.SourceLine, h.Handle)
	case h.SourceLine > 0:
		return fmt.Sprintf("line %d", h.SourceLine)
	case h.Handle != "":
		return "handle " + h.Handle
	default:
		return ""
	}
}

// Line is a straight segment
type Line struct {
	Header
	Start geom.Point
	End   geom.Point
}

// Arc is a circular arc drawn counter-clockwise from StartAngle to EndAngle
type Arc struct {
	Header
	Center     geom.Point
	Radius     float64
	StartAngle float64 // Degrees
	EndAngle   float64 // Degrees
}

// Circle is a full circle
type Circle struct {
	Header
	Center geom.Point
	Radius float64
}

// Vertex is one polyline vertex. Bulge describes the segment that starts here.
type Vertex struct {
	Point geom.Point
	Bulge float64
}

// Polyline is an ordered chain of vertices
type Polyline struct {
	Header
	Vertices []Vertex
	Closed   bool
}

// Points returns the vertex locations without bulge data
func (p Polyline) Points() []geom.Point {
	pts := make([]geom.Point, len(p.Vertices))
	for i, v := range p.Vertices {
		pts[i] = v.Point
	}
	return pts
}

// Spline is a (possibly rational) B-spline given by control points and knots
type Spline struct {
	Header
	Degree        int
	ControlPoints []geom.Point
	Knots         []float64
	Weights       []float64 // Empty means 1.0 for every control point
	Closed        bool
	Periodic      bool
	Rational      bool
}

// Text is a single line of text anchored at Insert
type Text struct {
	Header
	Insert   geom.Point
	Content  string
	Height   float64
	Rotation float64 // Degrees
}

// Unsupported stands in for a source entity type the converter has no model for
type Unsupported struct {
	Header
	Type string // Source type name, e.g. "HATCH"
}

// Malformed stands in for a source entity whose groups could not be decoded
type Malformed struct {
	Header
	Type string // Source type name, e.g. "SPLINE"
	Err  error  // Why decoding failed
}

func (Line) Kind() Kind        { return KindLine }
func (Arc) Kind() Kind         { return KindArc }
func (Circle) Kind() Kind      { return KindCircle }
func (Polyline) Kind() Kind    { return KindPolyline }
func (Spline) Kind() Kind      { return KindSpline }
func (Text) Kind() Kind        { return KindText }
func (Unsupported) Kind() Kind { return KindUnsupported }
func (Malformed) Kind() Kind   { return KindMalformed }

// TypeName returns a human readable type for logs, using the source type for
// unsupported and malformed entities
func TypeName(e Entity) string {
	switch v := e.(type) {
	case Unsupported:
		return v.Type
	case Malformed:
		return v.Type
	}
	return e.Kind().String()
}
