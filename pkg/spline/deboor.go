// Package spline flattens B-spline curves into polylines.
//
// Curves are evaluated with De Boor's algorithm in its iterative form: the
// degree+1 control points that influence a knot span are copied into a small
// working array and blended in place, one round per degree. Rational curves are
// blended in homogeneous coordinates (wx, wy, w) and projected at the end.
package spline

import (
	"errors"
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
)

// Sentinel errors describing why a curve cannot be evaluated
var (
	ErrTooFewControlPoints = errors.New("spline needs at least 2 control points")
	ErrBadDegree           = errors.New("spline degree must be at least 1 and below the control point count")
	ErrKnotCount           = errors.New("knot count must equal control points + degree + 1")
	ErrKnotOrder           = errors.New("knot vector must be non-decreasing and finite")
	ErrEmptyDomain         = errors.New("knot vector has an empty parameter domain")
	ErrWeightCount         = errors.New("weight count must match control point count")
	ErrBadWeight           = errors.New("weights must be positive and finite")
	ErrPointCount          = errors.New("at least 2 sample points are required")
)

// Curve is a non-uniform (rational) B-spline
type Curve struct {
	Control []geom.Point
	Weights []float64 // Optional, one per control point
	Knots   []float64
	Degree  int
}

// Validate checks the structural relationship between degree, control points,
// knots and weights
func (c Curve) Validate() error {
	n := len(c.Control)
	if n < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewControlPoints, n)
	}
	if c.Degree < 1 || c.Degree >= n {
		return fmt.Errorf("%w: degree %d with %d control points", ErrBadDegree, c.Degree, n)
	}
	if want := n + c.Degree + 1; len(c.Knots) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrKnotCount, len(c.Knots), want)
	}
	for i, k := range c.Knots {
		if !geom.IsFinite(k) || (i > 0 && k < c.Knots[i-1]) {
			return fmt.Errorf("%w: knot %d = %g", ErrKnotOrder, i, k)
		}
	}
	if lo, hi := c.Domain(); !(hi > lo) {
		return fmt.Errorf("%w: [%g, %g]", ErrEmptyDomain, lo, hi)
	}
	if len(c.Weights) != 0 {
		if len(c.Weights) != n {
			return fmt.Errorf("%w: got %d, want %d", ErrWeightCount, len(c.Weights), n)
		}
		for i, w := range c.Weights {
			if !(w > 0) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: weight %d = %g", ErrBadWeight, i, w)
			}
		}
	}
	return nil
}

// Domain returns the valid parameter range [knots[degree], knots[n]]
func (c Curve) Domain() (float64, float64) {
	n := len(c.Control)
	if c.Degree < 0 || c.Degree >= len(c.Knots) || n >= len(c.Knots) {
		return 0, 0
	}
	return c.Knots[c.Degree], c.Knots[n]
}

// Evaluate returns the curve position at parameter u. Values outside the
// domain are clamped to it.
func (c Curve) Evaluate(u float64) (geom.Point, error) {
	if err := c.Validate(); err != nil {
		return geom.Point{}, err
	}
	return c.evaluate(u, make([]homogeneous, c.Degree+1)), nil
}

// Flatten samples count points evenly across the curve domain, both ends
// included. The result is ordered start to end and never closed implicitly.
func Flatten(c Curve, count int) ([]geom.Point, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if count < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrPointCount, count)
	}

	lo, hi := c.Domain()
	step := (hi - lo) / float64(count-1)
	work := make([]homogeneous, c.Degree+1)

	points := make([]geom.Point, count)
	for i := range points {
		u := lo + step*float64(i)
		if i == count-1 {
			u = hi
		}
		points[i] = c.evaluate(u, work)
	}
	return points, nil
}

// homogeneous is a control point lifted into weighted space
type homogeneous struct {
	x, y, w float64
}

// evaluate runs De Boor's algorithm on a validated curve. work must hold
// degree+1 entries and is overwritten.
func (c Curve) evaluate(u float64, work []homogeneous) geom.Point {
	p := c.Degree
	lo, hi := c.Domain()
	u = math.Max(lo, math.Min(hi, u))
	k := c.span(u)

	for j := 0; j <= p; j++ {
		idx := j + k - p
		w := 1.0
		if len(c.Weights) != 0 {
			w = c.Weights[idx]
		}
		cp := c.Control[idx]
		work[j] = homogeneous{x: cp.X * w, y: cp.Y * w, w: w}
	}

	t := c.Knots
	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			left := t[j+k-p]
			alpha := (u - left) / (t[j+1+k-r] - left)
			prev, cur := work[j-1], work[j]
			work[j] = homogeneous{
				x: (1-alpha)*prev.x + alpha*cur.x,
				y: (1-alpha)*prev.y + alpha*cur.y,
				w: (1-alpha)*prev.w + alpha*cur.w,
			}
		}
	}

	res := work[p]
	return geom.Point{X: res.x / res.w, Y: res.y / res.w}
}

// span returns the knot span index k with knots[k] <= u < knots[k+1],
// restricted to [degree, n-1]. The upper domain bound maps to the last
// non-empty span so the final control point stays reachable.
func (c Curve) span(u float64) int {
	n := len(c.Control)
	k := c.Degree
	for k < n-1 && c.Knots[k+1] <= u {
		k++
	}
	for k > c.Degree && c.Knots[k] == c.Knots[k+1] {
		k--
	}
	return k
}

// SampleCount is the number of flattened points for a spline with the given
// number of control points and point scalar
func SampleCount(controlPoints, scalar int) int {
	return controlPoints * scalar
}
