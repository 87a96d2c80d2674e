// Package script holds editor commands produced by the converter and renders
// them in the textual syntax of a target editor.
//
// Commands are already in output coordinates. Encoders only format them; they
// never transform geometry.
package script

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
)

// ErrNonFinite is returned when a command carries a NaN or infinite value
var ErrNonFinite = errors.New("non-finite value")

// Command is one editor command. The set of commands is closed.
type Command interface {
	// Target returns the output layer name, empty to keep the current layer
	Target() string
	// Validate reports values that cannot be written to a script
	Validate() error
	command()
}

// On carries the output layer of a command
type On struct {
	Layer string
}

// Target returns the output layer name
func (o On) Target() string { return o.Layer }

func (On) command() {}

// Wire is a straight segment, or a circular segment when Curve is non-zero
type Wire struct {
	On
	From  geom.Point
	To    geom.Point
	Curve float64    // Included angle in degrees, positive is counter-clockwise
	Mid   geom.Point // Point halfway along a curved wire, unused when Curve is 0
}

// Arc is a circular arc drawn counter-clockwise from From to To
type Arc struct {
	On
	Center     geom.Point
	Radius     float64
	StartAngle float64 // Degrees, as in the source
	EndAngle   float64 // Degrees, as in the source
	From       geom.Point
	Mid        geom.Point
	To         geom.Point
	Sweep      float64 // Counter-clockwise sweep in degrees, (0, 360)
}

// Circle is a full circle
type Circle struct {
	On
	Center geom.Point
	Radius float64
}

// Text places a single line of text
type Text struct {
	On
	At       geom.Point
	Content  string
	Size     float64 // Text height, 0 keeps the editor's current size
	Rotation float64 // Degrees
}

// Validate checks that all coordinates are finite
func (w Wire) Validate() error {
	if w.Curve != 0 {
		return finite("wire", w.From, w.To, w.Mid, geom.Point{X: w.Curve})
	}
	return finite("wire", w.From, w.To)
}

// Validate checks that all coordinates are finite
func (a Arc) Validate() error {
	return finite("arc", a.Center, a.From, a.Mid, a.To,
		geom.Point{X: a.Radius, Y: a.Sweep}, geom.Point{X: a.StartAngle, Y: a.EndAngle})
}

// Validate checks that all coordinates are finite
func (c Circle) Validate() error {
	return finite("circle", c.Center, geom.Point{X: c.Radius})
}

// Validate checks that all coordinates are finite
func (t Text) Validate() error {
	return finite("text", t.At, geom.Point{X: t.Size, Y: t.Rotation})
}

func finite(what string, points ...geom.Point) error {
	for _, p := range points {
		if !p.IsFinite() {
			return fmt.Errorf("%s: %w in (%g, %g)", what, ErrNonFinite, p.X, p.Y)
		}
	}
	return nil
}

// Name returns the command type for logs and statistics
func Name(c Command) string {
	switch c.(type) {
	case Wire:
		return "wire"
	case Arc:
		return "arc"
	case Circle:
		return "circle"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("%T", c)
	}
}
