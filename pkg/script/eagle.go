package script

import (
	"fmt"
	"io"
	"strings"
)

// Eagle is the EAGLE script (.scr) dialect.
//
// Syntax written:
//
//	set wire_bend 2;
//	layer Dimension;
//	wire (x1 y1) (x2 y2);
//	wire (x1 y1) +90 (x2 y2);
//	circle (cx cy) (cx+r cy);
//	change size 1.5;
//	text 'content' R0 (x y);
type Eagle struct{}

func init() {
	Register(Eagle{})
}

// Name returns "eagle"
func (Eagle) Name() string { return "eagle" }

// Extension returns ".scr"
func (Eagle) Extension() string { return ".scr" }

// NewEncoder creates an EAGLE encoder
func (Eagle) NewEncoder(w io.Writer, f Format) Encoder {
	return &eagleEncoder{w: w, f: f}
}

type eagleEncoder struct {
	w        io.Writer
	f        Format
	layer    string
	size     float64
	haveSize bool
}

func (e *eagleEncoder) Begin() error {
	if !e.f.Header {
		return nil
	}
	// Straight wire bend so wires run directly from start to end.
	return e.line("set wire_bend 2;")
}

func (e *eagleEncoder) End() error { return nil }

func (e *eagleEncoder) Encode(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if target := cmd.Target(); target != "" && target != e.layer {
		if err := e.line(fmt.Sprintf("layer %s;", target)); err != nil {
			return err
		}
		e.layer = target
	}

	switch c := cmd.(type) {
	case Wire:
		if !e.f.Zero(c.Curve) {
			return e.line(fmt.Sprintf("wire %s %s %s;", e.pt(c.From.X, c.From.Y), e.f.Signed(c.Curve), e.pt(c.To.X, c.To.Y)))
		}
		return e.line(fmt.Sprintf("wire %s %s;", e.pt(c.From.X, c.From.Y), e.pt(c.To.X, c.To.Y)))

	case Arc:
		return e.line(fmt.Sprintf("wire %s %s %s;", e.pt(c.From.X, c.From.Y), e.f.Signed(c.Sweep), e.pt(c.To.X, c.To.Y)))

	case Circle:
		return e.line(fmt.Sprintf("circle %s %s;", e.pt(c.Center.X, c.Center.Y), e.pt(c.Center.X+c.Radius, c.Center.Y)))

	case Text:
		if c.Size > 0 && (!e.haveSize || e.f.Number(c.Size) != e.f.Number(e.size)) {
			if err := e.line(fmt.Sprintf("change size %s;", e.f.Number(c.Size))); err != nil {
				return err
			}
			e.size = c.Size
			e.haveSize = true
		}
		return e.line(fmt.Sprintf("text %s R%s %s;", eagleQuote(c.Content), e.f.Number(c.Rotation), e.pt(c.At.X, c.At.Y)))

	default:
		return fmt.Errorf("eagle: unsupported command %T", cmd)
	}
}

func (e *eagleEncoder) pt(x, y float64) string {
	return "(" + e.f.Number(x) + " " + e.f.Number(y) + ")"
}

func (e *eagleEncoder) line(s string) error {
	_, err := io.WriteString(e.w, s+"\n")
	return err
}

// eagleQuote wraps s in single quotes, doubling embedded quotes. Line breaks
// would end the statement early, so they become spaces.
func eagleQuote(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
