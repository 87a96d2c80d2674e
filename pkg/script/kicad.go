package script

import (
	"fmt"
	"io"
	"strings"
)

// Default KiCad layers for commands without an explicit target layer
const (
	KiCadGraphicLayer = "Edge.Cuts"
	KiCadTextLayer    = "F.SilkS"
	KiCadStrokeWidth  = 0.1 // mm
)

// KiCad writes board graphic items (gr_line, gr_arc, gr_circle, gr_text), one
// s-expression per line, ready to paste into a .kicad_pcb file. KiCad's Y axis
// points down, so every Y coordinate is negated. Text angles are
// counter-clockwise on screen in both systems and are written unchanged.
type KiCad struct{}

func init() {
	Register(KiCad{})
}

// Name returns "kicad"
func (KiCad) Name() string { return "kicad" }

// Extension returns ".kicad_sexp"
func (KiCad) Extension() string { return ".kicad_sexp" }

// NewEncoder creates a KiCad encoder
func (KiCad) NewEncoder(w io.Writer, f Format) Encoder {
	return &kicadEncoder{w: w, f: f}
}

type kicadEncoder struct {
	w io.Writer
	f Format
}

func (k *kicadEncoder) Begin() error { return nil }

func (k *kicadEncoder) End() error { return nil }

func (k *kicadEncoder) Encode(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	layer := cmd.Target()
	if layer == "" {
		layer = KiCadGraphicLayer
		if _, ok := cmd.(Text); ok {
			layer = KiCadTextLayer
		}
	}

	var s string
	switch c := cmd.(type) {
	case Wire:
		if !k.f.Zero(c.Curve) {
			s = fmt.Sprintf("(gr_arc %s %s %s %s %s)",
				k.node("start", c.From.X, c.From.Y), k.node("mid", c.Mid.X, c.Mid.Y), k.node("end", c.To.X, c.To.Y),
				k.stroke(), kicadLayer(layer))
		} else {
			s = fmt.Sprintf("(gr_line %s %s %s %s)",
				k.node("start", c.From.X, c.From.Y), k.node("end", c.To.X, c.To.Y), k.stroke(), kicadLayer(layer))
		}

	case Arc:
		s = fmt.Sprintf("(gr_arc %s %s %s %s %s)",
			k.node("start", c.From.X, c.From.Y), k.node("mid", c.Mid.X, c.Mid.Y), k.node("end", c.To.X, c.To.Y),
			k.stroke(), kicadLayer(layer))

	case Circle:
		s = fmt.Sprintf("(gr_circle %s %s %s (fill none) %s)",
			k.node("center", c.Center.X, c.Center.Y), k.node("end", c.Center.X+c.Radius, c.Center.Y),
			k.stroke(), kicadLayer(layer))

	case Text:
		size := ""
		if c.Size > 0 {
			h := k.f.Number(c.Size)
			size = fmt.Sprintf(" (effects (font (size %s %s)))", h, h)
		}
		s = fmt.Sprintf("(gr_text %s (at %s %s %s) %s%s)",
			kicadQuote(c.Content), k.f.Number(c.At.X), k.f.Number(-c.At.Y), k.f.Number(c.Rotation),
			kicadLayer(layer), size)

	default:
		return fmt.Errorf("kicad: unsupported command %T", cmd)
	}

	_, err := io.WriteString(k.w, s+"\n")
	return err
}

// node writes a point, flipping y into KiCad's downward axis
func (k *kicadEncoder) node(name string, x, y float64) string {
	return "(" + name + " " + k.f.Number(x) + " " + k.f.Number(-y) + ")"
}

func (k *kicadEncoder) stroke() string {
	return "(stroke (width " + k.f.Number(KiCadStrokeWidth) + ") (type solid))"
}

func kicadLayer(name string) string {
	return "(layer " + kicadQuote(name) + ")"
}

func kicadQuote(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r\n", `\n`, "\n", `\n`).Replace(s)
	return `"` + s + `"`
}
