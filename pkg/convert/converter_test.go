package convert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/layer"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/spline"
)

const eps = 1e-9

func near(a, b geom.Point) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func mustNew(t *testing.T, opts Options) *Converter {
	t.Helper()
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func on(layer string) entity.Header {
	return entity.Header{Layer: layer}
}

func clampedCubic(h entity.Header) entity.Spline {
	return entity.Spline{
		Header:        h,
		Degree:        3,
		ControlPoints: []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 2}, {X: 3, Y: 2}, {X: 4, Y: 0}},
		Knots:         []float64{0, 0, 0, 0, 1, 1, 1, 1},
	}
}

func TestLineScaledAndOffset(t *testing.T) {
	opts := DefaultOptions()
	opts.Scale = 2
	opts.Offset = geom.Point{X: 5, Y: 5}
	c := mustNew(t, opts)

	res := c.Run([]entity.Entity{
		entity.Line{Header: on("Top"), Start: geom.Point{X: 0, Y: 0}, End: geom.Point{X: 10, Y: 0}},
	})

	cmds := res.Document.Commands()
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	w, ok := cmds[0].(script.Wire)
	if !ok {
		t.Fatalf("command is %T, want script.Wire", cmds[0])
	}
	if w.From != (geom.Point{X: 5, Y: 5}) || w.To != (geom.Point{X: 25, Y: 5}) {
		t.Errorf("wire = %v -> %v, want (5,5) -> (25,5)", w.From, w.To)
	}

	out, err := res.Document.Render(script.Eagle{}, script.Format{Precision: 6})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.TrimSpace(out) != "wire (5 5) (25 5);" {
		t.Errorf("script = %q", out)
	}
}

func TestCircleRadiusScalesWithoutOffset(t *testing.T) {
	opts := DefaultOptions()
	opts.Scale = 2
	c := mustNew(t, opts)

	cmds, err := c.Entity(entity.Circle{Center: geom.Point{}, Radius: 3})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	circle := cmds[0].(script.Circle)
	if circle.Center != (geom.Point{}) || circle.Radius != 6 {
		t.Errorf("circle = %+v, want center (0,0) radius 6", circle)
	}

	opts.Offset = geom.Point{X: 10, Y: -10}
	c = mustNew(t, opts)
	cmds, _ = c.Entity(entity.Circle{Center: geom.Point{X: 1, Y: 1}, Radius: 3})
	circle = cmds[0].(script.Circle)
	if circle.Center != (geom.Point{X: 12, Y: -8}) || circle.Radius != 6 {
		t.Errorf("offset circle = %+v", circle)
	}
}

func TestArc(t *testing.T) {
	opts := DefaultOptions()
	opts.Scale = 2
	opts.Offset = geom.Point{X: 1, Y: 1}
	c := mustNew(t, opts)

	cmds, err := c.Entity(entity.Arc{Center: geom.Point{}, Radius: 1, StartAngle: 0, EndAngle: 90})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	arc := cmds[0].(script.Arc)
	if arc.StartAngle != 0 || arc.EndAngle != 90 {
		t.Errorf("angles changed: %v..%v", arc.StartAngle, arc.EndAngle)
	}
	if arc.Center != (geom.Point{X: 1, Y: 1}) || arc.Radius != 2 {
		t.Errorf("center/radius = %v/%v", arc.Center, arc.Radius)
	}
	if !near(arc.From, geom.Point{X: 3, Y: 1}) || !near(arc.To, geom.Point{X: 1, Y: 3}) {
		t.Errorf("endpoints = %v, %v", arc.From, arc.To)
	}
	if arc.Sweep != 90 {
		t.Errorf("sweep = %v, want 90", arc.Sweep)
	}
	r := math.Sqrt2
	if !near(arc.Mid, geom.Point{X: 1 + r, Y: 1 + r}) {
		t.Errorf("mid = %v", arc.Mid)
	}
}

func TestArcWrapsCounterClockwise(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	cmds, err := c.Entity(entity.Arc{Radius: 1, StartAngle: 270, EndAngle: 0})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if sweep := cmds[0].(script.Arc).Sweep; sweep != 90 {
		t.Errorf("sweep = %v, want 90", sweep)
	}

	cmds, _ = c.Entity(entity.Arc{Radius: 1, StartAngle: 0, EndAngle: 270})
	if sweep := cmds[0].(script.Arc).Sweep; sweep != 270 {
		t.Errorf("sweep = %v, want 270", sweep)
	}
}

func TestFullTurnArcBecomesCircle(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	cmds, err := c.Entity(entity.Arc{Center: geom.Point{X: 2, Y: 2}, Radius: 1, StartAngle: 30, EndAngle: 30})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if _, ok := cmds[0].(script.Circle); !ok {
		t.Errorf("got %T, want script.Circle", cmds[0])
	}
}

func TestPolyline(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	square := []entity.Vertex{
		{Point: geom.Point{X: 0, Y: 0}},
		{Point: geom.Point{X: 1, Y: 0}},
		{Point: geom.Point{X: 1, Y: 1}},
		{Point: geom.Point{X: 0, Y: 1}},
	}

	open, err := c.Entity(entity.Polyline{Vertices: square})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if len(open) != 3 {
		t.Errorf("open polyline: %d wires, want 3", len(open))
	}

	closed, err := c.Entity(entity.Polyline{Vertices: square, Closed: true})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if len(closed) != 4 {
		t.Fatalf("closed polyline: %d wires, want 4", len(closed))
	}
	last := closed[3].(script.Wire)
	if last.From != (geom.Point{X: 0, Y: 1}) || last.To != (geom.Point{X: 0, Y: 0}) {
		t.Errorf("closing wire = %v -> %v", last.From, last.To)
	}

	// Consecutive wires share endpoints.
	for i := 1; i < len(closed); i++ {
		if closed[i-1].(script.Wire).To != closed[i].(script.Wire).From {
			t.Errorf("wire %d does not start where wire %d ends", i, i-1)
		}
	}
}

func TestClosedPolylineRepeatingFirstVertex(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	cmds, err := c.Entity(entity.Polyline{Closed: true, Vertices: []entity.Vertex{
		{Point: geom.Point{X: 0, Y: 0}},
		{Point: geom.Point{X: 1, Y: 0}},
		{Point: geom.Point{X: 0, Y: 0}},
	}})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if len(cmds) != 2 {
		t.Errorf("got %d wires, want 2 (no zero-length closing wire)", len(cmds))
	}
}

func TestPolylineBulge(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	cmds, err := c.Entity(entity.Polyline{Vertices: []entity.Vertex{
		{Point: geom.Point{X: 0, Y: 0}, Bulge: 1},
		{Point: geom.Point{X: 2, Y: 0}},
		{Point: geom.Point{X: 2, Y: 2}},
	}})
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	curved := cmds[0].(script.Wire)
	if math.Abs(curved.Curve-180) > eps {
		t.Errorf("curve = %v, want 180", curved.Curve)
	}
	if !near(curved.Mid, geom.Point{X: 1, Y: -1}) {
		t.Errorf("mid = %v, want (1,-1)", curved.Mid)
	}
	if cmds[1].(script.Wire).Curve != 0 {
		t.Error("second segment should be straight")
	}
}

func TestSplineBecomesWireChain(t *testing.T) {
	opts := DefaultOptions()
	opts.SplineScalar = 5
	opts.Scale = 10
	opts.Offset = geom.Point{X: 1, Y: 1}
	c := mustNew(t, opts)

	s := clampedCubic(on("0"))
	cmds, err := c.Entity(s)
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}

	points := len(s.ControlPoints) * opts.SplineScalar
	if len(cmds) != points-1 {
		t.Fatalf("got %d wires, want %d", len(cmds), points-1)
	}

	first := cmds[0].(script.Wire).From
	last := cmds[len(cmds)-1].(script.Wire).To
	if !near(first, geom.Point{X: 1, Y: 1}) || !near(last, geom.Point{X: 41, Y: 1}) {
		t.Errorf("spline runs %v -> %v, want (1,1) -> (41,1)", first, last)
	}
}

func TestPeriodicSplineUnsupported(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	s := clampedCubic(on("0"))
	s.Periodic = true

	_, err := c.Entity(s)
	if !IsKind(err, KindUnsupportedEntity) {
		t.Fatalf("err = %v, want unsupported entity", err)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Entity != "spline" || ce.Layer != "0" {
		t.Errorf("error lacks entity context: %+v", ce)
	}
}

func TestDegenerateEntities(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	badKnots := clampedCubic(on("0"))
	badKnots.Knots = badKnots.Knots[:5]

	tests := []struct {
		name string
		e    entity.Entity
	}{
		{"zero radius circle", entity.Circle{Radius: 0}},
		{"negative radius arc", entity.Arc{Radius: -1, EndAngle: 90}},
		{"nan arc angle", entity.Arc{Radius: 1, EndAngle: math.NaN()}},
		{"single vertex polyline", entity.Polyline{Vertices: []entity.Vertex{{}}}},
		{"empty text", entity.Text{Height: 1}},
		{"negative text height", entity.Text{Content: "x", Height: -1}},
		{"malformed knots", badKnots},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := c.Entity(tt.e)
			if cmds != nil {
				t.Errorf("expected no commands, got %d", len(cmds))
			}
			if !IsKind(err, KindDegenerateGeometry) {
				t.Errorf("err = %v, want degenerate geometry", err)
			}
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Errorf("errors.Is(err, ErrDegenerateGeometry) = false for %v", err)
			}
		})
	}

	_, err := c.Entity(badKnots)
	if !errors.Is(err, spline.ErrKnotCount) {
		t.Errorf("spline error not preserved: %v", err)
	}
}

func TestEmissionError(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	_, err := c.Entity(entity.Line{End: geom.Point{X: math.Inf(1)}})
	if !IsKind(err, KindEmission) {
		t.Fatalf("err = %v, want emission error", err)
	}
	if !errors.Is(err, script.ErrNonFinite) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestMalformedSplineDoesNotStopRun(t *testing.T) {
	var logs bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	c := mustNew(t, opts)

	bad := clampedCubic(entity.Header{Layer: "Top", SourceLine: 40, Handle: "1F"})
	bad.Knots = append(bad.Knots, 2)

	res := c.Run([]entity.Entity{
		bad,
		entity.Line{Header: on("Top"), End: geom.Point{X: 1}},
	})

	if res.Document.Len() != 1 {
		t.Fatalf("got %d commands, want 1", res.Document.Len())
	}
	if _, ok := res.Document.Commands()[0].(script.Wire); !ok {
		t.Errorf("remaining command is %T", res.Document.Commands()[0])
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diagnostics))
	}

	d := res.Diagnostics[0]
	if d.Index != 0 || d.Err.Kind != KindDegenerateGeometry || d.Err.Line != 40 || d.Err.Handle != "1F" {
		t.Errorf("diagnostic = %+v", d.Err)
	}
	if !strings.Contains(d.String(), "spline") || !strings.Contains(d.String(), "line 40") {
		t.Errorf("diagnostic text lacks context: %s", d)
	}
	if !strings.Contains(logs.String(), "entity skipped") {
		t.Errorf("diagnostic not logged:\n%s", logs.String())
	}
	if res.Stats.Skipped != 1 || res.Stats.Converted[entity.KindLine] != 1 || res.Stats.Commands != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestLayerFilterAndMap(t *testing.T) {
	opts := DefaultOptions()
	opts.Layers = layer.Only("Top")
	opts.LayerMap = map[string]string{"Top": "Dimension"}
	c := mustNew(t, opts)

	res := c.Run([]entity.Entity{
		entity.Line{Header: on("Top"), End: geom.Point{X: 1}},
		entity.Line{Header: on("Bottom"), End: geom.Point{X: 2}},
		entity.Unsupported{Header: on("Bottom"), Type: "HATCH"},
	})

	if res.Document.Len() != 1 {
		t.Fatalf("got %d commands, want 1", res.Document.Len())
	}
	if target := res.Document.Commands()[0].Target(); target != "Dimension" {
		t.Errorf("target layer = %q, want Dimension", target)
	}
	if res.Stats.Filtered != 2 || len(res.Diagnostics) != 0 {
		t.Errorf("filtered = %d, diagnostics = %d", res.Stats.Filtered, len(res.Diagnostics))
	}
}

func TestUnsupportedEntity(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	res := c.Run([]entity.Entity{entity.Unsupported{Header: on("0"), Type: "HATCH"}})
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diagnostics))
	}
	err := res.Diagnostics[0].Err
	if err.Kind != KindUnsupportedEntity || err.Entity != "HATCH" {
		t.Errorf("diagnostic = %+v", err)
	}
	if res.CountByKind()[KindUnsupportedEntity] != 1 {
		t.Errorf("CountByKind = %v", res.CountByKind())
	}
}

func TestMalformedEntityDoesNotStopRun(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	bad := entity.Malformed{
		Header: entity.Header{Layer: "Curves", Handle: "3F", SourceLine: 41},
		Type:   "SPLINE",
		Err:    errors.New("3 x coordinates but 2 y coordinates"),
	}
	res := c.Run([]entity.Entity{bad, entity.Line{Header: on("0"), End: geom.Point{X: 1}}})

	if res.Document.Len() != 1 || res.Stats.Skipped != 1 {
		t.Fatalf("commands = %d, skipped = %d", res.Document.Len(), res.Stats.Skipped)
	}
	err := res.Diagnostics[0].Err
	if !errors.Is(err, ErrMalformedEntity) {
		t.Errorf("diagnostic kind = %s", err.Kind)
	}
	want := `convert.entity: malformed_entity (SPLINE on layer "Curves", line 41, handle 3F): 3 x coordinates but 2 y coordinates`
	if err.Error() != want {
		t.Errorf("Error() = %q\nwant      %q", err.Error(), want)
	}
	if res.CountByKind()[KindMalformedEntity] != 1 {
		t.Errorf("CountByKind = %v", res.CountByKind())
	}
}

func TestErrorWithoutLocation(t *testing.T) {
	err := entityError(KindUnsupportedEntity, entity.Unsupported{Header: on("0"), Type: "HATCH"}, errors.New("no converter"))
	if got := err.Error(); got != `convert.entity: unsupported_entity (HATCH on layer "0"): no converter` {
		t.Errorf("Error() = %q", got)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Options)
		ok     bool
	}{
		{"defaults", func(o *Options) {}, true},
		{"zero scale", func(o *Options) { o.Scale = 0 }, false},
		{"negative scale", func(o *Options) { o.Scale = -2 }, false},
		{"nan scale", func(o *Options) { o.Scale = math.NaN() }, false},
		{"infinite offset", func(o *Options) { o.Offset = geom.Point{X: math.Inf(1)} }, false},
		{"zero scalar", func(o *Options) { o.SplineScalar = 0 }, false},
		{"negative workers", func(o *Options) { o.Workers = -1 }, false},
		{"empty layer map target", func(o *Options) { o.LayerMap = map[string]string{"a": ""} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			_, err := New(o)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if !IsKind(err, KindConfiguration) || !errors.Is(err, ErrConfiguration) {
					t.Errorf("err = %v, want configuration error", err)
				}
			}
		})
	}
}

func sampleEntities() []entity.Entity {
	var entities []entity.Entity
	for i := 0; i < 40; i++ {
		x := float64(i)
		switch i % 5 {
		case 0:
			entities = append(entities, entity.Line{Header: on("A"), Start: geom.Point{X: x}, End: geom.Point{X: x, Y: 1}})
		case 1:
			entities = append(entities, entity.Circle{Header: on("B"), Center: geom.Point{X: x}, Radius: 1})
		case 2:
			entities = append(entities, clampedCubic(on("A")))
		case 3:
			entities = append(entities, entity.Text{Header: on("B"), Insert: geom.Point{X: x}, Content: "T", Height: 1})
		case 4:
			entities = append(entities, entity.Circle{Header: on("B"), Radius: 0})
		}
	}
	return entities
}

func TestParallelMatchesSequential(t *testing.T) {
	opts := DefaultOptions()
	opts.SplineScalar = 3
	seq := mustNew(t, opts).Run(sampleEntities())

	opts.Workers = 4
	par := mustNew(t, opts).Run(sampleEntities())

	f := script.DefaultFormat()
	a, err := seq.Document.Render(script.Eagle{}, f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := par.Document.Render(script.Eagle{}, f)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if a != b {
		t.Error("parallel output differs from sequential output")
	}
	if len(seq.Diagnostics) != len(par.Diagnostics) {
		t.Fatalf("diagnostics: %d vs %d", len(seq.Diagnostics), len(par.Diagnostics))
	}
	for i := range seq.Diagnostics {
		if seq.Diagnostics[i].Index != par.Diagnostics[i].Index {
			t.Errorf("diagnostic %d index %d vs %d", i, seq.Diagnostics[i].Index, par.Diagnostics[i].Index)
		}
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := mustNew(t, DefaultOptions()).RunContext(ctx, sampleEntities())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if res.Document.Len() != 0 {
		t.Errorf("cancelled run emitted %d commands", res.Document.Len())
	}
}
