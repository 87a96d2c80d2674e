package dxf

import (
	"fmt"
	"strings"

	"github.com/rpaloschi/dxf-go/core"
	"github.com/rpaloschi/dxf-go/entities"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
)

// DefaultLayer is the layer of entities without a group 8 value
const DefaultLayer = "0"

// readEntities decodes the records of the ENTITIES section. POLYLINE records
// collect the VERTEX records that follow up to SEQEND. ATTRIB records that
// follow an INSERT belong to it and are dropped with their SEQEND, as is a
// SEQEND that closes nothing.
func (rd *Reader) readEntities(groups []core.TagSlice, lines map[*core.Tag]int) []entity.Entity {
	out := make([]entity.Entity, 0, len(groups))
	var poly *polylineBuilder
	attribs := false

	for _, g := range groups {
		typ := g[0].Value.ToString()
		line := lines[g[0]]

		if poly != nil {
			switch typ {
			case "VERTEX":
				poly.add(g, line)
				continue
			case "SEQEND":
				out = append(out, rd.checked(poly.entity()))
				poly = nil
				continue
			default:
				rd.log.Warn("polyline without SEQEND", "line", poly.header.SourceLine)
				out = append(out, rd.checked(poly.entity()))
				poly = nil
			}
		}

		switch typ {
		case "POLYLINE":
			poly = newPolylineBuilder(g, line)
			continue
		case "ATTRIB":
			if attribs {
				continue
			}
		case "SEQEND":
			if !attribs {
				rd.log.Debug("SEQEND without an open sequence skipped", "line", line)
			}
			attribs = false
			continue
		case "INSERT":
			attribs = intGroup(g, 66) == 1
		}
		out = append(out, rd.checked(decodeRecord(typ, g, line)))
	}
	if poly != nil {
		rd.log.Warn("polyline without SEQEND", "line", poly.header.SourceLine)
		out = append(out, rd.checked(poly.entity()))
	}
	return out
}

func (rd *Reader) checked(e entity.Entity) entity.Entity {
	if m, ok := e.(entity.Malformed); ok {
		rd.log.Debug("malformed entity",
			"entity", m.Type,
			"layer", m.Layer,
			"handle", m.Handle,
			"line", m.SourceLine,
			"error", m.Err)
	}
	return e
}

// decode runs a dxf-go entity constructor. The constructors index their
// point lists by group order and panic when a y group precedes its x group.
func decode[T any](build func(core.TagSlice) (T, error), g core.TagSlice) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("groups out of order: %v", r)
		}
	}()
	return build(g)
}

// decodeRecord turns one record into an entity. It never fails: records that
// cannot be decoded become entity.Malformed.
func decodeRecord(typ string, g core.TagSlice, line int) entity.Entity {
	var (
		e   entity.Entity
		err error
	)
	switch typ {
	case "LINE":
		e, err = toLine(g, line)
	case "CIRCLE":
		e, err = toCircle(g, line)
	case "ARC":
		e, err = toArc(g, line)
	case "LWPOLYLINE":
		e, err = toLWPolyline(g, line)
	case "SPLINE":
		e, err = toSpline(g, line)
	case "TEXT":
		e, err = toText(g, line)
	case "MTEXT":
		e, err = toMText(g, line)
	default:
		return entity.Unsupported{Header: rawHeader(g, line), Type: typ}
	}
	if err != nil {
		return entity.Malformed{Header: rawHeader(g, line), Type: typ, Err: err}
	}
	return e
}

func header(b entities.BaseEntity, line int) entity.Header {
	h := entity.Header{Layer: b.LayerName, Handle: b.Handle, SourceLine: line}
	if h.Layer == "" {
		h.Layer = DefaultLayer
	}
	return h
}

// rawHeader reads layer and handle straight from the groups of a record that
// was not decoded
func rawHeader(g core.TagSlice, line int) entity.Header {
	h := entity.Header{Layer: DefaultLayer, SourceLine: line}
	if v := g.AllWithCode(8); len(v) > 0 && v[0].Value.ToString() != "" {
		h.Layer = v[0].Value.ToString()
	}
	if v := g.AllWithCode(5); len(v) > 0 {
		h.Handle = v[0].Value.ToString()
	}
	return h
}

func point(p core.Point) geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

func intGroup(g core.TagSlice, code int) int {
	if v := g.AllWithCode(code); len(v) > 0 {
		n, _ := core.AsInt(v[0].Value)
		return n
	}
	return 0
}

// require checks that every code has a group in the record
func require(g core.TagSlice, codes ...int) error {
	for _, code := range codes {
		if len(g.AllWithCode(code)) == 0 {
			return fmt.Errorf("missing group %d", code)
		}
	}
	return nil
}

// pairs checks that repeated x and y groups come in equal numbers
func pairs(g core.TagSlice, xcode int) error {
	xs, ys := len(g.AllWithCode(xcode)), len(g.AllWithCode(xcode+10))
	if xs != ys {
		return fmt.Errorf("%d x coordinates but %d y coordinates", xs, ys)
	}
	return nil
}

func toLine(g core.TagSlice, at int) (entity.Entity, error) {
	if err := require(g, 10, 20, 11, 21); err != nil {
		return nil, err
	}
	l, err := decode(entities.NewLine, g)
	if err != nil {
		return nil, err
	}
	return entity.Line{Header: header(l.BaseEntity, at), Start: point(l.Start), End: point(l.End)}, nil
}

func toCircle(g core.TagSlice, at int) (entity.Entity, error) {
	if err := require(g, 10, 20, 40); err != nil {
		return nil, err
	}
	c, err := decode(entities.NewCircle, g)
	if err != nil {
		return nil, err
	}
	return entity.Circle{Header: header(c.BaseEntity, at), Center: point(c.Center), Radius: c.Radius}, nil
}

func toArc(g core.TagSlice, at int) (entity.Entity, error) {
	if err := require(g, 10, 20, 40); err != nil {
		return nil, err
	}
	a, err := decode(entities.NewArc, g)
	if err != nil {
		return nil, err
	}
	return entity.Arc{
		Header:     header(a.BaseEntity, at),
		Center:     point(a.Center),
		Radius:     a.Radius,
		StartAngle: a.StartAngle,
		EndAngle:   a.EndAngle,
	}, nil
}

func toLWPolyline(g core.TagSlice, at int) (entity.Entity, error) {
	if err := require(g, 90); err != nil {
		return nil, err
	}
	if err := pairs(g, 10); err != nil {
		return nil, err
	}
	lw, err := decode(entities.NewLWPolyline, g)
	if err != nil {
		return nil, err
	}

	// Group 90 sizes the point list up front and may overstate the count.
	pts := lw.Points
	if n := len(g.AllWithCode(10)); n < len(pts) {
		pts = pts[:n]
	}
	p := entity.Polyline{Header: header(lw.BaseEntity, at), Closed: lw.Closed}
	for _, v := range pts {
		p.Vertices = append(p.Vertices, entity.Vertex{Point: point(v.Point), Bulge: v.Bulge})
	}
	return p, nil
}

func toSpline(g core.TagSlice, at int) (entity.Entity, error) {
	if err := pairs(g, 10); err != nil {
		return nil, err
	}
	s, err := decode(entities.NewSpline, g)
	if err != nil {
		return nil, err
	}

	degree := s.Degree
	if len(g.AllWithCode(71)) == 0 {
		degree = 3
	}
	ctrl := make([]geom.Point, len(s.ControlPoints))
	for i, p := range s.ControlPoints {
		ctrl[i] = point(p)
	}
	return entity.Spline{
		Header:        header(s.BaseEntity, at),
		Degree:        degree,
		ControlPoints: ctrl,
		Knots:         s.KnotValues,
		Weights:       s.Weights,
		Closed:        s.Closed,
		Periodic:      s.Periodic,
		Rational:      s.Rational,
	}, nil
}

func toText(g core.TagSlice, at int) (entity.Entity, error) {
	if err := require(g, 10, 20); err != nil {
		return nil, err
	}
	t, err := decode(entities.NewText, g)
	if err != nil {
		return nil, err
	}
	return entity.Text{
		Header:   header(t.BaseEntity, at),
		Insert:   point(t.FirstAlignmentPoint),
		Content:  t.Value,
		Height:   t.Height,
		Rotation: t.Rotation,
	}, nil
}

func toMText(g core.TagSlice, at int) (entity.Entity, error) {
	if err := require(g, 10, 20); err != nil {
		return nil, err
	}
	m, err := decode(parseMText, g)
	if err != nil {
		return nil, err
	}
	return entity.Text{
		Header:   header(m.BaseEntity, at),
		Insert:   point(m.Insert),
		Content:  m.content(),
		Height:   m.Height,
		Rotation: m.Rotation,
	}, nil
}

// mText is the subset of an MTEXT record the converter uses. Group 3 carries
// leading chunks of long strings, group 1 the final chunk.
type mText struct {
	entities.BaseEntity
	Insert   core.Point
	Height   float64
	Rotation float64
	chunks   []string
	last     string
}

var mtextCodes = strings.NewReplacer(`\P`, " ", `\~`, " ")

func parseMText(tags core.TagSlice) (*mText, error) {
	m := new(mText)
	m.InitBaseEntityParser()
	m.Update(map[int]core.TypeParser{
		1: core.NewStringTypeParserToVar(&m.last),
		3: core.NewStringTypeParser(func(s string) {
			m.chunks = append(m.chunks, s)
		}),
		10: core.NewFloatTypeParserToVar(&m.Insert.X),
		20: core.NewFloatTypeParserToVar(&m.Insert.Y),
		40: core.NewFloatTypeParserToVar(&m.Height),
		50: core.NewFloatTypeParserToVar(&m.Rotation),
	})
	err := m.Parse(tags)
	return m, err
}

// content flattens the text onto one line
func (m *mText) content() string {
	return strings.TrimSpace(mtextCodes.Replace(strings.Join(m.chunks, "") + m.last))
}

// polylineBuilder assembles a POLYLINE record and its VERTEX records
type polylineBuilder struct {
	header   entity.Header
	poly     *entities.Polyline
	vertices []entity.Vertex
	err      error
}

func newPolylineBuilder(g core.TagSlice, at int) *polylineBuilder {
	b := &polylineBuilder{header: rawHeader(g, at)}
	b.poly, b.err = decode(entities.NewPolyline, g)
	if b.err == nil {
		b.header = header(b.poly.BaseEntity, at)
	}
	return b
}

func (b *polylineBuilder) add(g core.TagSlice, at int) {
	if b.err != nil {
		return
	}
	if err := require(g, 10, 20); err != nil {
		b.err = fmt.Errorf("vertex at line %d: %w", at, err)
		return
	}
	v, err := decode(entities.NewVertex, g)
	if err != nil {
		b.err = fmt.Errorf("vertex at line %d: %w", at, err)
		return
	}
	// Spline frame control points are not on the curve.
	if v.SplineFrameCtrlPoint {
		return
	}
	b.vertices = append(b.vertices, entity.Vertex{Point: point(v.Location), Bulge: v.Bulge})
}

func (b *polylineBuilder) entity() entity.Entity {
	switch {
	case b.err != nil:
		return entity.Malformed{Header: b.header, Type: "POLYLINE", Err: b.err}
	case b.poly.Is3dPolygonMesh || b.poly.IsPolyfaceMesh:
		return entity.Unsupported{Header: b.header, Type: "POLYLINE"}
	}
	return entity.Polyline{Header: b.header, Vertices: b.vertices, Closed: b.poly.Closed}
}
