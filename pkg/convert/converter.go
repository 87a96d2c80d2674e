// Package convert turns drawing entities into editor script commands.
//
// Every coordinate passes through a single geom.Transform. Entities that
// cannot be converted are reported as diagnostics and never stop the run.
package convert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/spline"
)

// Converter converts entities with a fixed set of options
type Converter struct {
	opts Options
	tr   geom.Transform
}

// New validates the options and creates a converter
func New(opts Options) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Converter{opts: opts, tr: opts.Transform()}, nil
}

// Options returns the options the converter was created with
func (c *Converter) Options() Options {
	return c.opts
}

// Include reports whether the entity passes the layer filter
func (c *Converter) Include(e entity.Entity) bool {
	return c.opts.Layers.Include(e.Attrs().Layer)
}

// Entity converts one entity regardless of its layer. A returned error is
// always a *Error describing why the entity was skipped.
func (c *Converter) Entity(e entity.Entity) ([]script.Command, error) {
	on := script.On{Layer: c.opts.LayerMap[e.Attrs().Layer]}

	var cmds []script.Command
	var err error
	switch v := e.(type) {
	case entity.Line:
		cmds = c.line(on, v)
	case entity.Circle:
		cmds, err = c.circle(on, v)
	case entity.Arc:
		cmds, err = c.arc(on, v)
	case entity.Polyline:
		cmds, err = c.polyline(on, v)
	case entity.Spline:
		cmds, err = c.spline(on, v)
	case entity.Text:
		cmds, err = c.text(on, v)
	case entity.Unsupported:
		return nil, entityError(KindUnsupportedEntity, e, fmt.Errorf("no converter for %s entities", v.Type))
	case entity.Malformed:
		return nil, entityError(KindMalformedEntity, e, v.Err)
	default:
		return nil, entityError(KindUnsupportedEntity, e, fmt.Errorf("no converter for %T", e))
	}
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			return nil, entityError(ce.Kind, e, ce.Err)
		}
		return nil, entityError(KindDegenerateGeometry, e, err)
	}

	for _, cmd := range cmds {
		if verr := cmd.Validate(); verr != nil {
			return nil, entityError(KindEmission, e, verr)
		}
	}
	return cmds, nil
}

func (c *Converter) line(on script.On, l entity.Line) []script.Command {
	return []script.Command{script.Wire{On: on, From: c.tr.Apply(l.Start), To: c.tr.Apply(l.End)}}
}

func (c *Converter) circle(on script.On, ci entity.Circle) ([]script.Command, error) {
	if err := checkRadius(ci.Radius); err != nil {
		return nil, err
	}
	return []script.Command{script.Circle{On: on, Center: c.tr.Apply(ci.Center), Radius: c.tr.Length(ci.Radius)}}, nil
}

func (c *Converter) arc(on script.On, a entity.Arc) ([]script.Command, error) {
	if err := checkRadius(a.Radius); err != nil {
		return nil, err
	}
	if !geom.IsFinite(a.StartAngle) || !geom.IsFinite(a.EndAngle) {
		return nil, fmt.Errorf("arc angles must be finite, got %g..%g", a.StartAngle, a.EndAngle)
	}

	center := c.tr.Apply(a.Center)
	radius := c.tr.Length(a.Radius)
	sweep := geom.NormalizeSweep(a.StartAngle, a.EndAngle)
	if sweep >= 360 {
		// Start and end coincide: the arc closes on itself.
		return []script.Command{script.Circle{On: on, Center: center, Radius: radius}}, nil
	}

	return []script.Command{script.Arc{
		On:         on,
		Center:     center,
		Radius:     radius,
		StartAngle: a.StartAngle,
		EndAngle:   a.EndAngle,
		From:       geom.Polar(center, radius, a.StartAngle),
		Mid:        geom.Polar(center, radius, a.StartAngle+sweep/2),
		To:         geom.Polar(center, radius, a.StartAngle+sweep),
		Sweep:      sweep,
	}}, nil
}

func (c *Converter) polyline(on script.On, p entity.Polyline) ([]script.Command, error) {
	n := len(p.Vertices)
	if n < 2 {
		return nil, fmt.Errorf("polyline needs at least 2 vertices, got %d", n)
	}

	pts := c.tr.ApplyAll(p.Points())
	segments := n - 1
	if p.Closed && pts[0] != pts[n-1] {
		segments = n
	}

	cmds := make([]script.Command, 0, segments)
	for i := 0; i < segments; i++ {
		w := script.Wire{On: on, From: pts[i], To: pts[(i+1)%n]}
		if bulge := p.Vertices[i].Bulge; bulge != 0 {
			w.Curve = geom.BulgeAngle(bulge)
			w.Mid = geom.BulgeMid(w.From, w.To, bulge)
		}
		cmds = append(cmds, w)
	}
	return cmds, nil
}

func (c *Converter) spline(on script.On, s entity.Spline) ([]script.Command, error) {
	if s.Periodic {
		return nil, &Error{Kind: KindUnsupportedEntity, Err: errors.New("periodic splines are not supported")}
	}

	curve := spline.Curve{
		Control: s.ControlPoints,
		Weights: s.Weights,
		Knots:   s.Knots,
		Degree:  s.Degree,
	}
	pts, err := spline.Flatten(curve, spline.SampleCount(len(s.ControlPoints), c.opts.SplineScalar))
	if err != nil {
		return nil, err
	}

	pts = c.tr.ApplyAll(pts)
	cmds := make([]script.Command, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		cmds = append(cmds, script.Wire{On: on, From: pts[i-1], To: pts[i]})
	}
	return cmds, nil
}

func (c *Converter) text(on script.On, t entity.Text) ([]script.Command, error) {
	if t.Content == "" {
		return nil, errors.New("text has no content")
	}
	if t.Height < 0 || !geom.IsFinite(t.Height) {
		return nil, fmt.Errorf("text height must be a finite non-negative number, got %g", t.Height)
	}
	return []script.Command{script.Text{
		On:       on,
		At:       c.tr.Apply(t.Insert),
		Content:  t.Content,
		Size:     c.tr.Length(t.Height),
		Rotation: t.Rotation,
	}}, nil
}

func checkRadius(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return fmt.Errorf("radius must be a finite number greater than zero, got %g", r)
	}
	return nil
}

// outcome is the conversion result for the entity at one source position
type outcome struct {
	filtered bool
	cmds     []script.Command
	err      *Error
}

func (c *Converter) convert(e entity.Entity) outcome {
	if !c.Include(e) {
		return outcome{filtered: true}
	}
	cmds, err := c.Entity(e)
	if err != nil {
		var ce *Error
		errors.As(err, &ce)
		return outcome{err: ce}
	}
	return outcome{cmds: cmds}
}

// Run converts all entities and always returns a best-effort result
func (c *Converter) Run(entities []entity.Entity) *Result {
	res, _ := c.RunContext(context.Background(), entities)
	return res
}

// RunContext converts entities in source order. When the context is cancelled
// the entities converted so far are returned together with the context error.
func (c *Converter) RunContext(ctx context.Context, entities []entity.Entity) (*Result, error) {
	outcomes := make([]outcome, len(entities))
	done := 0

	if c.opts.Workers > 1 && len(entities) > 1 {
		done = c.convertParallel(ctx, entities, outcomes)
	} else {
		for i, e := range entities {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = c.convert(e)
			done = i + 1
		}
	}

	res := c.assemble(entities[:done], outcomes[:done])
	return res, ctx.Err()
}

// convertParallel fans entities out to a bounded worker pool. Outcomes are
// stored by source index so assembly keeps source order. It returns the
// length of the completed prefix.
func (c *Converter) convertParallel(ctx context.Context, entities []entity.Entity, outcomes []outcome) int {
	workers := c.opts.Workers
	if workers > len(entities) {
		workers = len(entities)
	}

	finished := make([]bool, len(entities))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = c.convert(entities[i])
				finished[i] = true
			}
		}()
	}

feed:
	for i := range entities {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	done := 0
	for done < len(finished) && finished[done] {
		done++
	}
	return done
}

func (c *Converter) assemble(entities []entity.Entity, outcomes []outcome) *Result {
	log := c.opts.logger()
	res := newResult()

	for i, oc := range outcomes {
		e := entities[i]
		res.Stats.Total++
		switch {
		case oc.filtered:
			res.Stats.Filtered++
			log.Debug("entity filtered", "entity", entity.TypeName(e), "layer", e.Attrs().Layer)
		case oc.err != nil:
			res.Stats.Skipped++
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Index: i, Err: oc.err})
			log.Warn("entity skipped",
				"kind", string(oc.err.Kind),
				"entity", oc.err.Entity,
				"layer", oc.err.Layer,
				"handle", oc.err.Handle,
				"line", oc.err.Line,
				"error", oc.err.Err)
		default:
			res.Stats.Converted[e.Kind()]++
			res.Stats.Commands += len(oc.cmds)
			res.Document.Add(oc.cmds...)
		}
	}

	log.Info("conversion finished",
		"entities", res.Stats.Total,
		"commands", res.Stats.Commands,
		"filtered", res.Stats.Filtered,
		"skipped", res.Stats.Skipped)
	return res
}
