package convert

import (
	"errors"
	"io"
	"log/slog"
	"math"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/layer"
)

// DefaultSplineScalar is the number of flattened points per spline control point
const DefaultSplineScalar = 50

// Options is the immutable parameter bundle for a conversion run
type Options struct {
	Scale        float64           // Uniform scale, > 0
	Offset       geom.Point        // Applied after scaling
	SplineScalar int               // Points per control point when flattening splines, > 0
	Layers       layer.Selection   // Source layers to convert
	LayerMap     map[string]string // Source layer -> output layer name
	Workers      int               // Entities converted concurrently, <= 1 means sequential
	Logger       *slog.Logger      // Diagnostics sink, nil discards
}

// DefaultOptions returns options with scale 1, no offset and all layers
func DefaultOptions() Options {
	return Options{
		Scale:        1.0,
		SplineScalar: DefaultSplineScalar,
		Layers:       layer.All(),
	}
}

// Validate checks the options before any entity is converted
func (o Options) Validate() error {
	if math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) || o.Scale <= 0 {
		return configError("scale", errors.New("scale factor must be a finite number greater than zero"))
	}
	if !o.Offset.IsFinite() {
		return configError("offset", errors.New("offset must be two finite numbers"))
	}
	if o.SplineScalar <= 0 {
		return configError("spline scalar", errors.New("spline point scalar must be greater than zero"))
	}
	if o.Workers < 0 {
		return configError("workers", errors.New("worker count cannot be negative"))
	}
	for src, dst := range o.LayerMap {
		if dst == "" {
			return configError("layer map", errors.New("layer "+src+" maps to an empty name"))
		}
	}
	return nil
}

// Transform returns the geometry transform described by the options
func (o Options) Transform() geom.Transform {
	return geom.Transform{Scale: o.Scale, Offset: o.Offset}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
