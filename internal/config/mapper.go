package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/layer"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

// MapProfile validates the YAML values and applies the ones that are set
func MapProfile(path string, yp YAMLProfile, base Profile) (Profile, error) {
	p := base

	if yp.Scale != nil {
		if math.IsNaN(*yp.Scale) || math.IsInf(*yp.Scale, 0) || *yp.Scale <= 0 {
			return Profile{}, invalid(path, "scale", fmt.Errorf("scale factor %g must be greater than zero", *yp.Scale))
		}
		p.Scale = *yp.Scale
	}

	if yp.Offset != nil {
		off, err := ParseOffset(yp.Offset)
		if err != nil {
			return Profile{}, invalid(path, "offset", err)
		}
		p.Offset = off
	}

	if yp.SplinePointScalar != nil {
		if *yp.SplinePointScalar <= 0 {
			return Profile{}, invalid(path, "spline_point_scalar", fmt.Errorf("spline point scalar %d must be greater than zero", *yp.SplinePointScalar))
		}
		p.SplineScalar = *yp.SplinePointScalar
	}

	if yp.Layers != nil {
		if _, err := layer.Parse(yp.Layers); err != nil {
			return Profile{}, invalid(path, "layers", err)
		}
		p.Layers = yp.Layers
	}

	if yp.LayerMap != nil {
		for src, dst := range yp.LayerMap {
			if strings.TrimSpace(dst) == "" {
				return Profile{}, invalid(path, "layer_map."+src, errors.New("target layer is required"))
			}
		}
		p.LayerMap = yp.LayerMap
	}

	if strings.TrimSpace(yp.Dialect) != "" {
		if _, err := script.Lookup(yp.Dialect); err != nil {
			return Profile{}, invalid(path, "dialect", err)
		}
		p.Dialect = strings.ToLower(strings.TrimSpace(yp.Dialect))
	}

	if yp.Precision != nil {
		if *yp.Precision < 0 || *yp.Precision > MaxPrecision {
			return Profile{}, invalid(path, "precision", fmt.Errorf("precision %d must be between 0 and %d", *yp.Precision, MaxPrecision))
		}
		p.Precision = *yp.Precision
	}

	if yp.Header != nil {
		p.Header = *yp.Header
	}

	if yp.Workers != nil {
		if *yp.Workers < 0 {
			return Profile{}, invalid(path, "workers", fmt.Errorf("worker count %d cannot be negative", *yp.Workers))
		}
		p.Workers = *yp.Workers
	}

	return p, nil
}

// ParseOffset turns a two-element list into an offset
func ParseOffset(values []float64) (geom.Point, error) {
	if len(values) != 2 {
		return geom.Point{}, fmt.Errorf("offset needs exactly two values (x, y), got %d", len(values))
	}
	p := geom.Point{X: values[0], Y: values[1]}
	if !p.IsFinite() {
		return geom.Point{}, fmt.Errorf("offset (%g, %g) must be finite", p.X, p.Y)
	}
	return p, nil
}

// ParseLayerMap parses src=dst pairs from the command line
func ParseLayerMap(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		src, dst, ok := strings.Cut(pair, "=")
		if !ok || src == "" || strings.TrimSpace(dst) == "" {
			return nil, invalid("", "layer-map", fmt.Errorf("expected source=target, got %q", pair))
		}
		if _, dup := m[src]; dup {
			return nil, invalid("", "layer-map", fmt.Errorf("layer %q is mapped twice", src))
		}
		m[src] = dst
	}
	return m, nil
}

func wrapPath(path string, err error) error {
	return fmt.Errorf("%s: %w", path, err)
}
