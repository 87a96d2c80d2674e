package config

import (
	"fmt"
	"log/slog"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/convert"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/layer"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

// Profile holds every setting of a conversion run
type Profile struct {
	Scale        float64
	Offset       geom.Point
	SplineScalar int
	Layers       []string // Empty selects all layers
	LayerMap     map[string]string
	Dialect      string
	Precision    int
	Header       bool
	Workers      int
}

// Default returns the settings used when neither a profile nor flags say otherwise
func Default() Profile {
	return Profile{
		Scale:        1,
		SplineScalar: convert.DefaultSplineScalar,
		Dialect:      "eagle",
		Precision:    script.DefaultPrecision,
		Header:       true,
	}
}

// MaxPrecision is the largest number of decimals a script may carry
const MaxPrecision = 15

// Validate checks the settings that converter options do not cover
func (p Profile) Validate() error {
	if p.Precision < 0 || p.Precision > MaxPrecision {
		return invalid("", "precision", fmt.Errorf("precision %d must be between 0 and %d", p.Precision, MaxPrecision))
	}
	_, err := p.OutputDialect()
	return err
}

// Options builds the converter options. Errors are configuration errors.
func (p Profile) Options(log *slog.Logger) (convert.Options, error) {
	sel, err := layer.Parse(p.Layers)
	if err != nil {
		return convert.Options{}, invalid("", "layers", err)
	}

	opts := convert.Options{
		Scale:        p.Scale,
		Offset:       p.Offset,
		SplineScalar: p.SplineScalar,
		Layers:       sel,
		LayerMap:     p.LayerMap,
		Workers:      p.Workers,
		Logger:       log,
	}
	if err := opts.Validate(); err != nil {
		return convert.Options{}, err
	}
	return opts, nil
}

// Format returns the number format for the output script
func (p Profile) Format() script.Format {
	return script.Format{Precision: p.Precision, Header: p.Header}
}

// OutputDialect looks up the configured dialect
func (p Profile) OutputDialect() (script.Dialect, error) {
	d, err := script.Lookup(p.Dialect)
	if err != nil {
		return nil, invalid("", "dialect", err)
	}
	return d, nil
}

func invalid(path, field string, err error) error {
	if path != "" {
		err = fmt.Errorf("%s: field %s: %w", path, field, err)
	} else {
		err = fmt.Errorf("field %s: %w", field, err)
	}
	return &convert.Error{Op: "config.profile", Kind: convert.KindConfiguration, Err: err}
}
