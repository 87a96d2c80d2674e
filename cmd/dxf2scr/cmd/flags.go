package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDXF/internal/config"
)

// conversionFlags are shared by every command that converts a drawing
type conversionFlags struct {
	configPath   string
	scale        float64
	offset       []float64
	splineScalar int
	layers       []string
	layerMap     []string
	dialect      string
	precision    int
	noHeader     bool
	workers      int
}

func (f *conversionFlags) register(cmd *cobra.Command) {
	def := config.Default()
	fs := cmd.Flags()

	fs.StringVar(&f.configPath, "config", "", "YAML conversion profile, flags override its values")
	fs.Float64VarP(&f.scale, "scale", "s", def.Scale, "factor by which to scale the output")
	fs.Float64SliceVarP(&f.offset, "offset", "t", nil, "x,y amount by which to offset the output")
	fs.IntVarP(&f.splineScalar, "spline-scalar", "a", def.SplineScalar,
		"spline approximation points per control point")
	fs.StringSliceVarP(&f.layers, "layers", "l", nil, "only convert entities on these layers")
	fs.StringSliceVar(&f.layerMap, "layer-map", nil, "rename layers in the output, as source=target")
	fs.StringVar(&f.dialect, "dialect", def.Dialect, "output dialect (eagle, kicad)")
	fs.IntVar(&f.precision, "precision", def.Precision, "decimal places in the output")
	fs.BoolVar(&f.noHeader, "no-header", false, "omit the script header")
	fs.IntVar(&f.workers, "workers", def.Workers, "convert entities in parallel with this many workers")
}

// profile merges defaults, the optional YAML profile and the flags that
// were set explicitly, in that order.
func (f *conversionFlags) profile(cmd *cobra.Command) (config.Profile, error) {
	p := config.Default()
	if f.configPath != "" {
		var err error
		if p, err = config.LoadProfile(f.configPath, p); err != nil {
			return config.Profile{}, err
		}
	}

	fs := cmd.Flags()
	if fs.Changed("scale") {
		p.Scale = f.scale
	}
	if fs.Changed("offset") {
		off, err := config.ParseOffset(f.offset)
		if err != nil {
			return config.Profile{}, fmt.Errorf("invalid --offset: %w", err)
		}
		p.Offset = off
	}
	if fs.Changed("spline-scalar") {
		p.SplineScalar = f.splineScalar
	}
	if fs.Changed("layers") {
		p.Layers = f.layers
	}
	if fs.Changed("layer-map") {
		m, err := config.ParseLayerMap(f.layerMap)
		if err != nil {
			return config.Profile{}, err
		}
		p.LayerMap = m
	}
	if fs.Changed("dialect") {
		p.Dialect = f.dialect
	}
	if fs.Changed("precision") {
		p.Precision = f.precision
	}
	if fs.Changed("no-header") {
		p.Header = !f.noHeader
	}
	if fs.Changed("workers") {
		p.Workers = f.workers
	}
	return p, p.Validate()
}
