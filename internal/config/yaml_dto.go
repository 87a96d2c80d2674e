package config

// YAMLProfile is the on-disk form of a conversion profile. Pointer fields
// distinguish "not set" from zero values.
type YAMLProfile struct {
	Scale             *float64          `yaml:"scale"`
	Offset            []float64         `yaml:"offset"`
	SplinePointScalar *int              `yaml:"spline_point_scalar"`
	Layers            []string          `yaml:"layers"`
	LayerMap          map[string]string `yaml:"layer_map"`
	Dialect           string            `yaml:"dialect"`
	Precision         *int              `yaml:"precision"`
	Header            *bool             `yaml:"header"`
	Workers           *int              `yaml:"workers"`
}
