package config

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/convert"
)

func ptr[T any](v T) *T { return &v }

func TestMapProfileOnlySetFields(t *testing.T) {
	base := Default()
	base.Workers = 8

	p, err := MapProfile("p.yaml", YAMLProfile{Scale: ptr(2.5), Dialect: "KiCad"}, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Scale != 2.5 || p.Dialect != "kicad" {
		t.Errorf("expected scale and dialect to map, got %+v", p)
	}
	if p.Workers != 8 || p.SplineScalar != convert.DefaultSplineScalar || !p.Header {
		t.Errorf("unset fields changed: %+v", p)
	}
}

func TestMapProfileRejects(t *testing.T) {
	tests := []struct {
		name  string
		yp    YAMLProfile
		field string
	}{
		{"zero scale", YAMLProfile{Scale: ptr(0.0)}, "scale"},
		{"nan scale", YAMLProfile{Scale: ptr(math.NaN())}, "scale"},
		{"short offset", YAMLProfile{Offset: []float64{1}}, "offset"},
		{"zero scalar", YAMLProfile{SplinePointScalar: ptr(0)}, "spline_point_scalar"},
		{"duplicate layers", YAMLProfile{Layers: []string{"A", "A"}}, "layers"},
		{"empty map target", YAMLProfile{LayerMap: map[string]string{"A": " "}}, "layer_map.A"},
		{"unknown dialect", YAMLProfile{Dialect: "gerber"}, "dialect"},
		{"precision", YAMLProfile{Precision: ptr(-1)}, "precision"},
		{"workers", YAMLProfile{Workers: ptr(-2)}, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapProfile("p.yaml", tt.yp, Default())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "field "+tt.field) {
				t.Errorf("expected field %s in error, got %v", tt.field, err)
			}
			if !errors.Is(err, convert.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestParseOffset(t *testing.T) {
	p, err := ParseOffset([]float64{-1.5, 2})
	if err != nil || p.X != -1.5 || p.Y != 2 {
		t.Errorf("ParseOffset = %v, %v", p, err)
	}
	if _, err := ParseOffset([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for three values")
	}
	if _, err := ParseOffset([]float64{math.Inf(1), 0}); err == nil {
		t.Error("expected error for infinite offset")
	}
}

func TestParseLayerMap(t *testing.T) {
	m, err := ParseLayerMap([]string{"Outline=Dimension", "Holes=Milling"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["Outline"] != "Dimension" || m["Holes"] != "Milling" {
		t.Errorf("map = %v", m)
	}

	for _, bad := range [][]string{{"Outline"}, {"=Top"}, {"A=B", "A=C"}, {"A= "}} {
		if _, err := ParseLayerMap(bad); !convert.IsKind(err, convert.KindConfiguration) {
			t.Errorf("ParseLayerMap(%q) err = %v", bad, err)
		}
	}

	if m, err := ParseLayerMap(nil); m != nil || err != nil {
		t.Errorf("empty input = %v, %v", m, err)
	}
}

func TestProfileOptionsAndFormat(t *testing.T) {
	p := Default()
	p.Scale = -1
	if _, err := p.Options(nil); !convert.IsKind(err, convert.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}

	p = Default()
	p.Layers = []string{"Top", "Top"}
	if _, err := p.Options(nil); !convert.IsKind(err, convert.KindConfiguration) {
		t.Errorf("expected configuration error for duplicate layers, got %v", err)
	}

	p = Default()
	p.Precision = 2
	if f := p.Format(); f.Precision != 2 || !f.Header {
		t.Errorf("format = %+v", f)
	}

	d, err := p.OutputDialect()
	if err != nil || d.Name() != "eagle" {
		t.Errorf("dialect = %v, %v", d, err)
	}
	p.Dialect = "dxf"
	if _, err := p.OutputDialect(); !convert.IsKind(err, convert.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
