package cmd

import (
	"math"
	"testing"

	"gioui.org/io/key"
	"gioui.org/io/pointer"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/preview"
)

func TestPointerFilter(t *testing.T) {
	tag := new(int)
	f := pointerFilter(tag)
	if f.Target != tag {
		t.Errorf("Target = %v, want the input tag", f.Target)
	}
	if f.Kinds&pointer.Press == 0 || f.Kinds&pointer.Scroll == 0 {
		t.Errorf("Kinds = %v, want press and scroll", f.Kinds)
	}
	// An empty range clamps every scroll distance to zero.
	if f.ScrollY.Min >= 0 || f.ScrollY.Max <= 0 {
		t.Errorf("ScrollY = %+v, want a range around zero", f.ScrollY)
	}
}

func TestZoomFactor(t *testing.T) {
	tests := []struct {
		scroll float32
		want   float64
	}{
		{0, 1},
		{1, 1.1},
		{-1, 0.9},
		{-40, 0.5},
		{120, 2},
	}
	for _, tt := range tests {
		if got := zoomFactor(tt.scroll); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("zoomFactor(%v) = %v, want %v", tt.scroll, got, tt.want)
		}
	}
}

func TestHandlePreviewKey(t *testing.T) {
	bbox := geom.NewBoundingBox()
	bbox.Expand(geom.Point{X: 0, Y: 0})
	bbox.Expand(geom.Point{X: 10, Y: 10})

	camera := preview.NewCamera(100, 100)
	for _, k := range []key.Name{"F", "R", key.NameLeftArrow, key.NameSpace} {
		if handlePreviewKey(k, camera, bbox) {
			t.Errorf("key %q should not quit", k)
		}
	}
	for _, k := range []key.Name{key.NameEscape, "Q"} {
		if !handlePreviewKey(k, camera, bbox) {
			t.Errorf("key %q should quit", k)
		}
	}
}
