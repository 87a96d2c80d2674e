package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/convert"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

func result() *convert.Result {
	return &convert.Result{
		Document: script.NewDocument(),
		Stats: convert.Stats{
			Total:     6,
			Converted: map[entity.Kind]int{entity.KindLine: 3, entity.KindArc: 1},
			Filtered:  1,
			Skipped:   1,
			Commands:  4,
		},
		Diagnostics: []convert.Diagnostic{{
			Index: 5,
			Err: &convert.Error{
				Op:     "convert.entity",
				Kind:   convert.KindUnsupportedEntity,
				Entity: "HATCH",
				Layer:  "Fill",
				Err:    errors.New("no converter for HATCH entities"),
			},
		}},
	}
}

func TestSummary(t *testing.T) {
	out := Summary(PlainTheme(), result(), "board.scr")

	for _, want := range []string{
		"Script written to board.scr",
		"lines",
		"3",
		"commands",
		"filtered",
		"skipped",
		"unsupported_entity 1",
		"HATCH",
		"no converter for HATCH entities",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryConvertedTotal(t *testing.T) {
	out := Summary(PlainTheme(), result(), "board.scr")
	for _, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) == 2 && f[0] == "converted" {
			if f[1] != "4" {
				t.Errorf("converted = %s, want 4", f[1])
			}
			return
		}
	}
	t.Errorf("summary has no converted line:\n%s", out)
}

func TestSummaryStdout(t *testing.T) {
	res := result()
	res.Diagnostics = nil
	res.Stats.Skipped = 0
	res.Stats.Filtered = 0

	out := Summary(DefaultTheme(), res, "-")
	if !strings.Contains(out, "Script written to stdout") {
		t.Errorf("summary:\n%s", out)
	}
	if strings.Contains(out, "skipped") || strings.Contains(out, "filtered") {
		t.Errorf("zero counters should be omitted:\n%s", out)
	}
}

func TestDiagnosticsTruncated(t *testing.T) {
	diags := make([]convert.Diagnostic, MaxDiagnostics+5)
	for i := range diags {
		diags[i] = result().Diagnostics[0]
	}

	out := Diagnostics(PlainTheme(), diags)
	if got := strings.Count(out, "HATCH entities"); got != MaxDiagnostics {
		t.Errorf("listed %d diagnostics, want %d", got, MaxDiagnostics)
	}
	if !strings.Contains(out, "... and 5 more") {
		t.Errorf("missing truncation line:\n%s", out)
	}
}

func TestLayers(t *testing.T) {
	out := Layers(PlainTheme(), map[string]map[entity.Kind]int{
		"Outline": {entity.KindLine: 4, entity.KindArc: 2},
		"Empty":   {},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "Empty") || !strings.HasPrefix(lines[2], "Outline") {
		t.Errorf("layers not sorted:\n%s", out)
	}
	if !strings.Contains(lines[0], "unsupported") || !strings.Contains(lines[0], "malformed") || !strings.Contains(lines[0], "polyline") {
		t.Errorf("header = %q", lines[0])
	}
	fields := strings.Fields(lines[2])
	// layer, arc, circle, line, ...
	if fields[1] != "2" || fields[3] != "4" {
		t.Errorf("row = %q", lines[2])
	}
}
