// Package report renders run summaries for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/convert"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
)

// MaxDiagnostics is the number of diagnostics listed before truncating
const MaxDiagnostics = 20

var plurals = map[entity.Kind]string{
	entity.KindArc:      "arcs",
	entity.KindCircle:   "circles",
	entity.KindLine:     "lines",
	entity.KindPolyline: "polylines",
	entity.KindSpline:   "splines",
	entity.KindText:     "text",
}

// Summary describes a finished conversion run
func Summary(th Theme, res *convert.Result, output string) string {
	var b strings.Builder

	where := output
	if where == "" || where == "-" {
		where = "stdout"
	}
	b.WriteString(th.Title.Render("Script written to "+where) + "\n")

	for _, k := range entity.Kinds {
		fmt.Fprintf(&b, "%s %d\n", th.Label.Render(plurals[k]), res.Stats.Converted[k])
	}
	fmt.Fprintf(&b, "%s %d\n", th.Label.Render("converted"), res.Stats.ConvertedTotal())
	fmt.Fprintf(&b, "%s %d\n", th.Label.Render("commands"), res.Stats.Commands)
	if res.Stats.Filtered > 0 {
		fmt.Fprintf(&b, "%s %d\n", th.Label.Render("filtered"), res.Stats.Filtered)
	}
	if res.Stats.Skipped > 0 {
		fmt.Fprintf(&b, "%s %s\n", th.Label.Render("skipped"), th.Warning.Render(fmt.Sprint(res.Stats.Skipped)))
		for _, kc := range byKind(res.CountByKind()) {
			fmt.Fprintf(&b, "  %s %d\n", th.Faint.Render(string(kc.kind)), kc.n)
		}
	}

	body := th.Card.Render(strings.TrimRight(b.String(), "\n"))
	if len(res.Diagnostics) == 0 {
		return body + "\n"
	}
	return body + "\n" + Diagnostics(th, res.Diagnostics)
}

type kindCount struct {
	kind convert.ErrorKind
	n    int
}

// byKind orders diagnostic counts by kind name
func byKind(counts map[convert.ErrorKind]int) []kindCount {
	out := make([]kindCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, kindCount{k, n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].kind < out[j].kind })
	return out
}

// Diagnostics lists skipped entities, truncated to MaxDiagnostics
func Diagnostics(th Theme, diags []convert.Diagnostic) string {
	var b strings.Builder
	for i, d := range diags {
		if i == MaxDiagnostics {
			b.WriteString(th.Faint.Render(fmt.Sprintf("... and %d more", len(diags)-MaxDiagnostics)) + "\n")
			break
		}
		b.WriteString(th.Warning.Render("skipped") + " " + th.Faint.Render(d.String()) + "\n")
	}
	return b.String()
}

// Layers renders a per-layer table of entity counts
func Layers(th Theme, stats map[string]map[entity.Kind]int) string {
	names := make([]string, 0, len(stats))
	width := len("layer")
	for name := range stats {
		names = append(names, name)
		width = max(width, lipgloss.Width(name))
	}
	sort.Strings(names)

	cols := append(append([]entity.Kind{}, entity.Kinds...), entity.KindUnsupported, entity.KindMalformed)

	var b strings.Builder
	header := fmt.Sprintf("%-*s", width, "layer")
	for _, k := range cols {
		header += fmt.Sprintf(" %10s", k)
	}
	b.WriteString(th.Title.Render(header) + "\n")

	for _, name := range names {
		row := fmt.Sprintf("%-*s", width, name)
		for _, k := range cols {
			row += fmt.Sprintf(" %10d", stats[name][k])
		}
		b.WriteString(row + "\n")
	}
	return b.String()
}
