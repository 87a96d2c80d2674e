package convert

import (
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

// Diagnostic records an entity that was skipped
type Diagnostic struct {
	Index int    // Position of the entity in the source stream
	Err   *Error // Why it was skipped
}

func (d Diagnostic) String() string {
	return d.Err.Error()
}

// Stats summarizes a conversion run
type Stats struct {
	Total     int                 // Entities seen
	Converted map[entity.Kind]int // Entities converted, by kind
	Filtered  int                 // Entities on unselected layers
	Skipped   int                 // Entities that produced a diagnostic
	Commands  int                 // Commands emitted
}

// ConvertedTotal returns the number of converted entities of all kinds
func (s Stats) ConvertedTotal() int {
	n := 0
	for _, c := range s.Converted {
		n += c
	}
	return n
}

// Result is the output of a conversion run
type Result struct {
	Document    *script.Document
	Diagnostics []Diagnostic
	Stats       Stats
}

func newResult() *Result {
	return &Result{
		Document: script.NewDocument(),
		Stats:    Stats{Converted: make(map[entity.Kind]int)},
	}
}

// CountByKind groups diagnostics by error kind
func (r *Result) CountByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, d := range r.Diagnostics {
		counts[d.Err.Kind]++
	}
	return counts
}
