package script

import (
	"strconv"
	"strings"
)

// DefaultPrecision is the number of decimals written for every number
const DefaultPrecision = 6

// Format controls how numbers and optional preamble lines are written
type Format struct {
	Precision int  // Decimal places, fixed notation
	Header    bool // Write dialect preamble lines before the first command
}

// DefaultFormat returns the format used when none is configured
func DefaultFormat() Format {
	return Format{Precision: DefaultPrecision, Header: true}
}

// Number renders v in fixed notation with trailing zeros removed, so equal
// values always produce identical text. Negative zero is written as 0.
func (f Format) Number(v float64) string {
	prec := f.Precision
	if prec < 0 {
		prec = DefaultPrecision
	}
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// Signed renders v like Number but always with a leading sign
func (f Format) Signed(v float64) string {
	s := f.Number(v)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}

// Zero reports whether v is written as 0 at this precision
func (f Format) Zero(v float64) bool {
	return f.Number(v) == "0"
}
