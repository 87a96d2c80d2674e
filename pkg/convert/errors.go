package convert

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
)

// Sentinel errors for broad classification
var (
	ErrConfiguration      = errors.New("invalid configuration")
	ErrUnsupportedEntity  = errors.New("unsupported entity")
	ErrMalformedEntity    = errors.New("malformed entity")
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	ErrEmission           = errors.New("command cannot be written")
)

// ErrorKind is a coarse-grained categorization for errors
type ErrorKind string

const (
	KindConfiguration      ErrorKind = "configuration"
	KindUnsupportedEntity  ErrorKind = "unsupported_entity"
	KindMalformedEntity    ErrorKind = "malformed_entity"
	KindDegenerateGeometry ErrorKind = "degenerate_geometry"
	KindEmission           ErrorKind = "emission"
)

var kindSentinels = map[ErrorKind]error{
	KindConfiguration:      ErrConfiguration,
	KindUnsupportedEntity:  ErrUnsupportedEntity,
	KindMalformedEntity:    ErrMalformedEntity,
	KindDegenerateGeometry: ErrDegenerateGeometry,
	KindEmission:           ErrEmission,
}

// Error wraps an underlying error with the entity it was raised for
type Error struct {
	Op     string
	Kind   ErrorKind
	Entity string // Entity type, empty for configuration errors
	Layer  string
	Handle string
	Line   int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Entity != "" {
		base += fmt.Sprintf(" (%s on layer %q", e.Entity, e.Layer)
		if loc := (entity.Header{Handle: e.Handle, SourceLine: e.Line}).Location(); loc != "" {
			base += ", " + loc
		}
		base += ")"
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel error for the error's kind
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// IsKind helps callers classify errors
func IsKind(err error, kind ErrorKind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func configError(field string, err error) error {
	return &Error{Op: "convert.options", Kind: KindConfiguration, Err: fmt.Errorf("%s: %w", field, err)}
}

func entityError(kind ErrorKind, e entity.Entity, err error) *Error {
	h := e.Attrs()
	return &Error{
		Op:     "convert.entity",
		Kind:   kind,
		Entity: entity.TypeName(e),
		Layer:  h.Layer,
		Handle: h.Handle,
		Line:   h.SourceLine,
		Err:    err,
	}
}
