package script

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
)

// EagleLexer tokenizes EAGLE script statements
var EagleLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run from # to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},

	// Single quoted, an embedded quote is doubled
	{Name: "String", Pattern: `'(?:[^']|'')*'`},

	{Name: "Number", Pattern: `[-+]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][-+]?[0-9]+)?`},

	// Verbs, options, layer names and rotations such as R90 or MR180
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.\-]*`},

	{Name: "Punct", Pattern: `[();]`},
})

// EagleScript is a parsed EAGLE script
type EagleScript struct {
	Statements []*EagleStatement `parser:"@@*"`
}

// EagleStatement is one command terminated by a semicolon
// Example: wire (0 0) +90 (10 10);
type EagleStatement struct {
	Pos  lexer.Position
	Verb string      `parser:"@Ident"`
	Args []*EagleArg `parser:"@@* \";\""`
}

// EagleArg is a point, a number, a quoted string or a bare word
type EagleArg struct {
	Point  *EaglePoint `parser:"  @@"`
	Number *float64    `parser:"| @Number"`
	Quoted *string     `parser:"| @String"`
	Word   *string     `parser:"| @Ident"`
}

// EaglePoint is a coordinate pair in parentheses
type EaglePoint struct {
	X float64 `parser:"\"(\" @Number"`
	Y float64 `parser:"@Number \")\""`
}

// Name returns the lower case verb
func (s *EagleStatement) Name() string {
	return strings.ToLower(s.Verb)
}

// Points returns the coordinate arguments in order
func (s *EagleStatement) Points() []geom.Point {
	var pts []geom.Point
	for _, a := range s.Args {
		if a.Point != nil {
			pts = append(pts, geom.Point{X: a.Point.X, Y: a.Point.Y})
		}
	}
	return pts
}

// Text returns the first quoted argument without its quotes
func (s *EagleStatement) Text() (string, bool) {
	for _, a := range s.Args {
		if a.Quoted != nil {
			q := *a.Quoted
			return strings.ReplaceAll(q[1:len(q)-1], "''", "'"), true
		}
	}
	return "", false
}

// Check reports a drawing statement whose arguments EAGLE would reject.
// Statements with other verbs are not checked.
func (s *EagleStatement) Check() error {
	pts := len(s.Points())
	switch s.Name() {
	case "wire":
		if pts < 2 {
			return fmt.Errorf("%s: wire needs at least 2 points, got %d", s.Pos, pts)
		}
	case "circle":
		if pts != 2 {
			return fmt.Errorf("%s: circle needs 2 points, got %d", s.Pos, pts)
		}
	case "text":
		if _, ok := s.Text(); !ok {
			return fmt.Errorf("%s: text without a quoted string", s.Pos)
		}
		if pts != 1 {
			return fmt.Errorf("%s: text needs 1 point, got %d", s.Pos, pts)
		}
	}
	return nil
}

// Check runs Check on every statement and returns the first error
func (f *EagleScript) Check() error {
	for _, s := range f.Statements {
		if err := s.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of statements per lower case verb
func (f *EagleScript) Count() map[string]int {
	counts := make(map[string]int)
	for _, s := range f.Statements {
		counts[s.Name()]++
	}
	return counts
}

// EagleParser reads scripts written by the eagle dialect back
type EagleParser struct {
	parser *participle.Parser[EagleScript]
}

// NewEagleParser creates a new EAGLE script parser
func NewEagleParser() (*EagleParser, error) {
	parser, err := participle.Build[EagleScript](
		participle.Lexer(EagleLexer),
		participle.Elide("Comment", "Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &EagleParser{parser: parser}, nil
}

// Parse parses a script from a reader. The name appears in error positions.
func (p *EagleParser) Parse(name string, r io.Reader) (*EagleScript, error) {
	s, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return s, nil
}

// ParseString parses a script held in a string
func (p *EagleParser) ParseString(input string) (*EagleScript, error) {
	s, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return s, nil
}

// ParseFile parses a script file
func (p *EagleParser) ParseFile(filename string) (*EagleScript, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(filename, file)
}
