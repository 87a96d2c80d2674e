package script

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Encoder writes commands of one dialect. Encoders may keep state between
// commands (current layer, current text size), so one is used per document.
type Encoder interface {
	Begin() error
	Encode(cmd Command) error
	End() error
}

// Dialect is a target scripting language
type Dialect interface {
	Name() string
	Extension() string
	NewEncoder(w io.Writer, f Format) Encoder
}

var dialects = map[string]Dialect{}

// Register makes a dialect available by name
func Register(d Dialect) {
	dialects[d.Name()] = d
}

// Lookup returns the dialect registered under name
func Lookup(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(Dialects(), ", "))
	}
	return d, nil
}

// Dialects lists the registered dialect names
func Dialects() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document accumulates commands in the order they were added
type Document struct {
	commands []Command
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{}
}

// Add appends commands in order
func (d *Document) Add(cmds ...Command) {
	d.commands = append(d.commands, cmds...)
}

// Commands returns the accumulated commands
func (d *Document) Commands() []Command {
	return d.commands
}

// Len returns the number of commands
func (d *Document) Len() int {
	return len(d.commands)
}

// Encode writes the whole document in the given dialect
func (d *Document) Encode(w io.Writer, dialect Dialect, f Format) error {
	bw := bufio.NewWriter(w)
	enc := dialect.NewEncoder(bw, f)

	if err := enc.Begin(); err != nil {
		return fmt.Errorf("failed to write %s preamble: %w", dialect.Name(), err)
	}
	for i, cmd := range d.commands {
		if err := enc.Encode(cmd); err != nil {
			return fmt.Errorf("failed to write command %d (%s): %w", i+1, Name(cmd), err)
		}
	}
	if err := enc.End(); err != nil {
		return fmt.Errorf("failed to finish %s script: %w", dialect.Name(), err)
	}
	return bw.Flush()
}

// Render returns the document as text in the given dialect
func (d *Document) Render(dialect Dialect, f Format) (string, error) {
	var sb strings.Builder
	if err := d.Encode(&sb, dialect, f); err != nil {
		return "", err
	}
	return sb.String(), nil
}
