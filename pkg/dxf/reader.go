// Package dxf reads the entities of ASCII DXF drawings.
//
// Group code/value pairs are read with the dxf-go tagger and split into
// sections. Header variables and the layer table come from the dxf-go section
// parsers; each record of the ENTITIES section is decoded on its own so that
// one bad record never hides the rest of the drawing. Entity types that are
// not modelled are returned as entity.Unsupported, records that cannot be
// decoded as entity.Malformed.
package dxf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/rpaloschi/dxf-go/core"
	"github.com/rpaloschi/dxf-go/sections"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/entity"
)

// ErrBinary is returned for binary DXF files
var ErrBinary = errors.New("binary DXF is not supported, save the drawing as ASCII DXF")

var binarySentinel = []byte("AutoCAD Binary DXF")

var (
	eofTag    = core.NewTag(0, core.NewStringValue("EOF"))
	endSecTag = core.NewTag(0, core.NewStringValue("ENDSEC"))
)

func init() {
	// dxf-go reports every group it does not map. The reader logs what matters itself.
	core.Log.SetOutput(io.Discard)
}

// Drawing is the result of reading a DXF file
type Drawing struct {
	Version  string          // $ACADVER header variable, empty if there is no HEADER section
	Units    int             // $INSUNITS header variable, 0 if absent
	Layers   []string        // Layers declared in the LAYER table, sorted
	Entities []entity.Entity // Entities of the ENTITIES section, in file order
}

// LayerNames returns every layer that is declared or used, sorted
func (d *Drawing) LayerNames() []string {
	seen := make(map[string]bool)
	for _, name := range d.Layers {
		seen[name] = true
	}
	for _, e := range d.Entities {
		seen[e.Attrs().Layer] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LayerStats counts entities per layer and kind
func (d *Drawing) LayerStats() map[string]map[entity.Kind]int {
	stats := make(map[string]map[entity.Kind]int)
	for _, name := range d.Layers {
		stats[name] = make(map[entity.Kind]int)
	}
	for _, e := range d.Entities {
		name := e.Attrs().Layer
		if stats[name] == nil {
			stats[name] = make(map[entity.Kind]int)
		}
		stats[name][e.Kind()]++
	}
	return stats
}

// Reader parses DXF files
type Reader struct {
	log *slog.Logger
}

// NewReader creates a DXF reader that logs skipped and malformed records to
// log. A nil logger discards them.
func NewReader(log *slog.Logger) *Reader {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reader{log: log}
}

// Read parses a DXF stream and assembles its drawing
func (rd *Reader) Read(r io.Reader) (*Drawing, error) {
	return rd.read(r)
}

// ReadFile parses a DXF file from a path
func (rd *Reader) ReadFile(path string) (*Drawing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	d, err := rd.read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (rd *Reader) read(r io.Reader) (*Drawing, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(binarySentinel))
	if bytes.Equal(head, binarySentinel) {
		return nil, ErrBinary
	}

	tags, lines, err := rd.readTags(br)
	if err != nil {
		return nil, err
	}

	d := &Drawing{}
	for _, chunk := range sections.SplitTagChunks(tags, eofTag, endSecTag) {
		if len(chunk) < 2 || chunk[0].Code != 0 || chunk[0].Value.ToString() != "SECTION" {
			continue
		}
		switch name := chunk[1].Value.ToString(); name {
		case "HEADER":
			readHeader(d, chunk)
		case "TABLES":
			d.Layers = rd.readLayers(chunk)
		case "ENTITIES":
			body := chunk[2:]
			if n := len(body); n > 0 && body[n-1].Equals(endSecTag) {
				body = body[:n-1]
			}
			d.Entities = rd.readEntities(core.TagGroups(body, 0), lines)
		default:
			rd.log.Debug("section skipped", "section", name, "line", lines[chunk[0]])
		}
	}
	return d, nil
}

// readTags reads group code/value pairs up to the EOF marker, which is
// appended when the stream ends without one. Every pair spans two lines, so
// the pair at index n starts on line 2n+1.
func (rd *Reader) readTags(r io.Reader) (core.TagSlice, map[*core.Tag]int, error) {
	next := core.Tagger(r)
	tags := make(core.TagSlice, 0, 1024)
	lines := make(map[*core.Tag]int)

	for n := 0; ; n++ {
		line := 2*n + 1
		tag, known, err := nextTag(next)
		if err != nil {
			if errors.Is(err, strconv.ErrSyntax) || errors.Is(err, strconv.ErrRange) {
				return nil, nil, fmt.Errorf("line %d: group code is not an integer: %w", line, err)
			}
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !known {
			rd.log.Debug("group with unknown code skipped", "line", line)
			continue
		}
		if *tag == core.NoneTag {
			break
		}
		tags = append(tags, tag)
		lines[tag] = line
		if tag.Equals(eofTag) {
			return tags, lines, nil
		}
	}
	return append(tags, eofTag), lines, nil
}

// nextTag calls the tagger, which panics on group codes it has no value type
// for. Such a pair is already consumed and is reported as unknown.
func nextTag(next core.NextTagFunction) (tag *core.Tag, known bool, err error) {
	defer func() {
		if recover() != nil {
			tag, known, err = nil, false, nil
		}
	}()
	tag, err = next()
	return tag, true, err
}

func readHeader(d *Drawing, chunk core.TagSlice) {
	h := sections.NewHeaderSection(chunk)
	if v := h.Get("$ACADVER"); len(v) > 0 {
		d.Version = v[0].Value.ToString()
	}
	if v := h.Get("$INSUNITS"); len(v) > 0 {
		if units, ok := core.AsInt(v[0].Value); ok {
			d.Units = units
		}
	}
}

// readLayers returns the sorted layer names of the LAYER table. When the
// tables cannot be parsed the LAYER entries are collected by name alone.
func (rd *Reader) readLayers(chunk core.TagSlice) []string {
	var names []string
	tables, err := parseTables(chunk)
	if err == nil && tables.Layers != nil {
		for name := range tables.Layers {
			names = append(names, name)
		}
	} else {
		if err != nil {
			rd.log.Warn("tables section could not be parsed, reading layer names only", "error", err)
		}
		for _, group := range core.TagGroups(chunk, 0) {
			if group[0].Value.ToString() != "LAYER" {
				continue
			}
			if name := group.AllWithCode(2); len(name) > 0 {
				names = append(names, name[0].Value.ToString())
			}
		}
	}
	sort.Strings(names)
	return names
}

func parseTables(chunk core.TagSlice) (tables *sections.TablesSection, err error) {
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("unterminated table: %v", r)
		}
	}()
	return sections.NewTablesSection(chunk)
}

// Read parses a DXF stream with a default reader
func Read(r io.Reader) (*Drawing, error) {
	return NewReader(nil).Read(r)
}

// ReadFile parses a DXF file with a default reader
func ReadFile(path string) (*Drawing, error) {
	return NewReader(nil).ReadFile(path)
}
