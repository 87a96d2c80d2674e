// Package layer decides which source layers take part in a conversion.
package layer

import (
	"fmt"
	"sort"
)

// Selection is either "all layers" or an explicit set of layer names.
// Names are case-sensitive opaque strings; the zero value selects all layers.
type Selection struct {
	names map[string]struct{}
}

// All returns a selection that includes every layer
func All() Selection {
	return Selection{}
}

// Only returns a selection that includes just the named layers.
// Duplicate names are folded; use Parse to reject them.
func Only(names ...string) Selection {
	s := Selection{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.names[name] = struct{}{}
	}
	return s
}

// Parse builds a selection from a user supplied list. An empty list selects
// all layers, and a name may appear only once.
func Parse(names []string) (Selection, error) {
	if len(names) == 0 {
		return All(), nil
	}

	s := Selection{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if _, dup := s.names[name]; dup {
			return Selection{}, fmt.Errorf("duplicate layer %q in list, a layer name may only appear once", name)
		}
		s.names[name] = struct{}{}
	}
	return s, nil
}

// IsAll reports whether the selection includes every layer
func (s Selection) IsAll() bool {
	return s.names == nil
}

// Include reports whether an entity on the named layer should be processed
func (s Selection) Include(name string) bool {
	if s.IsAll() {
		return true
	}
	_, ok := s.names[name]
	return ok
}

// Names returns the selected layer names sorted, or nil for "all"
func (s Selection) Names() []string {
	if s.IsAll() {
		return nil
	}
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s Selection) String() string {
	if s.IsAll() {
		return "all layers"
	}
	return fmt.Sprintf("%v", s.Names())
}
