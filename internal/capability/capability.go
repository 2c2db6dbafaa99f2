// Package capability decides which project-system components activate for a
// project.
//
// A project advertises a set of capabilities ("CSharp", "VisualBasic",
// "Managed", ...). Components register with an applicability expression over
// those names and the load checkpoint after which they start. The host asks
// the Registry which components to start each time the project reaches a
// checkpoint.
package capability

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Well-known capability names.
const (
	CSharp      = "CSharp"
	VisualBasic = "VisualBasic"
	FSharp      = "FSharp"
	Managed     = "Managed"

	// CSharpOrVisualBasic is the applicability expression for components
	// shared by both Roslyn languages.
	CSharpOrVisualBasic = CSharp + " | " + VisualBasic
)

// A Caser must not be shared between goroutines.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

func fold(name string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(strings.TrimSpace(name))
}

// Set is an immutable, case-insensitive set of capability names.
type Set struct {
	names map[string]string // folded -> original spelling
}

// NewSet creates a set from names. Empty names are ignored.
func NewSet(names ...string) Set {
	s := Set{names: make(map[string]string, len(names))}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		key := fold(n)
		if _, ok := s.names[key]; !ok {
			s.names[key] = strings.TrimSpace(n)
		}
	}
	return s
}

// Parse builds a set from a semicolon- or comma-separated list.
func Parse(list string) Set {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ';' || r == ','
	})
	return NewSet(fields...)
}

// Contains reports whether name is in the set, ignoring case.
func (s Set) Contains(name string) bool {
	_, ok := s.names[fold(name)]
	return ok
}

// With returns a new set with names added.
func (s Set) With(names ...string) Set {
	all := append(s.Names(), names...)
	return NewSet(all...)
}

// Len returns the number of capabilities.
func (s Set) Len() int {
	return len(s.names)
}

// Names returns the capabilities in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// String returns the names joined with "; ".
func (s Set) String() string {
	return strings.Join(s.Names(), "; ")
}
