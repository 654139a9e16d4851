// Package shape defines the document layouts a record series can be wrapped
// in, and which of them can be emitted incrementally.
package shape

import (
	"sort"

	"datagen/common"
)

// DefaultID is the shape used when a request does not name one.
const DefaultID = 1

// Shape wraps a complete series into a document.
type Shape interface {
	ID() int
	// JSONPath locates the records inside the wrapped document.
	JSONPath() string
	Description() string
	// Wrap builds the document value. It never mutates series.
	Wrap(series common.Series) any
}

// Streamable is implemented by shapes that can be written as a prefix,
// comma-separated items and a suffix without seeing the whole series.
type Streamable interface {
	Shape
	Prefix() []byte
	// Suffix closes the document given the number of records written.
	Suffix(count int) ([]byte, error)
	// Item converts a record to the value emitted for it.
	Item(r common.Record) any
}

var registry = map[int]Shape{}

func register(s Shape) {
	registry[s.ID()] = s
}

// Lookup returns the shape with the given id.
func Lookup(id int) (Shape, bool) {
	s, ok := registry[id]
	return s, ok
}

// Default returns the default shape.
func Default() Shape {
	return registry[DefaultID]
}

// All returns every shape ordered by id.
func All() []Shape {
	out := make([]Shape, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// AsStreamable reports whether s supports incremental emission.
func AsStreamable(s Shape) (Streamable, bool) {
	st, ok := s.(Streamable)
	return st, ok
}

// IsStreamable reports whether the shape with the given id exists and
// supports incremental emission.
func IsStreamable(id int) bool {
	s, ok := Lookup(id)
	if !ok {
		return false
	}
	_, ok = AsStreamable(s)
	return ok
}

// Info is the public description of a shape.
type Info struct {
	ID          int    `json:"id"`
	JSONPath    string `json:"jsonpath"`
	Description string `json:"description"`
	Streamable  bool   `json:"streamable"`
}

// Describe returns the public description of s.
func Describe(s Shape) Info {
	_, streamable := AsStreamable(s)
	return Info{
		ID:          s.ID(),
		JSONPath:    s.JSONPath(),
		Description: s.Description(),
		Streamable:  streamable,
	}
}
