// Package features maps borrower input onto the model's fixed feature schema.
package features

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Schema is the ordered list of feature names the model was trained on.
// It is immutable once built.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema validates names and builds a Schema. Names must be non-empty and unique.
func NewSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, fmt.Errorf("feature schema is empty")
	}

	index := make(map[string]int, len(names))
	ordered := make([]string, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return Schema{}, fmt.Errorf("feature schema: empty name at position %d", i)
		}
		if prev, dup := index[name]; dup {
			return Schema{}, fmt.Errorf("feature schema: %q appears at positions %d and %d", name, prev, i)
		}
		index[name] = i
		ordered[i] = name
	}

	return Schema{names: ordered, index: index}, nil
}

// ParseSchema decodes a JSON array of feature names.
func ParseSchema(data []byte) (Schema, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return Schema{}, fmt.Errorf("decode feature schema: %w", err)
	}
	return NewSchema(names)
}

// Names returns a copy of the ordered feature names.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s Schema) Len() int {
	return len(s.names)
}

// Index returns the position of name, or -1.
func (s Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}
