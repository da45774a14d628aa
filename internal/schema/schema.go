// Package schema holds the Measurement Protocol schema registry: the declared
// type of every known path and the rules that coerce cell values to it.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/utils"
)

var ErrDuplicatePath = errors.New("duplicate schema path")

// Type is the declared type of a schema path.
type Type string

const (
	TypeString  Type = "string"
	TypeFloat   Type = "float"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Entry declares the type of one path.
type Entry struct {
	Path     string
	Type     Type
	Required bool
}

// Coerce converts a raw cell value to the declared type. The second result
// is false when the value cannot be represented and the field must be
// omitted. Unrecognised declared types reject every value.
func (e Entry) Coerce(val models.Value) (models.Value, bool) {
	switch e.Type {
	case TypeString:
		return wrap(utils.ToString(val))
	case TypeFloat:
		return wrap(utils.ToFloat(val))
	case TypeInteger:
		return wrap(utils.ToInteger(val))
	case TypeBoolean:
		return wrap(utils.ToBoolean(val))
	default:
		return nil, false
	}
}

func wrap[T any](v T, ok bool) (models.Value, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

// Registry is an immutable, ordered list of schema entries with a path lookup.
type Registry struct {
	entries []Entry
	byPath  map[string]Entry
}

// NewRegistry builds a registry. Paths must be unique.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]Entry, len(entries)),
		byPath:  make(map[string]Entry, len(entries)),
	}
	for i, e := range entries {
		if _, dup := r.byPath[e.Path]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, e.Path)
		}
		r.entries[i] = e
		r.byPath[e.Path] = e
	}
	return r, nil
}

// FromRows builds a registry from schema file rows, skipping blank ones.
// Type names are matched case-insensitively.
func FromRows(rows []models.SchemaRow) (*Registry, error) {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if row.Blank() {
			continue
		}
		entries = append(entries, Entry{
			Path:     strings.TrimSpace(row.Path),
			Type:     Type(strings.ToLower(strings.TrimSpace(row.Type))),
			Required: row.Required,
		})
	}
	return NewRegistry(entries)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns the entries in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// EntryForPath returns the schema entry for path.
func (r *Registry) EntryForPath(path string) (Entry, bool) {
	e, ok := r.byPath[path]
	return e, ok
}
