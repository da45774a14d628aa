// Package mapping holds the column mapping model: which source column feeds
// which Measurement Protocol path, with lookups in both directions.
package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

var (
	ErrBlankEntry            = errors.New("mapping entry has a blank source column or target path")
	ErrDuplicateSourceColumn = errors.New("duplicate source column")
	ErrDuplicateTargetPath   = errors.New("duplicate target path")
)

// Entry maps one source column to one target path. Index is the entry's
// declaration position and is kept across partitions.
type Entry struct {
	SourceColumn string
	TargetPath   string
	Index        int
	Target       Target
}

// ColumnMapping is an immutable, ordered set of entries.
type ColumnMapping struct {
	entries  []Entry
	bySource map[string]*Entry
	byTarget map[string]*Entry
	parts    [categoryCount][]int
}

// New builds a mapping from entries. SourceColumn and TargetPath must each be
// unique and non-blank. Targets are parsed here, once.
func New(entries []Entry) (*ColumnMapping, error) {
	own := make([]Entry, len(entries))
	seenSource := make(map[string]bool, len(entries))
	seenTarget := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.SourceColumn == "" || e.TargetPath == "" {
			return nil, fmt.Errorf("entry %d: %w", e.Index, ErrBlankEntry)
		}
		if seenSource[e.SourceColumn] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSourceColumn, e.SourceColumn)
		}
		if seenTarget[e.TargetPath] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTargetPath, e.TargetPath)
		}
		seenSource[e.SourceColumn] = true
		seenTarget[e.TargetPath] = true
		e.Target = ParseTarget(e.TargetPath)
		own[i] = e
	}
	return build(own), nil
}

// FromRows builds a mapping from file rows, skipping blank rows and numbering
// the remaining ones in order. Surrounding whitespace is trimmed.
func FromRows(rows []models.MappingRow) (*ColumnMapping, error) {
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		if r.Blank() {
			continue
		}
		entries = append(entries, Entry{
			SourceColumn: strings.TrimSpace(r.SourceColumn),
			TargetPath:   strings.TrimSpace(r.TargetPath),
			Index:        len(entries),
		})
	}
	return New(entries)
}

func build(entries []Entry) *ColumnMapping {
	m := &ColumnMapping{
		entries:  entries,
		bySource: make(map[string]*Entry, len(entries)),
		byTarget: make(map[string]*Entry, len(entries)),
	}
	for i := range m.entries {
		e := &m.entries[i]
		m.bySource[e.SourceColumn] = e
		m.byTarget[e.TargetPath] = e
		for c := Category(0); c < categoryCount; c++ {
			if c.Matches(e.TargetPath) {
				m.parts[c] = append(m.parts[c], i)
			}
		}
	}
	return m
}

// Len returns the number of entries.
func (m *ColumnMapping) Len() int {
	return len(m.entries)
}

// Entries returns the entries in declaration order.
func (m *ColumnMapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// EntryForSourceColumn returns the entry reading from the named column.
func (m *ColumnMapping) EntryForSourceColumn(column string) (Entry, bool) {
	e, ok := m.bySource[column]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// EntryForTargetPath returns the entry writing to path.
func (m *ColumnMapping) EntryForTargetPath(path string) (Entry, bool) {
	e, ok := m.byTarget[path]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Partition returns the entries of one category as a new mapping, keeping
// their original Index values and relative order.
func (m *ColumnMapping) Partition(c Category) *ColumnMapping {
	if c < 0 || c >= categoryCount {
		return build(nil)
	}
	idx := m.parts[c]
	entries := make([]Entry, len(idx))
	for i, j := range idx {
		entries[i] = m.entries[j]
	}
	return build(entries)
}

func (m *ColumnMapping) Events() *ColumnMapping         { return m.Partition(CategoryEvents) }
func (m *ColumnMapping) Items() *ColumnMapping          { return m.Partition(CategoryItems) }
func (m *ColumnMapping) UserProperties() *ColumnMapping { return m.Partition(CategoryUserProperties) }
func (m *ColumnMapping) UserData() *ColumnMapping       { return m.Partition(CategoryUserData) }
func (m *ColumnMapping) UserAddress() *ColumnMapping    { return m.Partition(CategoryUserAddress) }
