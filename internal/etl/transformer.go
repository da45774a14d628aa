package etl

import (
	"fmt"
	"math"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/mapping"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/payload"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/schema"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/source"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

// Transformer turns table rows into Measurement Protocol payloads, one per
// transaction. It holds no per-run state and may be shared.
type Transformer struct {
	columns  *mapping.ColumnMapping
	registry *schema.Registry

	events []mapping.Entry
	items  []mapping.Entry
}

func NewTransformer(m *mapping.ColumnMapping, s *schema.Registry) *Transformer {
	return &Transformer{
		columns:  m,
		registry: s,
		events:   m.Events().Entries(),
		items:    m.Items().Entries(),
	}
}

// payloadCollector groups rows by identity and remembers the order in which
// identities were first seen.
type payloadCollector struct {
	identity func(row int) models.Value
	byID     map[models.Value]*payload.Payload
	ordered  []*payload.Payload
}

// newCollector groups by the transaction id column when one is mapped, and
// gives every row its own group otherwise.
func newCollector(t *source.Table, m *mapping.ColumnMapping) *payloadCollector {
	c := &payloadCollector{
		byID:    make(map[models.Value]*payload.Payload),
		ordered: []*payload.Payload{},
	}
	if entry, ok := m.EntryForTargetPath(mapping.PathTransactionID); ok {
		column := t.ColumnIndex(entry.SourceColumn)
		c.identity = func(row int) models.Value {
			v, _ := t.Cell(column, row)
			return groupKey(v)
		}
		return c
	}
	var counter int64
	c.identity = func(int) models.Value {
		id := counter
		counter++
		return id
	}
	return c
}

// opaqueKey keys cells that are not comparable, such as slices and maps.
type opaqueKey struct {
	repr string
}

// groupKey makes a cell usable as a map key. Integral numbers are keyed as
// int64 so that 7 and 7.0 share a group without losing precision on large
// integer ids.
func groupKey(v models.Value) models.Value {
	switch n := v.(type) {
	case nil, string, bool, int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return groupKey(float64(n))
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n)
		}
		return n
	default:
		return opaqueKey{repr: fmt.Sprintf("%T:%v", v, v)}
	}
}

func (c *payloadCollector) payloadForRow(row int) (*payload.Payload, bool) {
	id := c.identity(row)
	if p, ok := c.byID[id]; ok {
		return p, false
	}
	p := payload.New()
	c.byID[id] = p
	c.ordered = append(c.ordered, p)
	return p, true
}

// Transform builds the payloads for every row of t, in the order their
// groups first appear. Event-level fields come from the first row of a
// group; every row adds one item when item fields are mapped. Unmapped
// schema paths and values that fail coercion are skipped.
func (tr *Transformer) Transform(t *source.Table, eventName string) []*payload.Payload {
	collector := newCollector(t, tr.columns)
	for row := 0; row < t.Len(); row++ {
		p, created := collector.payloadForRow(row)
		if created {
			if eventName != "" {
				p.SetEventName(eventName)
			}
			tr.apply(p, tr.events, t, row)
		}
		if len(tr.items) > 0 {
			p.AddItem()
			tr.apply(p, tr.items, t, row)
		}
	}
	return collector.ordered
}

func (tr *Transformer) apply(p *payload.Payload, entries []mapping.Entry, t *source.Table, row int) {
	for _, entry := range entries {
		schemaEntry, ok := tr.registry.EntryForPath(entry.TargetPath)
		if !ok {
			continue
		}
		raw, ok := t.Value(entry.SourceColumn, row)
		if !ok {
			continue
		}
		value, ok := schemaEntry.Coerce(raw)
		if !ok {
			continue
		}
		p.Set(entry.Target, value)
	}
}
