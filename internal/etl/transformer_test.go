package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/mapping"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/payload"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/schema"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/source"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

func newTestTransformer(t *testing.T, rows []models.MappingRow) *Transformer {
	t.Helper()
	m, err := mapping.FromRows(rows)
	require.NoError(t, err)
	s, err := schema.NewRegistry([]schema.Entry{
		{Path: "client_id", Type: schema.TypeString},
		{Path: "events.params.transaction_id", Type: schema.TypeString},
		{Path: "events.params.value", Type: schema.TypeFloat},
		{Path: "events.params.items.item_name", Type: schema.TypeString},
		{Path: "events.params.items.price", Type: schema.TypeFloat},
		{Path: "events.params.items.quantity", Type: schema.TypeInteger},
		{Path: "user_data.sha256_email_address", Type: schema.TypeString},
	})
	require.NoError(t, err)
	return NewTransformer(m, s)
}

func TestTransformGroupsByTransactionID(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "txn", TargetPath: "events.params.transaction_id"},
		{SourceColumn: "name", TargetPath: "events.params.items.item_name"},
		{SourceColumn: "price", TargetPath: "events.params.items.price"},
	})
	table := source.New([]string{"txn", "name", "price"}, [][]models.Value{
		{"T1", "Pen", 1.5},
		{"T1", "Cup", 3.0},
		{"T2", "Mug", 4.0},
	})

	payloads := tr.Transform(table, "")
	require.Len(t, payloads, 2)

	txn, _ := payloads[0].Param("transaction_id")
	assert.Equal(t, "T1", txn)
	assert.Equal(t, []payload.Item{
		{"item_name": "Pen", "price": 1.5},
		{"item_name": "Cup", "price": 3.0},
	}, payloads[0].Items())

	txn, _ = payloads[1].Param("transaction_id")
	assert.Equal(t, "T2", txn)
	assert.Equal(t, []payload.Item{{"item_name": "Mug", "price": 4.0}}, payloads[1].Items())
}

func TestTransformKeepsFirstSeenOrder(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "txn", TargetPath: "events.params.transaction_id"},
		{SourceColumn: "name", TargetPath: "events.params.items.item_name"},
	})
	table := source.New([]string{"txn", "name"}, [][]models.Value{
		{"B", "1"},
		{"A", "2"},
		{"B", "3"},
		{"C", "4"},
		{"A", "5"},
	})

	payloads := tr.Transform(table, "")
	require.Len(t, payloads, 3)

	var order []models.Value
	var counts []int
	for _, p := range payloads {
		id, _ := p.Param("transaction_id")
		order = append(order, id)
		counts = append(counts, len(p.Items()))
	}
	assert.Equal(t, []models.Value{"B", "A", "C"}, order)
	assert.Equal(t, []int{2, 2, 1}, counts)
}

func TestTransformWithoutTransactionIDMakesOnePayloadPerRow(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "client", TargetPath: "client_id"},
		{SourceColumn: "name", TargetPath: "events.params.items.item_name"},
	})
	table := source.New([]string{"client", "name"}, [][]models.Value{
		{"c1", "Pen"},
		{"c1", "Pen"},
		{"c2", "Cup"},
	})

	payloads := tr.Transform(table, "purchase")
	require.Len(t, payloads, 3)
	for _, p := range payloads {
		assert.Len(t, p.Items(), 1)
		name, ok := p.EventField("name")
		require.True(t, ok)
		assert.Equal(t, "purchase", name)
	}
}

func TestTransformWithoutItemMappingsAddsNoItems(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "client", TargetPath: "client_id"},
	})
	table := source.New([]string{"client"}, [][]models.Value{{"c1"}, {"c2"}})

	payloads := tr.Transform(table, "")
	require.Len(t, payloads, 2)
	for _, p := range payloads {
		assert.Empty(t, p.Items())
	}
}

func TestTransformSkipsUnmappableFields(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "client", TargetPath: "client_id"},
		{SourceColumn: "value", TargetPath: "events.params.value"},
		{SourceColumn: "coupon", TargetPath: "events.params.coupon"},
		{SourceColumn: "ghost", TargetPath: "user_id"},
		{SourceColumn: "qty", TargetPath: "events.params.items.quantity"},
	})
	table := source.New([]string{"client", "value", "coupon", "qty"}, [][]models.Value{
		{"", "abc", "SAVE10", 3.7},
	})

	payloads := tr.Transform(table, "")
	require.Len(t, payloads, 1)
	p := payloads[0]

	_, ok := p.Field("client_id")
	assert.False(t, ok, "empty string is omitted")
	_, ok = p.Param("value")
	assert.False(t, ok, "unparseable float is omitted")
	_, ok = p.Param("coupon")
	assert.False(t, ok, "path without schema entry is skipped")
	_, ok = p.Field("user_id")
	assert.False(t, ok, "missing source column is skipped")
	assert.Equal(t, []payload.Item{{"quantity": int64(3)}}, p.Items())
}

func TestTransformAppliesEventFieldsOncePerGroup(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "txn", TargetPath: "events.params.transaction_id"},
		{SourceColumn: "value", TargetPath: "events.params.value"},
		{SourceColumn: "email", TargetPath: "user_data.sha256_email_address"},
	})
	table := source.New([]string{"txn", "value", "email"}, [][]models.Value{
		{"T1", 10.0, "a@example.com"},
		{"T1", 20.0, "b@example.com"},
	})

	payloads := tr.Transform(table, "")
	require.Len(t, payloads, 1)

	v, _ := payloads[0].Param("value")
	assert.Equal(t, 10.0, v)
	assert.Equal(t, []string{schema.HashEmailAddress("a@example.com")}, payloads[0].EmailAddressHashes())
	assert.Empty(t, payloads[0].Items())
}

func TestTransformGroupsNumericTransactionIDs(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "txn", TargetPath: "events.params.transaction_id"},
		{SourceColumn: "name", TargetPath: "events.params.items.item_name"},
	})
	table := source.New([]string{"txn", "name"}, [][]models.Value{
		{7.0, "Pen"},
		{int64(7), "Cup"},
	})

	payloads := tr.Transform(table, "")
	require.Len(t, payloads, 1)
	txn, _ := payloads[0].Param("transaction_id")
	assert.Equal(t, "7", txn)
	assert.Len(t, payloads[0].Items(), 2)
}

func TestTransformEmptyTable(t *testing.T) {
	tr := newTestTransformer(t, nil)
	payloads := tr.Transform(source.New(nil, nil), "purchase")
	assert.NotNil(t, payloads)
	assert.Empty(t, payloads)
}

func TestTransformKeepsLargeIntegerIDsApart(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "txn", TargetPath: "events.params.transaction_id"},
		{SourceColumn: "name", TargetPath: "events.params.items.item_name"},
	})
	table := source.New([]string{"txn", "name"}, [][]models.Value{
		{int64(9007199254740993), "Pen"},
		{int64(9007199254740992), "Cup"},
		{int64(9007199254740993), "Mug"},
	})

	payloads := tr.Transform(table, "")
	require.Len(t, payloads, 2)

	txn, _ := payloads[0].Param("transaction_id")
	assert.Equal(t, "9007199254740993", txn)
	assert.Len(t, payloads[0].Items(), 2)

	txn, _ = payloads[1].Param("transaction_id")
	assert.Equal(t, "9007199254740992", txn)
	assert.Len(t, payloads[1].Items(), 1)
}

func TestTransformToleratesNonScalarIDs(t *testing.T) {
	tr := newTestTransformer(t, []models.MappingRow{
		{SourceColumn: "txn", TargetPath: "events.params.transaction_id"},
		{SourceColumn: "name", TargetPath: "events.params.items.item_name"},
	})
	table := source.New([]string{"txn", "name"}, [][]models.Value{
		{[]any{"a"}, "Pen"},
		{[]any{"a"}, "Cup"},
		{map[string]any{"k": "v"}, "Mug"},
	})

	var payloads []*payload.Payload
	require.NotPanics(t, func() { payloads = tr.Transform(table, "") })
	require.Len(t, payloads, 2)
	assert.Len(t, payloads[0].Items(), 2)
	_, ok := payloads[0].Param("transaction_id")
	assert.False(t, ok, "non-scalar id is not a valid string")
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, groupKey(7.0), groupKey(int64(7)))
	assert.Equal(t, groupKey(int32(7)), groupKey(7))
	assert.NotEqual(t, groupKey(int64(9007199254740993)), groupKey(9007199254740992.0))
	assert.Equal(t, 1.5, groupKey(1.5))
	assert.NotEqual(t, groupKey("7"), groupKey(7.0))
	assert.NotEqual(t, groupKey("[a]"), groupKey([]any{"a"}))
}

func TestNewTransformerCapturesMapping(t *testing.T) {
	m, err := mapping.FromRows([]models.MappingRow{
		{SourceColumn: "txn", TargetPath: "events.params.transaction_id"},
		{SourceColumn: "name", TargetPath: "events.params.items.item_name"},
	})
	require.NoError(t, err)
	s, err := schema.NewRegistry(nil)
	require.NoError(t, err)

	tr := NewTransformer(m, s)
	assert.Same(t, m, tr.columns)
	assert.Same(t, s, tr.registry)
	assert.Equal(t, m.Events().Entries(), tr.events)
	assert.Equal(t, m.Items().Entries(), tr.items)
}
