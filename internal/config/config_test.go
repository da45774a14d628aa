package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/mapping"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MP_MEASUREMENT_ID", "G-TEST")
	t.Setenv("MP_API_SECRET", "secret")
	t.Setenv("MP_EVENT_NAME", "purchase")
	t.Setenv("MONGO_DATABASE", "")
	t.Setenv("MONGO_STAGING_COLLECTION", "batches")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "G-TEST", cfg.MeasurementID)
	assert.Equal(t, "secret", cfg.APISecret)
	assert.Equal(t, "purchase", cfg.EventName)
	assert.Equal(t, "ga_mp_uploader", cfg.MongoDatabase)
	assert.Equal(t, "batches", cfg.StagingCollection)
}

func TestLoadConfigRequiresCredentials(t *testing.T) {
	t.Setenv("MP_MEASUREMENT_ID", "")
	t.Setenv("MP_API_SECRET", "secret")
	_, err := LoadConfig()
	assert.EqualError(t, err, "MP_MEASUREMENT_ID environment variable not set")

	t.Setenv("MP_MEASUREMENT_ID", "G-TEST")
	t.Setenv("MP_API_SECRET", "")
	_, err = LoadConfig()
	assert.EqualError(t, err, "MP_API_SECRET environment variable not set")
}

func TestLoadMappingJSON(t *testing.T) {
	path := writeFile(t, "mapping.json", `[
		{"sourceColumn": "txn", "targetPath": "events.params.transaction_id"},
		{"sourceColumn": "", "targetPath": ""},
		{"sourceColumn": "name", "targetPath": "events.params.items.item_name"}
	]`)

	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	entry, ok := m.EntryForSourceColumn("name")
	require.True(t, ok)
	assert.Equal(t, mapping.ContainerItem, entry.Target.Container)
	assert.Equal(t, 1, m.Items().Len())
}

func TestLoadMappingYAML(t *testing.T) {
	path := writeFile(t, "mapping.yaml", `
- sourceColumn: email
  targetPath: user_data.sha256_email_address
- sourceColumn: tier
  targetPath: user_properties.tier
`)

	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.UserData().Len())
	assert.Equal(t, 1, m.UserProperties().Len())
}

func TestLoadMappingDuplicate(t *testing.T) {
	path := writeFile(t, "mapping.json", `[
		{"sourceColumn": "a", "targetPath": "client_id"},
		{"sourceColumn": "a", "targetPath": "user_id"}
	]`)
	_, err := LoadMapping(path)
	assert.ErrorIs(t, err, mapping.ErrDuplicateSourceColumn)
}

func TestLoadMappingErrors(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadMapping(writeFile(t, "broken.json", "{"))
	assert.Error(t, err)
}

func TestLoadSchema(t *testing.T) {
	path := writeFile(t, "schema.yml", `
- path: events.params.value
  type: Float
  required: true
- path: client_id
  type: string
`)

	r, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	entry, ok := r.EntryForPath("events.params.value")
	require.True(t, ok)
	assert.Equal(t, schema.TypeFloat, entry.Type)
	assert.True(t, entry.Required)
}

func TestLoadBundledConfigs(t *testing.T) {
	m, err := LoadMapping(filepath.Join("..", "..", "configs", "mapping.json"))
	require.NoError(t, err)
	r, err := LoadSchema(filepath.Join("..", "..", "configs", "schema.json"))
	require.NoError(t, err)

	for _, entry := range m.Entries() {
		_, ok := r.EntryForPath(entry.TargetPath)
		assert.True(t, ok, "mapped path %q has no schema entry", entry.TargetPath)
	}
}
