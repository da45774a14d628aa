package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/logger"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestStageRequiresOneInput(t *testing.T) {
	assert.Error(t, execute(t, "stage"))
	assert.Error(t, execute(t, "stage", "--input", "a.csv", "--sql-query", "SELECT 1"))
}

func TestStageDryRunFromCSV(t *testing.T) {
	t.Setenv("MP_MEASUREMENT_ID", "G-TEST")
	t.Setenv("MP_API_SECRET", "secret")
	t.Setenv("MONGO_CONNECTION_STRING", "")

	dir := t.TempDir()
	input := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(input, []byte("client,txn,product,price\nc1,T1,Pen,1.5\nc1,T1,Cup,3\n"), 0o600))

	err := execute(t, "stage",
		"--input", input,
		"--dry-run",
		"--event-name", "purchase",
		"--mapping", filepath.Join("..", "..", "configs", "mapping.json"),
		"--schema", filepath.Join("..", "..", "configs", "schema.json"),
		"--log-file", filepath.Join(dir, "run.log"),
	)
	require.NoError(t, err)

	log, err := os.ReadFile(filepath.Join(dir, "run.log"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "[DRY RUN] Payload 0")
	assert.NotContains(t, string(log), "[DRY RUN] Payload 1")
}

func TestStageWithoutStagingFails(t *testing.T) {
	t.Setenv("MP_MEASUREMENT_ID", "G-TEST")
	t.Setenv("MP_API_SECRET", "secret")
	t.Setenv("MONGO_CONNECTION_STRING", "")

	err := execute(t, "stage", "--input", "missing.csv")
	assert.EqualError(t, err, "MONGO_CONNECTION_STRING environment variable not set")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.INFO, logLevel(false))
	assert.Equal(t, logger.DEBUG, logLevel(true))
}
