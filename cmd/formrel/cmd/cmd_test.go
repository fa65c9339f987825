package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solatis/formrel/internal/formdef"
)

var (
	bookingPath = filepath.Join("..", "..", "..", "internal", "formdef", "testdata", "booking.yaml")
	valuesPath  = filepath.Join("..", "..", "..", "internal", "formdef", "testdata", "values.json")
	loopPath    = filepath.Join("..", "..", "..", "internal", "formdef", "testdata", "self_reference.json")
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEvaluateCommand(t *testing.T) {
	out, err := run(t, "evaluate", bookingPath, "--values", valuesPath, "-o", "json", "--log-level", "error")
	require.NoError(t, err)

	var report formdef.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, "hotel-booking", report.FormID)
	first, ok := report.Field("firstName")
	require.True(t, ok)
	require.True(t, first.Disabled)

	out, err = run(t, "evaluate", bookingPath, "--values", valuesPath, "-o", "text", "--explain")
	require.NoError(t, err)
	require.Contains(t, out, "form hotel-booking: VALID")
	require.Contains(t, out, "phone VISIBLE")

	_, err = run(t, "evaluate", bookingPath, "--values", "", "-o", "json", "--fail-invalid")
	require.ErrorContains(t, err, "invalid")

	_, err = run(t, "evaluate", bookingPath, "-o", "xml", "--fail-invalid=false")
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", bookingPath)
	require.NoError(t, err)
	require.Contains(t, out, "ok   "+bookingPath+" (hotel-booking, 15 fields)")

	out, err = run(t, "validate", bookingPath, loopPath)
	require.ErrorContains(t, err, "1 of 2 definitions invalid")
	require.Contains(t, out, "FAIL "+loopPath)
}

func TestStoreCommands(t *testing.T) {
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "cli.db")

	_, err := run(t, "forms", "list", "--tenant", "acme", "--db-url", dbURL)
	require.ErrorContains(t, err, "formrel migrate up")

	out, err := run(t, "migrate", "up", "--db-url", dbURL)
	require.NoError(t, err)
	require.Contains(t, out, "1 migration(s) applied")

	out, err = run(t, "migrate", "status", "--db-url", dbURL)
	require.NoError(t, err)
	require.Contains(t, out, "001_initial_schema.sql")
	require.Contains(t, out, "applied")

	_, err = run(t, "forms", "import", "--tenant", "acme", "--db-url", dbURL, bookingPath)
	require.NoError(t, err)

	_, err = run(t, "forms", "import", "--tenant", "acme", "--db-url", dbURL, loopPath)
	require.ErrorContains(t, err, "cannot depend on itself")

	out, err = run(t, "forms", "list", "--tenant", "acme", "--db-url", dbURL)
	require.NoError(t, err)
	require.Contains(t, out, "hotel-booking")
	require.Contains(t, out, "Hotel booking")

	_, err = run(t, "forms", "delete", "--tenant", "acme", "--db-url", dbURL, "hotel-booking")
	require.NoError(t, err)
	_, err = run(t, "forms", "delete", "--tenant", "acme", "--db-url", dbURL, "hotel-booking")
	require.ErrorContains(t, err, "form not found")
}
