package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/beauty-box/internal/core"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportThenInspect(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "box.db")
	csvPath := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,price,category\nHat,10,accessories\nSerum,20,skincare\n"), 0o600))

	out, err := runCLI(t, "--db", db, "-s", "sess-1", "import", csvPath)
	require.NoError(t, err)
	var res core.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Added, 1)
	assert.Equal(t, []string{"Hat"}, res.Dropped)

	out, err = runCLI(t, "--db", db, "sessions", "list")
	require.NoError(t, err)
	assert.Equal(t, "sess-1\n", out)

	out, err = runCLI(t, "--db", db, "-s", "sess-1", "orders", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "20.00")

	out, err = runCLI(t, "--db", db, "-s", "sess-1", "subscription", "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "Serum")
	assert.Contains(t, out, "sk-1")

	out, err = runCLI(t, "--db", db, "-s", "sess-1", "state", "keys")
	require.NoError(t, err)
	assert.Contains(t, strings.Fields(out), "subscription")

	out, err = runCLI(t, "--db", db, "-s", "sess-1", "state", "get", "deliveryFrequency")
	require.NoError(t, err)
	assert.Equal(t, "\"monthly\"\n", out)

	_, err = runCLI(t, "--db", db, "-s", "sess-1", "state", "get", "nope")
	assert.ErrorContains(t, err, `no key "nope"`)

	xlsxPath := filepath.Join(dir, "orders.xlsx")
	_, err = runCLI(t, "--db", db, "-s", "sess-1", "orders", "export", "-o", xlsxPath)
	require.NoError(t, err)
	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSessionRequired(t *testing.T) {
	_, err := runCLI(t, "--driver", "memory", "orders", "list")
	assert.EqualError(t, err, "--session required")
}

func TestSessionsListNeedsSQLite(t *testing.T) {
	_, err := runCLI(t, "--driver", "memory", "sessions", "list")
	assert.Error(t, err)
}
