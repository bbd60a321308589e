package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command against a dedicated data dir. Metrics are
// disabled through the environment so repeated invocations in one test
// process do not re-register Prometheus collectors.
func runCLI(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DS_METRICS_ENABLED", "false")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--data-dir", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAddSearchGetStats(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "python python fastapi", "add", "--id", "d1", "--title", "Python Doc")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed d1 (3 tokens)")

	out, err = runCLI(t, dir, "", "search", "python")
	require.NoError(t, err)
	assert.Contains(t, out, "d1")
	assert.Contains(t, out, "0.6667")

	out, err = runCLI(t, dir, "", "get", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "d1"`)
	assert.Contains(t, out, `"token_count": 3`)

	out, err = runCLI(t, dir, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "documents:      1")
	assert.Contains(t, out, "unique terms:   2")
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "exclusive content", "add", "--id", "d1")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "", "remove", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "removed d1")

	out, err = runCLI(t, dir, "", "search", "exclusive")
	require.NoError(t, err)
	assert.Contains(t, out, "no results")

	out, err = runCLI(t, dir, "", "remove", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestBackupsAndRestore(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "first version", "add", "--id", "d1")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "second version", "add", "--id", "d1")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "", "backups")
	require.NoError(t, err)
	assert.Contains(t, out, "0: index-")

	out, err = runCLI(t, dir, "", "restore", "0", "--promote")
	require.NoError(t, err)
	assert.Contains(t, out, "restored backup 0")
	assert.Contains(t, out, "promoted to primary snapshot")

	out, err = runCLI(t, dir, "", "search", "first")
	require.NoError(t, err)
	assert.Contains(t, out, "d1")
}

func TestRestoreInvalidIndex(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "", "restore", "notanumber")
	assert.Error(t, err)

	_, err = runCLI(t, dir, "", "restore", "5")
	assert.Error(t, err)
}

func TestAddValidationError(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "", "add", "--id", "d1")
	assert.Error(t, err)
}
