package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is a config file pointing at a temp blob root and sqlite ledger.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T, layout string) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := "blob:\n" +
		"  driver: fs\n" +
		"  fs_root: " + filepath.Join(dir, "blobs") + "\n" +
		"ledger:\n" +
		"  driver: sqlite\n" +
		"  sqlite_path: " + filepath.Join(dir, "ledger.db") + "\n" +
		"archive:\n" +
		"  layout: " + layout + "\n" +
		"  prefix: docs\n" +
		"log:\n" +
		"  level: error\n"
	path := filepath.Join(dir, "structkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return testEnv{dir: dir, config: path}
}

func (e testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e testEnv) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, "structkit", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.True(t, cmd.SilenceUsage)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"publish", "tree", "history", "roles"})
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("metrics"))
}

func TestPublishTreeHistory(t *testing.T) {
	env := newTestEnv(t, "plain")
	notes := env.file(t, "notes.txt", "hello notes")
	data := env.file(t, "data.json", `{"a":1}`)

	out, _, err := env.run("publish", notes)
	require.NoError(t, err)
	assert.Equal(t, "docs/notes.txt\t1\tnotes.txt, text/plain; charset=utf-8, plain\n", out)

	out, _, err = env.run("publish", "--name", "reports/data.json", "--content-type", "Application/JSON", data)
	require.NoError(t, err)
	assert.Equal(t, "docs/reports/data.json\t2\treports/data.json, application/json, plain\n", out)

	out, _, err = env.run("tree")
	require.NoError(t, err)
	assert.Equal(t, "docs/\n  notes.txt (11 bytes)\n  reports/\n    data.json (7 bytes)\ntotal 18 bytes\n", out)

	out, _, err = env.run("tree", "docs/reports")
	require.NoError(t, err)
	assert.Equal(t, "docs/reports/\n  data.json (7 bytes)\ntotal 7 bytes\n", out)

	out, _, err = env.run("history", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "docs/reports/data.json")
	assert.NotContains(t, out, "notes.txt")
}

func TestPublishDatedLayout(t *testing.T) {
	env := newTestEnv(t, "dated")
	notes := env.file(t, "notes.txt", "dated")

	out, _, err := env.run("publish", notes)
	require.NoError(t, err)
	key, _, _ := strings.Cut(out, "\t")
	parts := strings.Split(key, "/")
	require.Len(t, parts, 5, key)
	assert.Equal(t, "docs", parts[0])
	assert.Equal(t, "notes.txt", parts[4])
	assert.Contains(t, out, ", dated\n")
}

func TestPublishDuplicateFailsAtArchiveStage(t *testing.T) {
	env := newTestEnv(t, "plain")
	notes := env.file(t, "notes.txt", "once")

	_, _, err := env.run("publish", notes)
	require.NoError(t, err)
	_, _, err = env.run("publish", notes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage 2 (archive)")

	out, _, err := env.run("history")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "docs/notes.txt"))
}

func TestPublishErrors(t *testing.T) {
	env := newTestEnv(t, "plain")
	a := env.file(t, "a.txt", "a")
	b := env.file(t, "b.txt", "b")

	_, _, err := env.run("publish", "--name", "x.txt", a, b)
	assert.ErrorContains(t, err, "--name needs exactly one file")

	_, _, err = env.run("publish", filepath.Join(env.dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = env.run("publish")
	assert.Error(t, err)
}

func TestMetricsFlag(t *testing.T) {
	env := newTestEnv(t, "plain")
	notes := env.file(t, "notes.txt", "measured")

	_, errOut, err := env.run("--metrics", "publish", notes)
	require.NoError(t, err)
	assert.Contains(t, errOut, `structkit_operations_total{operation="publish"`)
	assert.Contains(t, errOut, `structkit_operations_total{operation="cli.publish"`)
	assert.Contains(t, errOut, `structkit_blob_operations_total{driver="fs",op="put"`)
	assert.Contains(t, errOut, `structkit_proxy_constructions_total{proxy="ledger"`)
	assert.Contains(t, errOut, `structkit_flyweight_lookups_total{factory="formats",outcome="miss"}`)
}

func TestHistoryDoesNotNeedExistingLedger(t *testing.T) {
	env := newTestEnv(t, "plain")
	out, _, err := env.run("history")
	require.NoError(t, err)
	assert.Equal(t, "ID  KEY  SIZE  RECORDED  DESCRIPTION\n", out)
}

func TestTreeSkipsLedger(t *testing.T) {
	env := newTestEnv(t, "plain")
	_, _, err := env.run("tree")
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(env.dir, "ledger.db"))
	assert.ErrorIs(t, statErr, os.ErrNotExist, "tree must not open the ledger")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blob:\n  driver: tape\n"), 0o644))

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--config", path, "tree"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, `unknown blob driver "tape"`)
}

func TestRolesCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with the go tool")
	}
	var out bytes.Buffer
	cmd := newRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"roles", "--dir", "../..", "./internal/archive"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "bridge.Implementor")
	assert.Contains(t, out.String(), "  archive.StoreImplementor\n")
}
