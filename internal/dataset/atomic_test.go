package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite_CreatesNestedDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "unit.json")
	require.NoError(t, AtomicWrite(path, []byte("content")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestAtomicWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AtomicWrite(filepath.Join(dir, "unit.json"), []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "unit.json", entries[0].Name())
}

func TestAtomicWrite_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unit.json")
	require.NoError(t, AtomicWrite(path, []byte("old")))
	require.NoError(t, AtomicWrite(path, []byte("new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestAtomicWriteJSON_IndentedWithTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	require.NoError(t, AtomicWriteJSON(path, map[string]int{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
}

func TestAtomicWriteJSONLines_OneRecordPerLine(t *testing.T) {
	type rec struct {
		N int `json:"n"`
	}
	path := filepath.Join(t.TempDir(), "v.jsonl")
	require.NoError(t, AtomicWriteJSONLines(path, []rec{{1}, {2}, {3}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"n":2}`, lines[1])
}
