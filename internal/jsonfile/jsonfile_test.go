package jsonfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snip/internal/errors"
)

type record struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.json")
	in := []record{{ID: "1", Text: "<b>bold</b> & café"}}

	require.NoError(t, Write(path, in))

	var out []record
	require.NoError(t, Read(path, &out))
	assert.Equal(t, in, out)
}

func TestWrite_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, Write(path, []record{{ID: "1", Text: "<x> café"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "[\n  {\n    \"id\": \"1\",\n    \"text\": \"<x> café\"\n  }\n]"
	assert.Equal(t, want, string(data))
}

func TestWrite_ReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")

	require.NoError(t, Write(path, []record{{ID: "1"}}))
	require.NoError(t, Write(path, []record{{ID: "2"}}))

	var out []record
	require.NoError(t, Read(path, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].ID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "records.json", entries[0].Name())
}

func TestRead_Missing(t *testing.T) {
	var out []record
	err := Read(filepath.Join(t.TempDir(), "absent.json"), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFileNotFound))
	assert.Nil(t, out)
}

func TestRead_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0600))

	var out []record
	err := Read(path, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.ErrFileNotFound))
}

func TestWrite_RefusesSymlinkDestination(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0600))
	link := filepath.Join(dir, "link.json")
	require.NoError(t, os.Symlink(target, link))

	err := Write(link, []record{{ID: "1"}})
	require.Error(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRead_RefusesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no O_NOFOLLOW on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	require.NoError(t, os.WriteFile(target, []byte(`[{"id":"1","text":"x"}]`), 0600))
	link := filepath.Join(dir, "link.json")
	require.NoError(t, os.Symlink(target, link))

	var got []record
	err := Read(link, &got)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "err = %v", err)
	assert.Nil(t, got)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.json")
	assert.False(t, Exists(path))
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0600))
	assert.True(t, Exists(path))
}
