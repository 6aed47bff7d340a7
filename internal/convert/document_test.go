// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_String(t *testing.T) {
	var d Document
	assert.Equal(t, "", d.String())

	d.AddPage(1, "alpha")
	d.Add("![Image](images/image_001_01.png)\n")
	d.AddPage(2, "")

	assert.Equal(t,
		"### Page 1\n\nalpha\n\n![Image](images/image_001_01.png)\n\n### Page 2\n\n\n",
		d.String())
}

func TestWriteAtomic_CreatesParentsAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "doc.md")

	require.NoError(t, writeAtomic(path, []byte("first version, longer")))
	require.NoError(t, writeAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePermissions), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteAtomic_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := writeAtomic(filepath.Join(blocker, "doc.md"), []byte("x"))
	assert.ErrorIs(t, err, ErrWrite)
}

func TestRemoveStale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")

	assert.NoError(t, removeStale(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, removeStale(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
