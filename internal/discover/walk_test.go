// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))
	}
}

func relPaths(t *testing.T, root string) []string {
	t.Helper()
	files, err := Collect(root, nil)
	require.NoError(t, err)
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.ToSlash(f.RelPath)
	}
	sort.Strings(out)
	return out
}

func TestWalk_FindsPDFsCaseInsensitively(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"a.pdf",
		"B.PDF",
		"notes.txt",
		"nested/deep/c.Pdf",
		"nested/d.md",
		"nested/pdf",
	)

	assert.Equal(t, []string{"B.PDF", "a.pdf", "nested/deep/c.Pdf"}, relPaths(t, root))
}

func TestWalk_IsRestartable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "one.pdf")

	first := relPaths(t, root)
	writeTree(t, root, "sub/two.pdf")
	second := relPaths(t, root)

	assert.Equal(t, []string{"one.pdf"}, first)
	assert.Equal(t, []string{"one.pdf", "sub/two.pdf"}, second)
}

func TestWalk_AbsolutePaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "x/y.pdf")

	files, err := Collect(root, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, filepath.IsAbs(files[0].Path))
	assert.Equal(t, "y.pdf", filepath.Base(files[0].Path))
}

func TestWalk_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.pdf", "b.pdf", "c.pdf")

	n := 0
	for _, err := range Walk(root, nil) {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "missing"), nil)
	require.ErrorIs(t, err, ErrDiscovery)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWalk_SkipsUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	root := t.TempDir()
	writeTree(t, root, "a.pdf", "locked/hidden.pdf", "open/b.pdf")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	core, logs := observer.New(zapcore.WarnLevel)
	files, err := Collect(root, zap.New(core))
	require.NoError(t, err)

	got := make([]string, len(files))
	for i, f := range files {
		got[i] = filepath.ToSlash(f.RelPath)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"a.pdf", "open/b.pdf"}, got)

	warned := logs.FilterMessage("skipping unreadable path").All()
	require.Len(t, warned, 1)
	assert.Equal(t, locked, warned[0].ContextMap()["path"])
}

func TestWalk_UnreadableRootIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	root := t.TempDir()
	writeTree(t, root, "a.pdf")
	require.NoError(t, os.Chmod(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := Collect(root, nil)
	assert.ErrorIs(t, err, ErrDiscovery)
}

func TestCheckRoot_File(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.pdf")

	err := CheckRoot(filepath.Join(root, "file.pdf"))
	require.ErrorIs(t, err, ErrDiscovery)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("a.pdf"))
	assert.True(t, IsPDF("a.PDF"))
	assert.False(t, IsPDF("a.pdf.bak"))
	assert.False(t, IsPDF("pdf"))
}
