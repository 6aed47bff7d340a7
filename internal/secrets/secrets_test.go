// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// secretDir writes files (name -> content) into a fresh directory. A name
// ending in "/" becomes a subdirectory.
func secretDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if name[len(name)-1] == '/' {
			require.NoError(t, os.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  map[string]string
	}{
		{
			name:  "trims tokens",
			files: map[string]string{FallbackToken: "  tok_abc123  \n", "proxy-user": "svc-convert\n"},
			want:  map[string]string{FallbackToken: "tok_abc123", "proxy-user": "svc-convert"},
		},
		{
			name:  "blank files are dropped",
			files: map[string]string{FallbackToken: "tok", "empty": "", "blank": " \n\t "},
			want:  map[string]string{FallbackToken: "tok"},
		},
		{
			name:  "hidden files and directories are ignored",
			files: map[string]string{".gitkeep": "", ".old-token": "stale", "nested/": "", FallbackToken: "tok"},
			want:  map[string]string{FallbackToken: "tok"},
		},
		{
			name:  "empty directory",
			files: map[string]string{},
			want:  map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(secretDir(t, tt.files), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_DirectoryIsAFile(t *testing.T) {
	dir := secretDir(t, map[string]string{"not-a-dir": "x"})
	_, err := Load(filepath.Join(dir, "not-a-dir"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing credentials")
}

func TestLoad_UnreadableFileIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := secretDir(t, map[string]string{FallbackToken: "tok"})
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.WriteFile(locked, []byte("hidden"), 0o000))

	core, logs := observer.New(zap.WarnLevel)
	got, err := Load(dir, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{FallbackToken: "tok"}, got)

	warned := logs.FilterMessage("could not read secret").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "locked", warned[0].ContextMap()["name"])
}
