// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials that are kept out of the config file,
// one per file, in the layout used by mounted container secrets.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FallbackToken names the file holding the bearer token for the http
// fallback converter.
const FallbackToken = "fallback-token"

// Load returns the credentials stored in dir, keyed by file name. Hidden
// files, subdirectories and blank files are ignored. A dir that does not
// exist holds no credentials; a file that cannot be read is logged and
// left out.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return map[string]string{}, nil
	case err != nil:
		return nil, fmt.Errorf("listing credentials in %s: %w", dir, err)
	}

	found := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		value, err := readSecret(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		if value != "" {
			found[entry.Name()] = value
		}
	}
	return found, nil
}

// readSecret returns the file's content without surrounding whitespace, so
// tokens written with a trailing newline still match.
func readSecret(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
