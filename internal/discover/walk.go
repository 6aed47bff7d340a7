// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds PDF inputs under a source root.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// ErrDiscovery reports that the source root is missing or unreadable.
var ErrDiscovery = errors.New("source discovery failed")

const pdfExt = ".pdf"

// errStop unwinds WalkDir when the consumer stops iterating early.
var errStop = errors.New("stop walk")

// CheckRoot verifies that root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDiscovery, root)
	}
	return nil
}

// IsPDF reports whether name has a PDF extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), pdfExt)
}

// Walk lazily yields every PDF under root. Each call re-walks the filesystem.
// Only a missing or unreadable root is an error; it is yielded once and ends
// the sequence. Unreadable entries below the root are logged and skipped.
func Walk(root string, logger *zap.Logger) iter.Seq2[types.SourceFile, error] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(yield func(types.SourceFile, error) bool) {
		if err := CheckRoot(root); err != nil {
			yield(types.SourceFile{}, err)
			return
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return fmt.Errorf("%w: scanning %s: %w", ErrDiscovery, path, err)
				}
				logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !IsPDF(d.Name()) {
				return nil
			}
			sf, err := types.NewSourceFile(root, path)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrDiscovery, err)
			}
			if !yield(sf, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(types.SourceFile{}, err)
		}
	}
}

// Collect walks root and returns all discovered PDFs.
func Collect(root string, logger *zap.Logger) ([]types.SourceFile, error) {
	var files []types.SourceFile
	for sf, err := range Walk(root, logger) {
		if err != nil {
			return nil, err
		}
		files = append(files, sf)
	}
	return files, nil
}
