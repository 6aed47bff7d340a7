// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document accumulates the Markdown fragments of one conversion in order.
// It is serialized once, after the last page.
type Document struct {
	parts []string
}

// AddPage appends the header and text of a page.
func (d *Document) AddPage(pageNum int, text string) {
	d.parts = append(d.parts, fmt.Sprintf("### Page %d\n\n%s\n", pageNum, text))
}

// Add appends a ready-made fragment such as an image reference.
func (d *Document) Add(fragment string) {
	d.parts = append(d.parts, fragment)
}

// String joins the fragments with newlines.
func (d *Document) String() string {
	return strings.Join(d.parts, "\n")
}

// writeAtomic writes data to path through a temporary file in the same
// directory and renames it into place, so path either keeps its previous
// content or holds the complete new content. Parent directories are created
// as needed.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating output directory %s: %w", ErrWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %w", ErrWrite, dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrWrite, path, err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		return fmt.Errorf("%w: setting mode on %s: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: renaming into %s: %w", ErrWrite, path, err)
	}
	return nil
}

// removeStale deletes an output left by an earlier run so a failed job
// leaves nothing at its target path.
func removeStale(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
