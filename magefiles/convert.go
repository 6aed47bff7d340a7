package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts every PDF under src into out.
// Example: mage convert papers/raw papers/markdown
func Convert(src, out string) error {
	mg.Deps(Build)
	bin := filepath.Join(binDir, binName)
	if err := sh.RunV(bin, src, out); err != nil {
		return fmt.Errorf("converting %s: %w", src, err)
	}
	return nil
}
