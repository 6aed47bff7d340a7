// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf2md/internal/extract"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// File permission constants.
const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// ImagePlacer turns extracted images into Markdown references for one
// document. In embed mode it inlines base64 data URIs; otherwise it writes
// each image into the document's own directory under the image folder.
type ImagePlacer struct {
	req      types.ConversionRequest
	dirReady bool
	// createdDirs lists directories this placer created, innermost last.
	createdDirs []string
	// created lists image files that did not exist before this placer wrote them.
	created []string
	placed  int
}

// NewImagePlacer returns a placer for one conversion request.
func NewImagePlacer(req types.ConversionRequest) *ImagePlacer {
	return &ImagePlacer{req: req}
}

// Place returns the Markdown fragment for img. In folder mode the image
// directory is created on the first image and the image file is written
// before returning; a write failure is reported as extract.ErrExtraction.
func (p *ImagePlacer) Place(img types.ExtractedImage) (string, error) {
	if p.req.EmbedImages {
		encoded := base64.StdEncoding.EncodeToString(img.Data)
		p.placed++
		return fmt.Sprintf("![Image](data:image/%s;base64,%s)\n", img.Ext, encoded), nil
	}

	dir := p.req.ImageDir()
	if !p.dirReady {
		if err := p.makeDirs(dir); err != nil {
			return "", fmt.Errorf("%w: creating image folder %s: %w", extract.ErrExtraction, dir, err)
		}
		p.dirReady = true
	}

	name := img.Filename()
	path := filepath.Join(dir, name)
	_, statErr := os.Lstat(path)
	existed := statErr == nil
	if err := os.WriteFile(path, img.Data, filePermissions); err != nil {
		return "", fmt.Errorf("%w: writing image %s: %w", extract.ErrExtraction, path, err)
	}
	if !existed {
		p.created = append(p.created, path)
	}
	p.placed++

	return fmt.Sprintf("![Image](%s)\n", p.req.ImageRef(name)), nil
}

// makeDirs creates dir and its image folder parent, remembering which of
// them did not exist yet.
func (p *ImagePlacer) makeDirs(dir string) error {
	for _, d := range []string{filepath.Dir(dir), dir} {
		if _, err := os.Stat(d); err == nil {
			continue
		}
		if err := os.MkdirAll(d, dirPermissions); err != nil {
			return err
		}
		p.createdDirs = append(p.createdDirs, d)
	}
	return nil
}

// Placed returns the number of images placed so far.
func (p *ImagePlacer) Placed() int {
	return p.placed
}

// Discard undoes this placer's writes when the primary path fails after some
// images were already on disk. Only files and directories it created are
// removed; directories go only when empty.
func (p *ImagePlacer) Discard() {
	for _, path := range p.created {
		_ = os.Remove(path)
	}
	p.created = nil
	for i := len(p.createdDirs) - 1; i >= 0; i-- {
		_ = os.Remove(p.createdDirs[i])
	}
	p.createdDirs = nil
	p.dirReady = false
}
