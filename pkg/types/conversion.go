// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultImageFolder is the image subfolder name used when none is configured.
const DefaultImageFolder = "images"

// SourceFile is one PDF discovered under a source root.
type SourceFile struct {
	// Path is the absolute path to the PDF.
	Path string `json:"path" yaml:"path"`

	// RelPath is Path relative to the source root, using the OS separator.
	// It never starts with "..".
	RelPath string `json:"rel_path" yaml:"rel_path"`
}

// NewSourceFile builds a SourceFile for path under root. It rejects paths that
// escape root.
func NewSourceFile(root, path string) (SourceFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return SourceFile{}, fmt.Errorf("resolving root %s: %w", root, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("resolving path %s: %w", path, err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return SourceFile{}, fmt.Errorf("relativizing %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return SourceFile{}, fmt.Errorf("path %s escapes source root %s", path, root)
	}
	return SourceFile{Path: absPath, RelPath: rel}, nil
}

// ConversionRequest describes the conversion of a single PDF. It is built once
// per file and not modified afterwards.
type ConversionRequest struct {
	Source      SourceFile `json:"source" yaml:"source"`
	OutputRoot  string     `json:"output_root" yaml:"output_root"`
	EmbedImages bool       `json:"embed_images" yaml:"embed_images"`
	ImageFolder string     `json:"image_folder" yaml:"image_folder"`
}

// OutputPath returns the Markdown path for the request: the source's relative
// path under OutputRoot with the extension replaced by ".md".
func (r ConversionRequest) OutputPath() string {
	rel := r.Source.RelPath
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".md"
	return filepath.Join(r.OutputRoot, rel)
}

// ImageDir returns the directory holding this document's image files:
// {image folder}/{document stem} next to the output Markdown file. Sibling
// documents share the image folder but never a directory inside it.
func (r ConversionRequest) ImageDir() string {
	return filepath.Join(filepath.Dir(r.OutputPath()), r.imageFolder(), r.stem())
}

// ImageRef returns the Markdown link target for an image file, relative to
// the Markdown file's own directory.
func (r ConversionRequest) ImageRef(filename string) string {
	return r.imageFolder() + "/" + r.stem() + "/" + filename
}

// stem is the source file name without its extension.
func (r ConversionRequest) stem() string {
	base := filepath.Base(r.Source.RelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (r ConversionRequest) imageFolder() string {
	if r.ImageFolder == "" {
		return DefaultImageFolder
	}
	return r.ImageFolder
}

// ExtractedImage is one raster image occurrence on one page.
type ExtractedImage struct {
	// PageNumber is 1-based.
	PageNumber int
	// Index is the 1-based position of the image within its page.
	Index int
	// Data holds the raw encoded image bytes.
	Data []byte
	// Ext is the format extension without the dot (e.g. "png", "jpg").
	Ext string
}

// Filename returns the stable name image_PPP_II.ext.
func (img ExtractedImage) Filename() string {
	return fmt.Sprintf("image_%03d_%02d.%s", img.PageNumber, img.Index, img.Ext)
}

// PageResult holds the text and images extracted from one page.
type PageResult struct {
	// PageNumber is 1-based.
	PageNumber int
	Text       string
	Images     []ExtractedImage
}

// ConversionMethod records which path produced the Markdown.
type ConversionMethod string

const (
	MethodPrimary  ConversionMethod = "primary"
	MethodFallback ConversionMethod = "fallback"
)

// ConversionOutcome is the result of one conversion job.
type ConversionOutcome struct {
	Source     SourceFile       `json:"source" yaml:"source"`
	OutputPath string           `json:"output_path" yaml:"output_path"`
	Success    bool             `json:"success" yaml:"success"`
	Method     ConversionMethod `json:"method,omitempty" yaml:"method,omitempty"`

	// Stage names the job state in which a failure happened.
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`

	// Images is the number of images placed by the primary path.
	Images   int           `json:"images" yaml:"images"`
	Err      error         `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// ErrorMessage returns the failure message, or "" on success.
func (o ConversionOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
