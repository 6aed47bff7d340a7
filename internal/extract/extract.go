// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract reads page text and embedded raster images out of PDFs.
// It is the primary conversion path; its failures are recoverable by the
// caller through a fallback converter.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// ErrExtraction is wrapped by every primary extraction failure.
var ErrExtraction = errors.New("primary extraction failed")

// Extractor turns one PDF into per-page results in page order.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string) ([]types.PageResult, error)
}

// rawImage is one image occurrence as the image reader returns it, before
// it has a position within its page.
type rawImage struct {
	objNr int
	data  []byte
	ext   string
}

// textReader returns the plain text of every page, index 0 being page 1.
type textReader func(pdfPath string) ([]string, error)

// imageReader returns the raster images referenced by each page, keyed by
// 1-based page number.
type imageReader func(pdfPath string) (map[int][]rawImage, error)

// PDFExtractor extracts text with ledongthuc/pdf and images with pdfcpu.
type PDFExtractor struct {
	readText   textReader
	readImages imageReader
}

// Compile-time check that PDFExtractor implements Extractor.
var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor returns an extractor backed by the pure-Go PDF readers.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		readText:   readPageTexts,
		readImages: readPageImages,
	}
}

// Extract opens the document and returns one PageResult per page. Nothing is
// returned on failure; parser panics on malformed input are reported as
// ErrExtraction.
func (e *PDFExtractor) Extract(ctx context.Context, pdfPath string) (pages []types.PageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: parser panic: %v", ErrExtraction, pdfPath, r)
		}
	}()

	texts, err := e.readText(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading text of %s: %w", ErrExtraction, pdfPath, err)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s has no pages", ErrExtraction, pdfPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images, err := e.readImages(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading images of %s: %w", ErrExtraction, pdfPath, err)
	}

	pages = make([]types.PageResult, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageNum := i + 1
		pages = append(pages, types.PageResult{
			PageNumber: pageNum,
			Text:       text,
			Images:     orderImages(pageNum, images[pageNum]),
		})
	}
	return pages, nil
}

// orderImages sorts a page's images by object number and numbers them from 1.
func orderImages(pageNum int, raw []rawImage) []types.ExtractedImage {
	if len(raw) == 0 {
		return nil
	}
	sorted := make([]rawImage, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].objNr < sorted[b].objNr })

	out := make([]types.ExtractedImage, len(sorted))
	for i, r := range sorted {
		out[i] = types.ExtractedImage{
			PageNumber: pageNum,
			Index:      i + 1,
			Data:       r.data,
			Ext:        normalizeExt(r.ext),
		}
	}
	return out
}

// normalizeExt lowercases the extension and strips a leading dot.
// Unknown formats are written as raw binary.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "bin"
	}
	return ext
}
