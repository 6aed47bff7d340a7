// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns one PDF into one Markdown file. The primary path
// extracts page text and raster images directly; when it fails, a whole
// document fallback converter is tried once.
package convert

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for a single conversion job.
var (
	// ErrConversion reports that the fallback converter could not process a file.
	ErrConversion = errors.New("fallback conversion failed")

	// ErrWrite reports that the Markdown output could not be persisted.
	ErrWrite = errors.New("writing output failed")
)

// Converter transforms a PDF file into Markdown text as a whole document.
// Fallback backends (markitdown container, remote HTTP service) implement it.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the Markdown content.
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// unavailableConverter stands in for a backend that could not be set up.
// Every call fails with ErrConversion so jobs still finish with an outcome.
type unavailableConverter struct {
	reason error
}

// Unavailable returns a Converter that always fails with ErrConversion and
// the given reason.
func Unavailable(reason error) Converter {
	return &unavailableConverter{reason: reason}
}

func (u *unavailableConverter) Convert(_ context.Context, pdfPath string) (string, error) {
	return "", fmt.Errorf("%w: %s: backend unavailable: %w", ErrConversion, pdfPath, u.reason)
}
