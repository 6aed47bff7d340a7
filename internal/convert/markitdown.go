// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/pdf2md/internal/container"
)

// DefaultMarkitdownImage is the container image used when none is configured.
const DefaultMarkitdownImage = "markitdown:latest"

// MarkitdownConverter converts PDFs by piping them through the markitdown
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type MarkitdownConverter struct {
	runtime container.Runtime
	image   string
}

// Compile-time check that MarkitdownConverter implements Converter.
var _ Converter = (*MarkitdownConverter)(nil)

// NewMarkitdownConverter creates a converter that runs image with the given
// container runtime. It verifies that the image exists locally before
// returning.
func NewMarkitdownConverter(rt container.Runtime, image string) (*MarkitdownConverter, error) {
	if image == "" {
		image = DefaultMarkitdownImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt, image: image}, nil
}

// Convert pipes the PDF at pdfPath through the markitdown container and
// returns the resulting Markdown text verbatim.
func (m *MarkitdownConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("%w: opening PDF %s: %w", ErrConversion, pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, f, &out); err != nil {
		return "", fmt.Errorf("%w: converting %s with markitdown: %w", ErrConversion, pdfPath, err)
	}

	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("%w: markitdown produced empty output for %s", ErrConversion, pdfPath)
	}

	return out.String(), nil
}
