// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/pdf2md/internal/httputil"
)

const (
	// defaultMaxRemoteBody caps how much Markdown is accepted from a remote
	// converter.
	defaultMaxRemoteBody = 64 << 20
	// maxErrorSnippet caps the response text quoted in an error.
	maxErrorSnippet = 256
)

// HTTPConverter posts PDF bytes to a remote conversion service and accepts
// the 2xx response body as Markdown.
type HTTPConverter struct {
	client  *http.Client
	url     string
	token   string
	maxBody int64
}

// Compile-time check that HTTPConverter implements Converter.
var _ Converter = (*HTTPConverter)(nil)

// NewHTTPConverter returns a converter for the endpoint at url. A zero
// timeout leaves requests bounded only by the caller's context. A non-empty
// token is sent as a bearer Authorization header.
func NewHTTPConverter(url string, timeout time.Duration, token string) *HTTPConverter {
	return &HTTPConverter{
		client:  &http.Client{Timeout: timeout},
		url:     url,
		token:   token,
		maxBody: defaultMaxRemoteBody,
	}
}

// Convert uploads the PDF and returns the service's Markdown.
func (h *HTTPConverter) Convert(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("%w: reading PDF %s: %w", ErrConversion, pdfPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %w", ErrConversion, err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/markdown, text/plain")
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(pdfPath)))
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := httputil.DoWithRetry(ctx, h.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("%w: posting %s to %s: %w", ErrConversion, pdfPath, h.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading response for %s: %w", ErrConversion, pdfPath, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet] + "..."
		}
		return "", fmt.Errorf("%w: %s: remote converter returned %s: %s", ErrConversion, pdfPath, resp.Status, snippet)
	}

	if int64(len(body)) > h.maxBody {
		return "", fmt.Errorf("%w: %s: response exceeds limit of %d bytes", ErrConversion, pdfPath, h.maxBody)
	}

	if strings.TrimSpace(string(body)) == "" {
		return "", fmt.Errorf("%w: remote converter produced empty output for %s", ErrConversion, pdfPath)
	}

	return string(body), nil
}
