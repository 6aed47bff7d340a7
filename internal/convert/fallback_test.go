// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2md/internal/container"
	"github.com/pdiddy/pdf2md/pkg/types"
)

func withDetectRuntime(t *testing.T, fn func() (container.Runtime, error)) {
	t.Helper()
	old := detectRuntime
	detectRuntime = fn
	t.Cleanup(func() { detectRuntime = old })
}

func TestNewFallback(t *testing.T) {
	t.Run("none is disabled", func(t *testing.T) {
		conv := NewFallback(types.FallbackConfig{Backend: types.BackendNone}, nil)
		_, err := conv.Convert(context.Background(), "a.pdf")
		require.ErrorIs(t, err, ErrConversion)
		assert.ErrorIs(t, err, errFallbackDisabled)
	})

	t.Run("http builds remote converter", func(t *testing.T) {
		conv := NewFallback(types.FallbackConfig{
			Backend: types.BackendHTTP,
			URL:     "http://localhost:9/convert",
			Timeout: time.Second,
			Token:   "tok",
		}, nil)
		h, ok := conv.(*HTTPConverter)
		require.True(t, ok)
		assert.Equal(t, "http://localhost:9/convert", h.url)
		assert.Equal(t, time.Second, h.client.Timeout)
		assert.Equal(t, "tok", h.token)
	})

	t.Run("markitdown without runtime is unavailable", func(t *testing.T) {
		withDetectRuntime(t, func() (container.Runtime, error) {
			return nil, errors.New("no container runtime available")
		})
		conv := NewFallback(types.FallbackConfig{Backend: types.BackendMarkitdown}, nil)
		_, err := conv.Convert(context.Background(), "a.pdf")
		require.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "no container runtime available")
	})

	t.Run("markitdown without image is unavailable", func(t *testing.T) {
		withDetectRuntime(t, func() (container.Runtime, error) {
			return &fakeRuntime{imageErr: errors.New("image missing")}, nil
		})
		conv := NewFallback(types.FallbackConfig{Backend: types.BackendMarkitdown, Image: "mk:1"}, nil)
		_, err := conv.Convert(context.Background(), "a.pdf")
		require.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "image missing")
	})

	t.Run("markitdown with runtime and image", func(t *testing.T) {
		rt := &fakeRuntime{run: func(io.Reader, io.Writer) error { return nil }}
		withDetectRuntime(t, func() (container.Runtime, error) { return rt, nil })
		conv := NewFallback(types.FallbackConfig{Backend: types.BackendMarkitdown, Image: "mk:1"}, nil)
		m, ok := conv.(*MarkitdownConverter)
		require.True(t, ok)
		assert.Equal(t, "mk:1", m.image)
	})

	t.Run("unknown backend", func(t *testing.T) {
		conv := NewFallback(types.FallbackConfig{Backend: "grobid"}, nil)
		_, err := conv.Convert(context.Background(), "a.pdf")
		require.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "grobid")
	})
}
