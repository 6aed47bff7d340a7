// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf2md/internal/container"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// errFallbackDisabled is the reason reported when the none backend is selected.
var errFallbackDisabled = errors.New("fallback disabled")

// detectRuntime is swapped in tests.
var detectRuntime = container.DetectRuntime

// NewFallback builds the fallback converter selected by cfg. A backend that
// cannot be set up is logged and replaced by one that fails every call, so
// the run can still complete.
func NewFallback(cfg types.FallbackConfig, logger *zap.Logger) Converter {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case types.BackendNone:
		return Unavailable(errFallbackDisabled)

	case types.BackendHTTP:
		logger.Debug("using remote fallback converter", zap.String("url", cfg.URL))
		return NewHTTPConverter(cfg.URL, cfg.Timeout, cfg.Token)

	case types.BackendMarkitdown, "":
		rt, err := detectRuntime()
		if err != nil {
			logger.Warn("markitdown fallback unavailable", zap.Error(err))
			return Unavailable(err)
		}
		conv, err := NewMarkitdownConverter(rt, cfg.Image)
		if err != nil {
			logger.Warn("markitdown fallback unavailable", zap.String("runtime", rt.Name()), zap.Error(err))
			return Unavailable(err)
		}
		logger.Debug("using markitdown fallback converter", zap.String("runtime", rt.Name()), zap.String("image", conv.image))
		return conv

	default:
		return Unavailable(fmt.Errorf("unknown backend %q", cfg.Backend))
	}
}
