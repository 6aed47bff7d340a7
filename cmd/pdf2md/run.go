// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf2md/internal/convert"
	"github.com/pdiddy/pdf2md/internal/discover"
	"github.com/pdiddy/pdf2md/internal/dispatch"
	"github.com/pdiddy/pdf2md/internal/extract"
	"github.com/pdiddy/pdf2md/internal/logging"
	"github.com/pdiddy/pdf2md/internal/secrets"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// newRunner builds the per-file converter. Tests replace it.
var newRunner = func(cfg types.Config, logger *zap.Logger) dispatch.Runner {
	return &convert.Pipeline{
		Extractor: extract.NewPDFExtractor(),
		Fallback:  convert.NewFallback(cfg.Fallback, logger),
		Logger:    logger,
	}
}

func runConvert(ctx context.Context, sourceDir, outputDir string, cfg types.Config, stdout, stderr io.Writer) error {
	logger, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Fallback, err = withSecretToken(cfg.Fallback, cfg.SecretsDir, logger); err != nil {
		return err
	}

	outcomes, err := convertTree(ctx, sourceDir, outputDir, cfg, logger)
	if err != nil {
		return err
	}
	summary := dispatch.Summarize(outcomes)
	fmt.Fprintln(stdout, summary)
	if summary.HasFailures() {
		logger.Warn("some files were not converted", zap.Int("failed", summary.Failed))
	}
	return writeReport(cfg.Report, outcomes, logger)
}

// convertTree discovers every PDF under sourceDir and converts them all,
// returning one outcome per file. Only discovery and output-root errors are
// returned; per-file failures are reported as outcomes.
func convertTree(ctx context.Context, sourceDir, outputDir string, cfg types.Config, logger *zap.Logger) ([]types.ConversionOutcome, error) {
	files, err := discover.Collect(sourceDir, logger)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		logger.Info("No PDF files found", zap.String("source", sourceDir))
		return nil, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", outputDir, err)
	}

	reqs := make([]types.ConversionRequest, 0, len(files))
	for _, f := range files {
		reqs = append(reqs, types.ConversionRequest{
			Source:      f,
			OutputRoot:  outputDir,
			EmbedImages: cfg.EmbedImages,
			ImageFolder: cfg.ImageFolder,
		})
	}

	reqs, duplicates := dispatch.Dedupe(reqs)
	for _, o := range duplicates {
		logger.Error("conversion failed",
			zap.String("source", o.Source.Path),
			zap.String("stage", o.Stage),
			zap.Error(o.Err))
	}

	d, err := dispatch.New(newRunner(cfg, logger), dispatch.ResolveWorkers(cfg.Workers, len(reqs)), logger)
	if err != nil {
		return nil, err
	}

	logger.Info("converting",
		zap.String("source", sourceDir),
		zap.String("output", outputDir),
		zap.Int("files", len(reqs)),
		zap.Int("workers", d.Workers()))

	return append(d.Run(ctx, reqs), duplicates...), nil
}

// withSecretToken fills the remote converter's token from the secrets
// directory when the http backend is selected and no token was configured.
func withSecretToken(fb types.FallbackConfig, dir string, logger *zap.Logger) (types.FallbackConfig, error) {
	if fb.Backend != types.BackendHTTP || fb.Token != "" {
		return fb, nil
	}
	s, err := secrets.Load(dir, logger)
	if err != nil {
		return fb, err
	}
	if tok, ok := s[secrets.FallbackToken]; ok {
		logger.Debug("loaded fallback token", zap.String("dir", dir))
		fb.Token = tok
	}
	return fb, nil
}

func writeReport(path string, outcomes []types.ConversionOutcome, logger *zap.Logger) error {
	if path == "" {
		return nil
	}
	if err := dispatch.WriteReport(path, outcomes); err != nil {
		return err
	}
	logger.Info("wrote report", zap.String("path", path))
	return nil
}
