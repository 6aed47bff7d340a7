// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"embed-images":     "embed_images",
	"image-folder":     "image_folder",
	"workers":          "workers",
	"log-level":        "log_level",
	"report":           "report",
	"secrets-dir":      "secrets_dir",
	"fallback":         "fallback.backend",
	"fallback-image":   "fallback.image",
	"fallback-url":     "fallback.url",
	"fallback-timeout": "fallback.timeout",
}

// newRootCmd builds the pdf2md command tree. Each call gets its own viper
// instance so configuration never leaks between invocations.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "pdf2md source_dir output_dir",
		Short: "Convert a tree of PDF files to Markdown",
		Long: `pdf2md walks source_dir for PDF files and writes one Markdown file per PDF
under output_dir, mirroring the directory structure. Page text is extracted
page by page; embedded raster images are written to a sibling image folder
or inlined as base64 data URIs with --embed-images.

When primary extraction fails for a file, the whole document is handed to a
fallback converter (markitdown in a container, a remote HTTP converter, or
none). Files are converted concurrently; a failure in one file never stops
the others.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v, stderr)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), args[0], args[1], cfg, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	defaults := types.DefaultConfig()
	flags := root.Flags()
	flags.String("config", "", "config file (default: ./pdf2md.yaml or ~/.config/pdf2md/config.yaml)")
	flags.Bool("embed-images", defaults.EmbedImages, "inline images as base64 data URIs instead of writing files")
	flags.String("image-folder", defaults.ImageFolder, "subfolder for extracted image files")
	flags.Int("workers", defaults.Workers, "number of concurrent conversions (0 = number of CPUs)")
	flags.String("log-level", defaults.LogLevel, "log level: debug, info, warn, or error")
	flags.String("report", "", "write a YAML run report to this path")
	flags.String("secrets-dir", defaults.SecretsDir, "directory of credential files (fallback-token)")
	flags.String("fallback", string(defaults.Fallback.Backend), "fallback converter: markitdown, http, or none")
	flags.String("fallback-image", defaults.Fallback.Image, "container image for the markitdown fallback")
	flags.String("fallback-url", "", "endpoint of the remote converter for the http fallback")
	flags.Duration("fallback-timeout", defaults.Fallback.Timeout, "timeout for one remote fallback conversion")

	for flag, key := range flagKeys {
		// BindPFlag only fails on a nil flag.
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig layers defaults, the config file, PDF2MD_* environment
// variables and flags, then validates the result.
func loadConfig(cmd *cobra.Command, v *viper.Viper, stderr io.Writer) (types.Config, error) {
	defaults := types.DefaultConfig()
	v.SetDefault("embed_images", defaults.EmbedImages)
	v.SetDefault("image_folder", defaults.ImageFolder)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("report", defaults.Report)
	v.SetDefault("secrets_dir", defaults.SecretsDir)
	v.SetDefault("fallback.backend", string(defaults.Fallback.Backend))
	v.SetDefault("fallback.image", defaults.Fallback.Image)
	v.SetDefault("fallback.url", defaults.Fallback.URL)
	v.SetDefault("fallback.timeout", defaults.Fallback.Timeout)
	v.SetDefault("fallback.token", defaults.Fallback.Token)

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdf2md")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pdf2md"))
		}
	}

	v.SetEnvPrefix("PDF2MD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(stderr, "Using config file:", v.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("%w: reading config: %w", types.ErrInvalidConfig, err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
