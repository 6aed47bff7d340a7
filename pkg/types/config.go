package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FallbackBackend identifies the alternate whole-document converter.
type FallbackBackend string

const (
	BackendMarkitdown FallbackBackend = "markitdown"
	BackendHTTP       FallbackBackend = "http"
	BackendNone       FallbackBackend = "none"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// FallbackConfig holds settings for the fallback converter.
type FallbackConfig struct {
	// Backend selects the fallback engine: markitdown, http, or none.
	Backend FallbackBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Image is the markitdown container image (default "markitdown:latest").
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// URL is the endpoint of a remote converter for the http backend.
	URL string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`

	// Timeout bounds one remote conversion (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Token is sent as a bearer token to the remote converter. When empty it
	// is read from the fallback-token file in the secrets directory.
	Token string `json:"-" yaml:"-" mapstructure:"token"`
}

// Config groups the settings of one conversion run.
type Config struct {
	// EmbedImages inlines images as base64 data URIs instead of writing files.
	EmbedImages bool `json:"embed_images" yaml:"embed_images" mapstructure:"embed_images"`

	// ImageFolder is the sibling subfolder for image files (default "images").
	ImageFolder string `json:"image_folder" yaml:"image_folder" mapstructure:"image_folder"`

	// Workers is the number of concurrent conversions; 0 selects a default
	// from host parallelism.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// Report is an optional path for a YAML run report.
	Report string `json:"report,omitempty" yaml:"report,omitempty" mapstructure:"report"`

	// SecretsDir holds credential files, one secret per file (default ".secrets").
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`

	Fallback FallbackConfig `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		ImageFolder: DefaultImageFolder,
		LogLevel:    "info",
		SecretsDir:  ".secrets",
		Fallback: FallbackConfig{
			Backend: BackendMarkitdown,
			Image:   "markitdown:latest",
			Timeout: 2 * time.Minute,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot use.
func (c Config) Validate() error {
	folder := c.ImageFolder
	if folder == "" || folder == "." || folder == ".." || strings.ContainsAny(folder, `/\`) {
		return fmt.Errorf("%w: image folder %q must be a single directory name", ErrInvalidConfig, folder)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d (must be >= 0, 0 means auto)", ErrInvalidConfig, c.Workers)
	}
	switch c.Fallback.Backend {
	case BackendMarkitdown, BackendNone:
	case BackendHTTP:
		if c.Fallback.URL == "" {
			return fmt.Errorf("%w: fallback backend http requires fallback.url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown fallback backend %q", ErrInvalidConfig, c.Fallback.Backend)
	}
	return nil
}
