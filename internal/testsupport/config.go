package testsupport

import (
	"path/filepath"
	"testing"

	"clearcart/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Rights.BaseURL = "https://rights.test"
	cfg.Rights.Token = "test-token"
	cfg.Archive.BaseURL = "https://archive.test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRightsBaseURL overrides the rights authority endpoint on the test config.
func WithRightsBaseURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Rights.BaseURL = url
	}
}

// WithArchiveBaseURL overrides the archive service endpoint on the test config.
func WithArchiveBaseURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Archive.BaseURL = url
	}
}
