package testsupport

import (
	"path/filepath"
	"testing"

	"heatmap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.OMDb.APIKey = "test"
	cfgVal.OMDb.MinIntervalMS = 0
	cfgVal.IMDb.MinIntervalMS = 0
	cfgVal.IMDb.ScrapeAttempts = 1
	cfgVal.IMDb.ScrapeBackoffMS = 0
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOMDbKey sets the OMDb API key on the test config.
func WithOMDbKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OMDb.APIKey = key
	}
}

// WithUpstream points both upstream base URLs at the stub servers.
func WithUpstream(u *Upstream) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OMDb.BaseURL = u.OMDbURL()
		b.cfg.IMDb.BaseURL = u.IMDbURL()
	}
}

// WithFastIngest toggles the primary-source-only ingest path.
func WithFastIngest(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.Fast = enabled
	}
}

// WithMaintenance toggles the periodic staleness sweep.
func WithMaintenance(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Maintenance.Enabled = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
