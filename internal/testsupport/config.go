package testsupport

import (
	"path/filepath"
	"testing"

	"quill/internal/config"
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
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Store.Backend = config.BackendSQLite
	cfgVal.Store.CredentialsFile = filepath.Join(base, "credentials.json")
	cfgVal.Store.WorkbookPath = filepath.Join(base, "content.xlsx")
	cfgVal.Store.DatabasePath = filepath.Join(base, "state", "content.db")
	cfgVal.X.APIKey = "key"
	cfgVal.X.APISecret = "secret"
	cfgVal.X.AccessToken = "token"
	cfgVal.X.AccessTokenSecret = "token-secret"
	cfgVal.X.BaseURL = "http://127.0.0.1:0"

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

// WithBackend overrides the content store backend on the test config.
func WithBackend(backend config.Backend) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
	}
}

// WithBaseURL points the posting client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.X.BaseURL = url
	}
}

// WithoutCredentials clears the posting API credentials.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.X = config.X{BaseURL: b.cfg.X.BaseURL, DailyCap: b.cfg.X.DailyCap}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
