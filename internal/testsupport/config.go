package testsupport

import (
	"path/filepath"
	"testing"

	"m4dsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose paths all live under a per-test temp
// directory. Input files are not created; use the fixture writers for that.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SiteSheet = filepath.Join(base, "sheet.csv")
	cfgVal.Paths.Dictionaries = filepath.Join(base, "dictionaries.json")
	cfgVal.Paths.Backlog = filepath.Join(base, "missing_player_attributes.csv")
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.JournalPath = filepath.Join(base, "journal.db")
	cfgVal.API.APIKey = "test-key"
	cfgVal.API.Organization = "test-org"
	cfgVal.Journal.Enabled = false

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

// WithBaseURL points the directory client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// WithTokenPolicy overrides api.token_policy.
func WithTokenPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.TokenPolicy = policy
	}
}

// WithJournal enables the outcome journal under the temp directory.
func WithJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = true
	}
}

// WithValidateLimit caps the validator's processed players.
func WithValidateLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reconcile.ValidateLimit = limit
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SiteSheet)
}
