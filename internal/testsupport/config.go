package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"filesorter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRecursive enables recursive scanning.
func WithRecursive() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Recursive = true
	}
}

// WithoutDefaultRules disables the built-in extension rules.
func WithoutDefaultRules() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rules.UseDefaults = false
	}
}

// WithScript points the script rule at a file with the given body, written
// into the base directory.
func WithScript(name, body string, mode os.FileMode) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, name)
		if err := os.WriteFile(path, []byte(body), mode); err != nil {
			b.t.Fatalf("write script %s: %v", name, err)
		}
		b.cfg.Rules.Script = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
