package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"filesorter/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "filesorter")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Rules.File != "rules.json" {
		t.Fatalf("unexpected rules file: %q", cfg.Rules.File)
	}
	if cfg.Rules.Script != "sort_rules.lua" {
		t.Fatalf("unexpected script file: %q", cfg.Rules.Script)
	}
	if cfg.Rules.ScriptPrecedence != config.PrecedenceAfter {
		t.Fatalf("expected script rules after extension rules, got %q", cfg.Rules.ScriptPrecedence)
	}
	if !cfg.Rules.UseDefaults {
		t.Fatal("expected built-in rules enabled by default")
	}
	if cfg.Organize.Recursive {
		t.Fatal("expected non-recursive scanning by default")
	}
	if cfg.Organize.MaxCollisionProbes != 1000 {
		t.Fatalf("unexpected probe limit: %d", cfg.Organize.MaxCollisionProbes)
	}
	if cfg.Daemon.IntervalSeconds != 10 {
		t.Fatalf("unexpected daemon interval: %d", cfg.Daemon.IntervalSeconds)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "filesorter.toml")

	type payload struct {
		Rules struct {
			File             string `toml:"file"`
			ScriptPrecedence string `toml:"script_precedence"`
		} `toml:"rules"`
		Daemon struct {
			IntervalSeconds int `toml:"interval_seconds"`
		} `toml:"daemon"`
		Organize struct {
			Recursive bool     `toml:"recursive"`
			Exclude   []string `toml:"exclude"`
		} `toml:"organize"`
	}
	custom := payload{}
	custom.Rules.File = "/etc/filesorter/rules.yaml"
	custom.Rules.ScriptPrecedence = "BEFORE"
	custom.Daemon.IntervalSeconds = 60
	custom.Organize.Recursive = true
	custom.Organize.Exclude = []string{" keep.me ", ""}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Rules.File != "/etc/filesorter/rules.yaml" {
		t.Fatalf("expected rules file override, got %q", cfg.Rules.File)
	}
	if cfg.Rules.ScriptPrecedence != config.PrecedenceBefore {
		t.Fatalf("expected precedence to be normalized, got %q", cfg.Rules.ScriptPrecedence)
	}
	if cfg.Daemon.IntervalSeconds != 60 {
		t.Fatalf("expected interval 60, got %d", cfg.Daemon.IntervalSeconds)
	}
	if !cfg.Organize.Recursive {
		t.Fatal("expected recursive override")
	}
	if len(cfg.Organize.Exclude) != 1 || cfg.Organize.Exclude[0] != "keep.me" {
		t.Fatalf("unexpected exclude list: %#v", cfg.Organize.Exclude)
	}
	if cfg.Rules.Script != "sort_rules.lua" {
		t.Fatalf("expected untouched defaults to survive, got script %q", cfg.Rules.Script)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "filesorter.toml")
	if err := os.WriteFile(configPath, []byte("[daemon]\ninterval = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvVarOverrides(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("FILESORTER_STATE_DIR", stateDir)
	t.Setenv("FILESORTER_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.StateDir != stateDir {
		t.Errorf("expected state dir from env, got %q", cfg.Paths.StateDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level from env, got %q", cfg.Logging.Level)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "script_precedence") {
		t.Fatalf("sample config missing script precedence: %s", contents)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to be found")
	}
	if cfg.Daemon.IntervalSeconds != config.Default().Daemon.IntervalSeconds {
		t.Fatalf("sample interval drifted from defaults: %d", cfg.Daemon.IntervalSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"interval below one second", func(c *config.Config) { c.Daemon.IntervalSeconds = 0 }},
		{"probe limit", func(c *config.Config) { c.Organize.MaxCollisionProbes = 0 }},
		{"script engine", func(c *config.Config) { c.Rules.ScriptEngine = "python" }},
		{"precedence", func(c *config.Config) { c.Rules.ScriptPrecedence = "merge" }},
		{"script destination traversal", func(c *config.Config) { c.Rules.ScriptDestinations = []string{"../out"} }},
		{"script destination nested", func(c *config.Config) { c.Rules.ScriptDestinations = []string{"a/b"} }},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"history retention", func(c *config.Config) { c.History.RetentionRuns = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestResolveRulePath(t *testing.T) {
	root := filepath.Join(t.TempDir(), "downloads")
	if got := config.ResolveRulePath(root, "rules.json"); got != filepath.Join(root, "rules.json") {
		t.Fatalf("relative path not joined to root: %q", got)
	}
	abs := filepath.Join(t.TempDir(), "rules.yaml")
	if got := config.ResolveRulePath(root, abs); got != abs {
		t.Fatalf("absolute path changed: %q", got)
	}
	if got := config.ResolveRulePath(root, "  "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
