package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRules()
	c.normalizeOrganize()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("FILESORTER_STATE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StateDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRules() {
	c.Rules.File = strings.TrimSpace(c.Rules.File)
	c.Rules.Script = strings.TrimSpace(c.Rules.Script)
	c.Rules.ScriptEngine = strings.ToLower(strings.TrimSpace(c.Rules.ScriptEngine))
	if c.Rules.ScriptEngine == "" {
		c.Rules.ScriptEngine = defaultScriptEngine
	}
	c.Rules.ScriptPrecedence = strings.ToLower(strings.TrimSpace(c.Rules.ScriptPrecedence))
	if c.Rules.ScriptPrecedence == "" {
		c.Rules.ScriptPrecedence = defaultScriptPrecedence
	}
	c.Rules.ScriptDestinations = trimList(c.Rules.ScriptDestinations)
}

func (c *Config) normalizeOrganize() {
	c.Organize.Exclude = trimList(c.Organize.Exclude)
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("FILESORTER_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func trimList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
