package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRules() error {
	switch c.Rules.ScriptEngine {
	case ScriptEngineAuto, ScriptEngineLua, ScriptEngineCEL, ScriptEngineExec:
	default:
		return fmt.Errorf("rules.script_engine: unsupported value %q (expected auto, lua, cel, or exec)", c.Rules.ScriptEngine)
	}
	switch c.Rules.ScriptPrecedence {
	case PrecedenceBefore, PrecedenceAfter:
	default:
		return fmt.Errorf("rules.script_precedence: unsupported value %q (expected before or after)", c.Rules.ScriptPrecedence)
	}
	for _, dest := range c.Rules.ScriptDestinations {
		if !isSingleSegment(dest) {
			return fmt.Errorf("rules.script_destinations: %q must be a single folder name", dest)
		}
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.MaxCollisionProbes < 1 {
		return errors.New("organize.max_collision_probes must be >= 1")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon.IntervalSeconds < 1 {
		return errors.New("daemon.interval_seconds must be >= 1")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionRuns < 0 {
		return errors.New("history.retention_runs must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func isSingleSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
