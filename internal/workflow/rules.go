package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"filesorter/internal/config"
	"filesorter/internal/logging"
	"filesorter/internal/rules"
	"filesorter/internal/script"
)

// RuleSource is the rule set loaded for one root together with where it
// came from.
type RuleSource struct {
	Set          *rules.RuleSet
	RuleFile     string
	RuleFileUsed bool
	UsedDefaults bool
	ScriptFile   string
	ScriptUsed   bool
	// ScriptError holds the load failure of a script that exists but could
	// not be parsed or compiled. Its rule stays in the set and never matches.
	ScriptError string
}

// Exclusions lists the files the scanner must leave alone.
func (s *RuleSource) Exclusions() []string {
	var out []string
	if s.RuleFile != "" {
		out = append(out, s.RuleFile)
	}
	if s.ScriptFile != "" {
		out = append(out, s.ScriptFile)
	}
	return out
}

// LoadRules builds the rule set for root from the configured rule file and
// script hook. A missing rule file falls back to the built-in rules when
// enabled and a malformed one is an error. A missing script leaves the set
// without a script rule; a broken one is kept as a rule that fails on every
// file, so extension rules still apply.
func (m *Manager) LoadRules(ctx context.Context, root string) (*RuleSource, error) {
	src := &RuleSource{
		RuleFile:   config.ResolveRulePath(root, m.cfg.Rules.File),
		ScriptFile: config.ResolveRulePath(root, m.cfg.Rules.Script),
	}
	logger := logging.WithContext(ctx, m.logger)

	var extension []rules.Rule
	if src.RuleFile != "" {
		loaded, err := rules.LoadFile(src.RuleFile)
		switch {
		case err == nil:
			extension = loaded
			src.RuleFileUsed = true
		case errors.Is(err, fs.ErrNotExist):
			if m.cfg.Rules.UseDefaults {
				extension = rules.DefaultRules()
				src.UsedDefaults = true
			}
			logger.Debug("rule file not found",
				logging.String("rule_file", src.RuleFile),
				logging.Bool("using_defaults", src.UsedDefaults),
			)
		default:
			return nil, fmt.Errorf("load rule file %s: %w", src.RuleFile, err)
		}
	} else if m.cfg.Rules.UseDefaults {
		extension = rules.DefaultRules()
		src.UsedDefaults = true
	}

	var scriptRule *rules.Rule
	if src.ScriptFile != "" {
		hook, err := m.openScript(src.ScriptFile)
		switch {
		case err == nil:
			rule := rules.Script(hook.Name(), hook, m.cfg.Rules.ScriptDestinations...)
			scriptRule = &rule
			src.ScriptUsed = true
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("script hook not found", logging.String("script", src.ScriptFile))
		default:
			src.ScriptError = err.Error()
			logging.WarnWithContext(logger, "script hook failed to load", "script_error",
				logging.String("script", src.ScriptFile),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the script and check it with filesorter rules"),
				logging.String(logging.FieldImpact, "script rule matches nothing until fixed"),
			)
			rule := rules.Script(filepath.Base(src.ScriptFile), brokenHook{err: err}, m.cfg.Rules.ScriptDestinations...)
			scriptRule = &rule
		}
	}

	scriptFirst := strings.EqualFold(m.cfg.Rules.ScriptPrecedence, config.PrecedenceBefore)
	set, err := rules.Build(extension, scriptRule, scriptFirst)
	if err != nil {
		return nil, err
	}
	src.Set = set
	return src, nil
}

// brokenHook stands in for a script that could not be loaded.
type brokenHook struct {
	err error
}

func (h brokenHook) Destination(context.Context, string) (string, error) {
	return "", h.err
}

func (m *Manager) openScript(path string) (script.Hook, error) {
	if m.openHook != nil {
		return m.openHook(path)
	}
	return script.Open(path, m.cfg.Rules.ScriptEngine)
}
