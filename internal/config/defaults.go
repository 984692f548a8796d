package config

const (
	defaultConfigPath         = "~/.config/filesorter/config.toml"
	defaultStateDir           = "~/.local/share/filesorter"
	defaultLogDir             = "~/.local/share/filesorter/logs"
	defaultRulesFile          = "rules.json"
	defaultScriptFile         = "sort_rules.lua"
	defaultScriptEngine       = ScriptEngineAuto
	defaultScriptPrecedence   = PrecedenceAfter
	defaultMaxCollisionProbes = 1000
	defaultDaemonInterval     = 10
	defaultHistoryRetention   = 500
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Script engine identifiers accepted by rules.script_engine.
const (
	ScriptEngineAuto = "auto"
	ScriptEngineLua  = "lua"
	ScriptEngineCEL  = "cel"
	ScriptEngineExec = "exec"
)

// Script precedence values accepted by rules.script_precedence.
const (
	PrecedenceBefore = "before"
	PrecedenceAfter  = "after"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Rules: Rules{
			File:             defaultRulesFile,
			Script:           defaultScriptFile,
			ScriptEngine:     defaultScriptEngine,
			ScriptPrecedence: defaultScriptPrecedence,
			UseDefaults:      true,
		},
		Organize: Organize{
			MaxCollisionProbes: defaultMaxCollisionProbes,
		},
		Daemon: Daemon{
			IntervalSeconds: defaultDaemonInterval,
			ReloadRules:     true,
		},
		History: History{
			Enabled:       true,
			RetentionRuns: defaultHistoryRetention,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
