package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filesorter/internal/config"
)

// ErrScript marks failures raised while loading or evaluating a hook.
var ErrScript = errors.New("script error")

// Hook answers with a destination folder for a file path.
type Hook interface {
	Destination(ctx context.Context, path string) (string, error)
	Name() string
}

// Open loads the hook stored at path using engine. With the auto engine the
// file extension decides: .lua and .cel are evaluated in-process and anything
// else is executed. A missing file returns an error matching os.ErrNotExist.
func Open(path, engine string) (Hook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrScript, path)
	}

	switch resolveEngine(path, engine) {
	case config.ScriptEngineLua:
		return NewLua(path)
	case config.ScriptEngineCEL:
		return NewCEL(path)
	case config.ScriptEngineExec:
		return NewExec(path), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrScript, engine)
	}
}

func resolveEngine(path, engine string) string {
	engine = strings.ToLower(strings.TrimSpace(engine))
	if engine != "" && engine != config.ScriptEngineAuto {
		return engine
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return config.ScriptEngineLua
	case ".cel":
		return config.ScriptEngineCEL
	default:
		return config.ScriptEngineExec
	}
}

// Func adapts a Go function into a Hook.
type Func struct {
	Label string
	Fn    func(ctx context.Context, path string) (string, error)
}

func (f Func) Destination(ctx context.Context, path string) (string, error) {
	if f.Fn == nil {
		return "", nil
	}
	return f.Fn(ctx, path)
}

func (f Func) Name() string {
	if f.Label == "" {
		return "func"
	}
	return f.Label
}
