package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"filesorter/internal/rules"
)

// CEL evaluates a single expression over the variables path, name, ext, and
// dir. A string result is the destination; an empty string, null, or false
// means no match.
type CEL struct {
	path    string
	program cel.Program
}

// NewCEL compiles the expression stored at path.
func NewCEL(path string) (*CEL, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return CompileCEL(path, string(src))
}

// CompileCEL compiles expression directly; name labels it in errors.
func CompileCEL(name, expression string) (*CEL, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("%w: %s: empty expression", ErrScript, name)
	}
	env, err := cel.NewEnv(
		cel.Variable("path", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("ext", cel.StringType),
		cel.Variable("dir", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create CEL environment: %w", ErrScript, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: compile %s: %w", ErrScript, name, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: program %s: %w", ErrScript, name, err)
	}
	return &CEL{path: name, program: program}, nil
}

func (c *CEL) Name() string { return c.path }

func (c *CEL) Destination(ctx context.Context, path string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	base := filepath.Base(path)
	out, _, err := c.program.ContextEval(ctx, map[string]any{
		"path": path,
		"name": base,
		"ext":  rules.ExtensionOf(base),
		"dir":  filepath.Dir(path),
	})
	if err != nil {
		return "", fmt.Errorf("%w: evaluate %s: %w", ErrScript, c.path, err)
	}
	if _, isNull := out.(types.Null); isNull {
		return "", nil
	}
	switch v := out.Value().(type) {
	case string:
		return v, nil
	case bool:
		if !v {
			return "", nil
		}
	}
	return "", fmt.Errorf("%w: %s evaluated to %s, want string", ErrScript, c.path, out.Type().TypeName())
}
