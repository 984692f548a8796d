package script

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultExecTimeout bounds a single invocation of an executable hook.
const DefaultExecTimeout = 10 * time.Second

// Exec runs an external program with the file path as its only argument and
// reads the destination from the first line of stdout. Empty output means no
// match; a non-zero exit status is an error.
type Exec struct {
	path    string
	Timeout time.Duration
}

func NewExec(path string) *Exec {
	return &Exec{path: path, Timeout: DefaultExecTimeout}
}

func (e *Exec) Name() string { return e.path }

func (e *Exec) Destination(ctx context.Context, path string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s timed out after %s", ErrScript, e.path, timeout)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%w: %s: %w: %s", ErrScript, e.path, err, detail)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrScript, e.path, err)
	}

	scanner := bufio.NewScanner(&stdout)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", nil
}
