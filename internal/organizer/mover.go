package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"filesorter/internal/fileutil"
	"filesorter/internal/logging"
	"filesorter/internal/rules"
)

// DefaultMaxProbes is the number of "name (n).ext" variants tried before a
// collision is reported as exhausted.
const DefaultMaxProbes = 1000

// Mover relocates files into destination folders without overwriting.
type Mover struct {
	maxProbes     int
	logger        *slog.Logger
	rename        func(oldpath, newpath string) error
	remove        func(name string) error
	removeRetries uint64
	removeBackoff time.Duration
}

// NewMover returns a Mover that probes at most maxProbes alternative names.
func NewMover(maxProbes int, logger *slog.Logger) *Mover {
	if maxProbes < 1 {
		maxProbes = DefaultMaxProbes
	}
	return &Mover{
		maxProbes:     maxProbes,
		logger:        logging.NewComponentLogger(logger, "mover"),
		rename:        os.Rename,
		remove:        os.Remove,
		removeRetries: 4,
		removeBackoff: 100 * time.Millisecond,
	}
}

// Move places file into root/destination. Cancellation of ctx never
// interrupts a move that has started.
func (m *Mover) Move(ctx context.Context, file rules.CandidateFile, destination, root string) Outcome {
	targetDir := filepath.Join(root, destination)

	info, err := os.Stat(targetDir)
	switch {
	case err == nil && !info.IsDir():
		return failed(file.Path, Wrap(ErrDestinationConflict, "destination is not a directory", targetDir, nil))
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(targetDir, 0o755); err != nil {
			return failed(file.Path, classify("create destination", targetDir, err))
		}
	default:
		return failed(file.Path, classify("inspect destination", targetDir, err))
	}

	if sameDir(filepath.Dir(file.Path), targetDir) {
		return skipped(file.Path, ReasonAlreadyInDestination)
	}

	if _, err := os.Lstat(file.Path); err != nil {
		return failed(file.Path, classify("inspect source", file.Path, err))
	}

	for n := 0; n <= m.maxProbes; n++ {
		target := filepath.Join(targetDir, probeName(file.Name, n))
		if _, err := os.Lstat(target); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return failed(file.Path, classify("inspect target", target, err))
		}

		outcome, taken := m.relocate(ctx, file.Path, target)
		if taken {
			continue
		}
		return outcome
	}
	return failed(file.Path, Wrap(ErrCollisionExhausted,
		fmt.Sprintf("no free name after %d probes", m.maxProbes), filepath.Join(targetDir, file.Name), nil))
}

// relocate moves source to target. taken reports that target appeared
// between the existence check and the copy, so the caller should probe on.
func (m *Mover) relocate(ctx context.Context, source, target string) (Outcome, bool) {
	err := m.rename(source, target)
	if err == nil {
		return moved(source, target), false
	}
	if !errors.Is(err, errCrossDevice) {
		return failed(source, classify("rename", source, err)), false
	}

	if err := fileutil.CopyExclusive(source, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Outcome{}, true
		}
		return failed(source, classify("copy across devices", target, err)), false
	}

	outcome := moved(source, target)
	if err := m.removeSource(ctx, source); err != nil {
		outcome.Warning = fmt.Sprintf("copied to %s but source could not be removed: %v", target, err)
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "source left behind after copy", "source_remove_failed",
			logging.String(logging.FieldSource, source),
			logging.String(logging.FieldTarget, target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the source by hand once the copy is confirmed"),
			logging.String(logging.FieldImpact, "file now exists in two places"),
		)
	}
	return outcome, false
}

func (m *Mover) removeSource(ctx context.Context, source string) error {
	ctx = context.WithoutCancel(ctx)
	backoff := retry.WithMaxRetries(m.removeRetries, retry.NewFibonacci(m.removeBackoff))
	return retry.Do(ctx, backoff, func(context.Context) error {
		err := m.remove(source)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return retry.RetryableError(err)
	})
}

// probeName returns name for n == 0 and "stem (n).ext" otherwise.
func probeName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := rules.ExtensionOf(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func classify(operation, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(ErrNotFound, operation, path, err)
	case errors.Is(err, fs.ErrPermission):
		return Wrap(ErrPermissionDenied, operation, path, err)
	case isNotDir(err):
		return Wrap(ErrDestinationConflict, operation, path, err)
	default:
		return Wrap(ErrIO, operation, path, err)
	}
}
