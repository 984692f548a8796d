package organizer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"filesorter/internal/logging"
	"filesorter/internal/rules"
)

// Options configures a Runner.
type Options struct {
	Recursive          bool
	Exclude            []string
	MaxCollisionProbes int
}

// Runner performs organize runs: scan, resolve, and move, one file at a time.
type Runner struct {
	logger   *slog.Logger
	scanner  *Scanner
	resolver *rules.Resolver
	mover    *Mover
	now      func() time.Time
}

func NewRunner(opts Options, logger *slog.Logger) *Runner {
	return &Runner{
		logger:   logging.NewComponentLogger(logger, "organizer"),
		scanner:  NewScanner(ScanOptions{Recursive: opts.Recursive, Exclude: opts.Exclude}),
		resolver: rules.NewResolver(logger),
		mover:    NewMover(opts.MaxCollisionProbes, logger),
		now:      time.Now,
	}
}

// Run organizes root according to set. The returned error is non-nil only
// when root cannot be enumerated. When ctx is cancelled the run stops before
// the next file and the partial report is returned with Cancelled set.
func (r *Runner) Run(ctx context.Context, root string, set *rules.RuleSet) (*RunReport, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, Wrap(ErrIO, "resolve root", root, err)
	}
	report := &RunReport{ID: uuid.NewString(), Root: absRoot, StartedAt: r.now()}
	ctx = logging.WithRunID(ctx, report.ID)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldRoot, absRoot))

	candidates, err := r.scanner.Scan(absRoot, set)
	if err != nil {
		report.FinishedAt = r.now()
		logging.ErrorWithContext(logger, "cannot read root directory", "scan_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the directory exists and is readable"),
		)
		return report, classify("read root", absRoot, err)
	}

	for file, scanErr := range candidates {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if scanErr != nil {
			r.record(logger, report, failed(file.Path, scanErr))
			continue
		}

		destination, ok := r.resolver.Resolve(ctx, file, set)
		if !ok {
			if ctx.Err() != nil {
				report.Cancelled = true
				break
			}
			r.record(logger, report, skipped(file.Path, ReasonNoRuleMatched))
			continue
		}
		r.record(logger, report, r.mover.Move(ctx, file, destination, absRoot))
	}

	report.FinishedAt = r.now()
	logger.Info("organize run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Int("moved", report.Moved),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Bool("cancelled", report.Cancelled),
		logging.Duration("duration", report.Duration()),
	)
	return report, nil
}

func (r *Runner) record(logger *slog.Logger, report *RunReport, outcome Outcome) {
	report.record(outcome)
	switch outcome.Status {
	case StatusMoved:
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "file_moved"),
			logging.String(logging.FieldSource, outcome.Source),
			logging.String(logging.FieldTarget, outcome.Destination),
		}
		if outcome.Warning != "" {
			attrs = append(attrs, logging.String("warning", outcome.Warning))
		}
		logger.Info("file moved", logging.Args(attrs...)...)
	case StatusSkipped:
		logger.Debug("file skipped",
			logging.String(logging.FieldEventType, "file_skipped"),
			logging.String(logging.FieldSource, outcome.Source),
			logging.String("reason", string(outcome.Reason)),
		)
	case StatusFailed:
		logging.WarnWithContext(logger, "file not moved", "file_failed",
			logging.String(logging.FieldSource, outcome.Source),
			logging.String(logging.FieldKind, string(outcome.Kind)),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, hintFor(outcome.Kind)),
		)
	}
}

func hintFor(kind Kind) string {
	switch kind {
	case KindNotFound:
		return "file disappeared before it could be moved"
	case KindDestinationConflict:
		return "remove or rename the file occupying the destination folder name"
	case KindCollisionExhausted:
		return "clean up duplicate names in the destination or raise max_collision_probes"
	case KindPermissionDenied:
		return "check ownership and permissions of the source and destination"
	default:
		return "check disk space and filesystem health"
	}
}
