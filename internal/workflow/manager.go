package workflow

import (
	"context"
	"log/slog"
	"slices"

	"filesorter/internal/config"
	"filesorter/internal/history"
	"filesorter/internal/logging"
	"filesorter/internal/organizer"
	"filesorter/internal/script"
)

// Manager runs organize passes for configured roots.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	history  *history.Store
	origin   string
	openHook func(path string) (script.Hook, error)
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithHistory records every run in store.
func WithHistory(store *history.Store) ManagerOption {
	return func(m *Manager) { m.history = store }
}

// WithOrigin labels recorded runs, e.g. history.OriginDaemon.
func WithOrigin(origin string) ManagerOption {
	return func(m *Manager) { m.origin = origin }
}

// WithScriptOpener replaces how script hooks are loaded.
func WithScriptOpener(open func(path string) (script.Hook, error)) ManagerOption {
	return func(m *Manager) { m.openHook = open }
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "workflow"),
		origin: history.OriginSort,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunOnce loads rules for root and performs one organize run.
func (m *Manager) RunOnce(ctx context.Context, root string) (*organizer.RunReport, error) {
	src, err := m.LoadRules(ctx, root)
	if err != nil {
		return nil, err
	}
	return m.Run(ctx, root, src)
}

// Run performs one organize run with an already loaded rule source.
func (m *Manager) Run(ctx context.Context, root string, src *RuleSource) (*organizer.RunReport, error) {
	runner := organizer.NewRunner(organizer.Options{
		Recursive:          m.cfg.Organize.Recursive,
		Exclude:            slices.Concat(m.cfg.Organize.Exclude, src.Exclusions()),
		MaxCollisionProbes: m.cfg.Organize.MaxCollisionProbes,
	}, m.logger)

	report, err := runner.Run(ctx, root, src.Set)
	if err != nil {
		return report, err
	}
	m.record(ctx, report)
	return report, nil
}

func (m *Manager) record(ctx context.Context, report *organizer.RunReport) {
	if m.history == nil || !m.cfg.History.Enabled {
		return
	}
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(logging.WithRunID(ctx, report.ID), m.logger)
	if err := m.history.Record(ctx, report, m.origin); err != nil {
		logging.WarnWithContext(logger, "run history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that state_dir is writable"),
			logging.String(logging.FieldImpact, "run missing from filesorter history"),
		)
		return
	}
	if removed, err := m.history.Prune(ctx, m.cfg.History.RetentionRuns); err != nil {
		logging.WarnWithContext(logger, "history pruning failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history database keeps growing"),
		)
	} else if removed > 0 {
		logger.Debug("history pruned", logging.Int64("removed", removed))
	}
}
