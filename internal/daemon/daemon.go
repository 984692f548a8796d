package daemon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"filesorter/internal/config"
	"filesorter/internal/logging"
	"filesorter/internal/scheduler"
	"filesorter/internal/workflow"
)

// ErrAlreadyRunning reports that another process holds the root lock.
var ErrAlreadyRunning = errors.New("another filesorter daemon is already running for this directory")

// Daemon coordinates the scheduler for one root and enforces single-instance
// execution per root.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	workflow *workflow.Manager
	root     string
	interval time.Duration

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	sched   *scheduler.Scheduler
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool             `json:"running"`
	Root         string           `json:"root"`
	LockFilePath string           `json:"lock_file"`
	Scheduler    scheduler.Status `json:"scheduler"`
}

// New constructs a daemon for root. A zero interval uses the configured one.
func New(cfg *config.Config, wf *workflow.Manager, root string, interval time.Duration, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || wf == nil {
		return nil, errors.New("daemon requires config and workflow manager")
	}
	if root == "" {
		return nil, errors.New("daemon requires a root directory")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if interval <= 0 {
		interval = time.Duration(cfg.Daemon.IntervalSeconds) * time.Second
	}
	if interval < scheduler.MinInterval {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrInterval, interval)
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "daemon-"+InstanceKey(abs)+".lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon").With(logging.String(logging.FieldRoot, abs)),
		workflow: wf,
		root:     abs,
		interval: interval,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// InstanceKey derives a stable file-name-safe key from an absolute root.
func InstanceKey(root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(sum[:8])
}

// Start acquires the root lock and launches the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, d.root)
	}

	run, err := d.runFunc(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return err
	}
	sched, err := scheduler.New(d.interval, run, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		return err
	}
	if err := sched.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start scheduler: %w", err)
	}

	d.sched = sched
	d.running.Store(true)
	d.logger.Info("filesorter daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Duration("interval", d.interval),
		logging.Bool("reload_rules", d.cfg.Daemon.ReloadRules),
	)
	return nil
}

// runFunc returns the scheduled work. Rules are read on every tick when
// reload_rules is set and once here otherwise.
func (d *Daemon) runFunc(ctx context.Context) (scheduler.RunFunc, error) {
	if d.cfg.Daemon.ReloadRules {
		return func(ctx context.Context) error {
			_, err := d.workflow.RunOnce(ctx, d.root)
			return err
		}, nil
	}
	src, err := d.workflow.LoadRules(ctx, d.root)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return func(ctx context.Context) error {
		_, err := d.workflow.Run(ctx, d.root, src)
		return err
	}, nil
}

// Stop stops the scheduler, waiting for an active run to finish its current
// file, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	d.sched.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("filesorter daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
		logging.Int("runs", d.sched.Status().Runs),
	)
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()
	<-ctx.Done()
	return nil
}

// LockPath returns the lock file guarding the root.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	sched := d.sched
	d.mu.Unlock()
	st := Status{
		Running:      d.running.Load(),
		Root:         d.root,
		LockFilePath: d.lockPath,
	}
	if sched != nil {
		st.Scheduler = sched.Status()
	}
	return st
}
