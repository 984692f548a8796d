// Package daemonrun assembles the filesorter daemon process: signal
// handling, session log files, pid file, history store, and the daemon
// lifecycle.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"filesorter/internal/config"
	"filesorter/internal/daemon"
	"filesorter/internal/history"
	"filesorter/internal/logging"
	"filesorter/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	Root        string
	Interval    time.Duration
	LogLevel    string
	Development bool
}

// Run starts the filesorter daemon and blocks until SIGINT, SIGTERM, or
// cancellation of cmdCtx.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if strings.TrimSpace(opts.Root) == "" {
		return errors.New("root directory is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	stamp := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("filesorter-%s.log", stamp))

	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	fileHandler, err := logging.NewHandler(logging.Options{
		Level:       level,
		Format:      "json",
		OutputPaths: []string{logPath},
		Development: opts.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to open session log: %v\n", err)
	} else {
		logger = logging.TeeLogger(logger, fileHandler)
		if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to update filesorter.log link: %v\n", err)
		}
	}

	sessionID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))
	logger.Info("filesorter daemon session",
		logging.String(logging.FieldEventType, "daemon_session"),
		logging.String(logging.FieldRoot, root),
		logging.String("log_path", logPath),
	)

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "filesorter-*.log", Keep: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.StateDir, "daemon-"+daemon.InstanceKey(root)+".pid")

	mgrOpts := []workflow.ManagerOption{workflow.WithOrigin(history.OriginDaemon)}
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.ErrorWithContext(logger, "open history store failed", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that state_dir is writable"),
			)
			return err
		}
		defer store.Close()
		mgrOpts = append(mgrOpts, workflow.WithHistory(store))
	}
	manager := workflow.NewManager(cfg, logger, mgrOpts...)

	d, err := daemon.New(cfg, manager, root, opts.Interval, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	<-signalCtx.Done()
	logger.Info("filesorter daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "filesorter.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
