// Package scheduler repeats a run function at a fixed interval with at most
// one run active at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"filesorter/internal/logging"
)

// MinInterval is the shortest accepted interval.
const MinInterval = time.Second

var (
	ErrInterval       = errors.New("scheduler interval below one second")
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrStopped        = errors.New("scheduler stopped")
)

// State is the lifecycle position of a Scheduler.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// RunFunc performs one unit of scheduled work.
type RunFunc func(ctx context.Context) error

// Status is a snapshot of scheduler progress.
type Status struct {
	State        State
	Interval     time.Duration
	Runs         int
	SkippedTicks int
	LastError    string
	LastRun      time.Time
}

// Scheduler invokes a RunFunc immediately on Start and then on every tick.
// Runs execute on the scheduler goroutine, so ticks that arrive while a run
// is in progress are dropped and counted instead of queued.
type Scheduler struct {
	interval  time.Duration
	run       RunFunc
	logger    *slog.Logger
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu      sync.RWMutex
	state   State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	runs    int
	skipped int
	lastErr error
	lastRun time.Time
}

// New validates interval and returns an idle scheduler.
func New(interval time.Duration, run RunFunc, logger *slog.Logger) (*Scheduler, error) {
	if interval < MinInterval {
		return nil, fmt.Errorf("%w: %s", ErrInterval, interval)
	}
	if run == nil {
		return nil, errors.New("scheduler run function is nil")
	}
	return &Scheduler{
		interval:  interval,
		run:       run,
		logger:    logging.NewComponentLogger(logger, "scheduler"),
		newTicker: systemTicker,
		state:     StateIdle,
		done:      make(chan struct{}),
	}, nil
}

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Start launches the loop in the background. It fails when the scheduler was
// already started or has been stopped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.started = true
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(loopCtx)
	return nil
}

// Stop cancels the loop and waits for the current run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	if !s.started {
		s.state = StateStopped
		close(s.done)
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.done
}

// Done is closed once the scheduler reaches the stopped state.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Status returns the latest scheduler diagnostics.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		State:        s.state,
		Interval:     s.interval,
		Runs:         s.runs,
		SkippedTicks: s.skipped,
		LastRun:      s.lastRun,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Scheduler) loop(ctx context.Context) {
	ticks, stopTicker := s.newTicker(s.interval)
	defer func() {
		stopTicker()
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		close(s.done)
	}()

	s.execute(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticks:
			s.mu.RLock()
			stale := tick.Before(s.lastRun)
			s.mu.RUnlock()
			if stale {
				continue
			}
			s.execute(ctx)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.setState(StateRunning)
	started := time.Now()
	err := s.run(ctx)
	finished := time.Now()
	missed := int(finished.Sub(started) / s.interval)

	s.mu.Lock()
	s.runs++
	s.lastErr = err
	s.lastRun = finished
	s.skipped += missed
	if s.state == StateRunning {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if missed > 0 {
		s.logger.Debug("ticks skipped while run in progress",
			logging.String(logging.FieldEventType, "ticks_skipped"),
			logging.Int("count", missed),
		)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(s.logger, "scheduled run failed", "scheduled_run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the next tick retries automatically"),
			logging.String(logging.FieldImpact, "directory left unsorted until the next run"),
		)
	}
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
