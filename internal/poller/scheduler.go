package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultInterval  = 30 * time.Minute
	defaultStopGrace = 3 * time.Second
)

var (
	// ErrAlreadyStarted is returned by Start on a running or paused scheduler.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrSchedulerClosed is returned by Start after Stop.
	ErrSchedulerClosed = errors.New("scheduler stopped and cannot be restarted")

	// ErrNotRunning is returned by Pause and Resume when the scheduler is stopped.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrStopGraceExceeded is returned by Stop when the loop did not exit
	// within the stop grace period.
	ErrStopGraceExceeded = errors.New("scheduler loop did not exit within the stop grace period")
)

// State is the lifecycle state of a [Scheduler].
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// SchedulerConfig configures a [Scheduler].
type SchedulerConfig struct {
	// Loader supplies the batch for each cycle. Required.
	Loader Loader

	// Prober executes requests. Required.
	Prober Prober

	// Interval is the sleep between the end of one cycle and the next
	// reload. Defaults to 30m.
	Interval time.Duration

	// CycleDeadline bounds how long a cycle waits for outcomes. Defaults to 1m.
	CycleDeadline time.Duration

	// StopGrace bounds how long Stop waits for the loop to exit. Defaults to 3s.
	StopGrace time.Duration

	// Logger for scheduler events. Defaults to slog.Default().
	Logger *slog.Logger

	// OnOutcome is called for every collected outcome.
	OnOutcome func(Outcome)

	// OnCycle is called after every cycle with its report.
	OnCycle func(CycleReport)
}

// Scheduler drives the probing cadence.
//
// The loop is: wait on the gate, reload the batch, run the cycle, sleep for
// the interval. Each of the three waits returns early when Stop is called.
// Only one cycle runs at a time; the loop's own sequencing enforces it.
//
// All lifecycle methods are safe for concurrent use.
type Scheduler struct {
	loader    Loader
	runner    *CycleRunner
	interval  time.Duration
	stopGrace time.Duration
	logger    *slog.Logger
	onCycle   func(CycleReport)
	gate      *Gate

	mu      sync.Mutex
	state   State
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler creates a stopped [Scheduler].
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	return &Scheduler{
		loader:    cfg.Loader,
		runner:    NewCycleRunner(cfg.Prober, cfg.CycleDeadline, logger, cfg.OnOutcome),
		interval:  cfg.Interval,
		stopGrace: cfg.StopGrace,
		logger:    logger,
		onCycle:   cfg.OnCycle,
		gate:      NewGate(),
		state:     StateStopped,
		done:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns a channel closed when the loop has exited.
// It is never closed if the scheduler was never started.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Start moves the scheduler from stopped to running and launches the loop
// on its own goroutine. Cancelling ctx ends the loop as Stop does, and the
// state becomes stopped once the loop has exited.
//
// If ctx is nil, context.Background() is used.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	s.state = StateRunning

	s.logger.Info("scheduler starting",
		"interval", s.interval.String(),
		"cycle_deadline", s.runner.Deadline().String(),
	)

	go s.loop(runCtx)
	return nil
}

// Pause closes the gate so no new cycle starts. A cycle already in flight
// is not interrupted. Pausing a paused scheduler is a no-op.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning:
		s.gate.Close()
		s.state = StatePaused
		s.logger.Info("scheduler paused")
		return nil
	case StatePaused:
		return nil
	default:
		return ErrNotRunning
	}
}

// Resume opens the gate. Resuming a running scheduler is a no-op.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePaused:
		s.gate.Open()
		s.state = StateRunning
		s.logger.Info("scheduler resumed")
		return nil
	case StateRunning:
		return nil
	default:
		return ErrNotRunning
	}
}

// Stop cancels the loop and waits up to the stop grace period for it to
// exit. It returns [ErrStopGraceExceeded] if the loop was still running when
// the grace period ended; the loop still exits at its next suspension point.
//
// Stop is idempotent. Calling Stop before Start is a no-op that also
// prevents any later Start.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.state = StateStopped
	started := s.started
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if !started {
		return nil
	}

	s.logger.Info("scheduler stopping", "grace", s.stopGrace.String())

	timer := time.NewTimer(s.stopGrace)
	defer timer.Stop()

	select {
	case <-s.done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-timer.C:
		s.logger.Warn("scheduler stop grace period exceeded", "grace", s.stopGrace.String())
		return ErrStopGraceExceeded
	}
}

// loop is the single cadence loop. It exits when ctx is cancelled.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	defer func() {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		s.logger.Debug("scheduler loop exited")
	}()

	for {
		if s.gate.Wait(ctx) != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		batch, err := s.loader(ctx)
		if err != nil {
			s.logger.Warn("failed to load targets, skipping cycle", "error", err.Error())
			batch = Batch{}
		}

		report := s.runner.RunCycle(ctx, batch)
		s.logger.Info("cycle finished",
			"cycle_id", report.ID,
			"targets", report.Targets,
			"collected", len(report.Outcomes),
			"outstanding", report.Outstanding,
			"duration_ms", report.Duration.Milliseconds(),
		)
		if s.onCycle != nil {
			s.onCycle(report)
		}

		s.logger.Info("sleeping until next cycle", "interval", s.interval.String())
		if !sleep(ctx, s.interval) {
			return
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
