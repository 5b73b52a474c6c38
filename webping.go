package webping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/webping/internal/poller"
)

const (
	defaultInterval       = 30 * time.Minute
	defaultRequestTimeout = 100 * time.Second
	defaultCycleDeadline  = time.Minute
	defaultStopGrace      = 3 * time.Second
)

var (
	// ErrAlreadyStarted is returned by Start on a running or paused service.
	ErrAlreadyStarted = poller.ErrAlreadyStarted

	// ErrServiceStopped is returned by Start after Stop. A Service cannot
	// be restarted; create a new one.
	ErrServiceStopped = poller.ErrSchedulerClosed

	// ErrNotRunning is returned by Pause and Resume on a stopped service.
	ErrNotRunning = poller.ErrNotRunning

	// ErrStopGraceExceeded is returned by Stop when the probing loop did
	// not exit within the stop grace period.
	ErrStopGraceExceeded = poller.ErrStopGraceExceeded
)

// State is the lifecycle state of a [Service].
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// TargetLoader supplies the [TargetSet] for each cycle.
//
// LoadTargets is called once per cycle, after the pause gate and before any
// probe starts. An error is logged and the cycle runs with no targets.
type TargetLoader interface {
	LoadTargets(ctx context.Context) (TargetSet, error)
}

// TargetLoaderFunc adapts a function to [TargetLoader].
type TargetLoaderFunc func(ctx context.Context) (TargetSet, error)

// LoadTargets calls f(ctx).
func (f TargetLoaderFunc) LoadTargets(ctx context.Context) (TargetSet, error) {
	return f(ctx)
}

// StaticTargets returns a [TargetLoader] that serves the same set every cycle.
func StaticTargets(set TargetSet) TargetLoader {
	return TargetLoaderFunc(func(context.Context) (TargetSet, error) {
		return set, nil
	})
}

// Service is the long-running prober and its lifecycle controller.
//
// A Service probes every target of its [TargetSet] concurrently once per
// interval. It is created stopped with [New] and driven by [Service.Start],
// [Service.Pause], [Service.Resume] and [Service.Stop], or by control events
// through [Service.Handle].
//
// The typical lifecycle is:
//
//	svc, err := webping.New(webping.WithTargetLoader(loader))
//	if err != nil {
//	    slog.Error("failed to create service", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	svc.Run(ctx) // blocks until ctx is cancelled, then stops
//
// A Service cannot be restarted after Stop.
type Service struct {
	interval         time.Duration
	requestTimeout   time.Duration
	cycleDeadline    time.Duration
	stopGrace        time.Duration
	logger           *slog.Logger
	loader           TargetLoader
	outcomeCallbacks []func(ProbeOutcome)
	clientConfig     poller.ClientConfig

	mu        sync.Mutex
	scheduler *poller.Scheduler
	stopped   bool
	done      chan struct{}
	doneOnce  sync.Once
}

// New creates a stopped [Service] with the given options.
//
// A target loader must be configured via [WithTargetLoader]. Other options
// have defaults:
//   - Interval: 30 minutes
//   - Request timeout: 100 seconds
//   - Cycle deadline: 1 minute
//   - Stop grace: 3 seconds
//
// Returns an error if no loader is configured or if any option is invalid.
func New(opts ...Option) (*Service, error) {
	cfg := &svcConfig{
		interval:       defaultInterval,
		requestTimeout: defaultRequestTimeout,
		cycleDeadline:  defaultCycleDeadline,
		stopGrace:      defaultStopGrace,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.loader == nil {
		return nil, errors.New("a target loader is required")
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		interval:         cfg.interval,
		requestTimeout:   cfg.requestTimeout,
		cycleDeadline:    cfg.cycleDeadline,
		stopGrace:        cfg.stopGrace,
		logger:           logger,
		loader:           cfg.loader,
		outcomeCallbacks: cfg.outcomeCallbacks,
		clientConfig: poller.ClientConfig{
			Timeout:       cfg.requestTimeout,
			AllowInsecure: cfg.allowInsecure,
			RootCAs:       cfg.rootCAs,
			Logger:        logger.With("component", "client"),
		},
		done: make(chan struct{}),
	}, nil
}

// Interval returns the configured interval between cycles.
func (s *Service) Interval() time.Duration {
	return s.interval
}

// RequestTimeout returns the configured per-request timeout.
func (s *Service) RequestTimeout() time.Duration {
	return s.requestTimeout
}

// CycleDeadline returns the configured cycle deadline.
func (s *Service) CycleDeadline() time.Duration {
	return s.cycleDeadline
}

// StopGrace returns the configured stop grace period.
func (s *Service) StopGrace() time.Duration {
	return s.stopGrace
}

// Start creates the shared HTTP client and launches the probing loop on its
// own goroutine. The first cycle starts immediately.
//
// Cancelling ctx ends the loop as Stop does. Start does not block.
//
// Returns [ErrAlreadyStarted] if the service is running or paused and
// [ErrServiceStopped] after Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrServiceStopped
	}
	if s.scheduler != nil {
		return ErrAlreadyStarted
	}

	client := poller.NewClient(s.clientConfig)
	scheduler := poller.NewScheduler(poller.SchedulerConfig{
		Loader:        s.loadBatch,
		Prober:        client,
		Interval:      s.interval,
		CycleDeadline: s.cycleDeadline,
		StopGrace:     s.stopGrace,
		Logger:        s.logger,
		OnOutcome:     s.dispatch,
	})
	if err := scheduler.Start(ctx); err != nil {
		client.Close()
		return fmt.Errorf("starting scheduler: %w", err)
	}
	s.scheduler = scheduler

	s.logger.Info("webping started",
		"interval", s.interval.String(),
		"request_timeout", s.requestTimeout.String(),
		"cycle_deadline", s.cycleDeadline.String(),
	)

	// the client outlives Stop when the grace period is exceeded, so it is
	// released only once the loop has actually exited
	go func() {
		<-scheduler.Done()
		client.Close()
		s.logger.Info("webping stopped")
		s.closeDone()
	}()

	return nil
}

// Pause blocks the next cycle from starting. A cycle already in flight
// runs to completion. Pausing a paused service is a no-op.
//
// Returns [ErrNotRunning] if the service is stopped.
func (s *Service) Pause() error {
	scheduler := s.current()
	if scheduler == nil {
		return ErrNotRunning
	}
	return scheduler.Pause()
}

// Resume releases a paused service. Resuming a running service is a no-op.
//
// Returns [ErrNotRunning] if the service is stopped.
func (s *Service) Resume() error {
	scheduler := s.current()
	if scheduler == nil {
		return ErrNotRunning
	}
	return scheduler.Resume()
}

// Stop cancels the probing loop and waits up to the stop grace period for
// it to exit. Probes in flight observe the cancellation and are recorded
// as cancelled.
//
// Stop is idempotent. Stopping a service that was never started marks it
// stopped so it cannot be started later. Returns [ErrStopGraceExceeded] if
// the loop was still running when the grace period ended.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	scheduler := s.scheduler
	s.mu.Unlock()

	if scheduler == nil {
		s.closeDone()
		return nil
	}
	return scheduler.Stop()
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil || s.stopped {
		return StateStopped
	}
	return State(s.scheduler.State())
}

// Done returns a channel that is closed once the service has stopped and
// released its HTTP client.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Run starts the service and blocks until ctx is cancelled or the loop
// exits, then stops it.
//
// Returns nil on graceful shutdown, or the error from Start or Stop.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-s.Done():
	}

	if err := s.Stop(); err != nil {
		return err
	}
	<-s.Done()
	return nil
}

func (s *Service) current() *poller.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	return s.scheduler
}

func (s *Service) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// loadBatch converts the loader's TargetSet into the poller's format.
func (s *Service) loadBatch(ctx context.Context) (poller.Batch, error) {
	set, err := s.loader.LoadTargets(ctx)
	if err != nil {
		return poller.Batch{}, err
	}

	reqs := make([]poller.Request, len(set.targets))
	for i, t := range set.targets {
		reqs[i] = poller.Request{
			Method: t.Method().String(),
			URL:    t.URL(),
		}
	}

	return poller.Batch{
		Requests: reqs,
		Headers:  copyMap(set.headers),
	}, nil
}

// dispatch hands a collected outcome to every registered callback.
func (s *Service) dispatch(o poller.Outcome) {
	if len(s.outcomeCallbacks) == 0 {
		return
	}
	public := pollerOutcomeToPublic(o)
	for _, cb := range s.outcomeCallbacks {
		invokeCallbackSafe(cb, public, s.logger)
	}
}

// pollerOutcomeToPublic converts an internal poller outcome to the public
// API type. The request came from a validated Target, so it is rebuilt
// without validation.
func pollerOutcomeToPublic(o poller.Outcome) ProbeOutcome {
	return ProbeOutcome{
		Target:     Target{method: Method(o.Request.Method), url: o.Request.URL},
		Status:     pollerStatusToPublic(o.Status),
		StatusCode: o.StatusCode,
		Reason:     o.Reason,
		Error:      o.Error,
		Latency:    o.Latency,
		CheckedAt:  o.CheckedAt,
		CycleID:    o.CycleID,
	}
}

func pollerStatusToPublic(st poller.Status) OutcomeStatus {
	switch st {
	case poller.StatusCompleted:
		return StatusCompleted
	case poller.StatusCancelled:
		return StatusCancelled
	case poller.StatusTimedOut:
		return StatusTimedOut
	default:
		return StatusFailed
	}
}

// invokeCallbackSafe calls an outcome callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(ProbeOutcome), outcome ProbeOutcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outcome callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"target", outcome.Target.String(),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(outcome)
}
