package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jpalmerr/webping/internal/poller"

const defaultCycleDeadline = time.Minute

// CycleReport summarises one cycle.
type CycleReport struct {
	// ID correlates the cycle's log lines and spans.
	ID string

	// StartedAt is when the cycle began.
	StartedAt time.Time

	// Duration is how long the runner waited for outcomes.
	Duration time.Duration

	// Targets is the number of requests in the batch.
	Targets int

	// Outcomes are the collected outcomes in completion order.
	Outcomes []Outcome

	// Outstanding is the number of probes still running when collection
	// stopped. len(Outcomes) + Outstanding == Targets.
	Outstanding int

	// DeadlineExceeded is set when the cycle deadline ended collection.
	DeadlineExceeded bool

	// Cancelled is set when the run context ended collection.
	Cancelled bool
}

// CycleRunner fans a [Batch] out into concurrent probes.
//
// Every request gets its own goroutine; there is no worker cap. RunCycle
// waits for all outcomes, the cycle deadline, or cancellation, whichever
// comes first. Probes still running after that are detached: they are not
// cancelled by the deadline, and their outcomes are dropped.
type CycleRunner struct {
	prober    Prober
	deadline  time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
	onOutcome func(Outcome)
}

// NewCycleRunner creates a [CycleRunner].
//
// onOutcome, if non-nil, is called from the collecting goroutine for every
// collected outcome, in completion order.
func NewCycleRunner(prober Prober, deadline time.Duration, logger *slog.Logger, onOutcome func(Outcome)) *CycleRunner {
	if deadline <= 0 {
		deadline = defaultCycleDeadline
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CycleRunner{
		prober:    prober,
		deadline:  deadline,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		onOutcome: onOutcome,
	}
}

// Deadline returns the cycle deadline.
func (r *CycleRunner) Deadline() time.Duration {
	return r.deadline
}

// RunCycle probes every request of batch concurrently and collects outcomes.
//
// An empty batch returns immediately with a warning. RunCycle never fails:
// every failure mode is captured in the returned report.
func (r *CycleRunner) RunCycle(ctx context.Context, batch Batch) CycleReport {
	report := CycleReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Targets:   len(batch.Requests),
	}
	logger := r.logger.With("cycle_id", report.ID)

	if report.Targets == 0 {
		logger.Warn("no targets configured, check the site list")
		return report
	}

	ctx, span := r.tracer.Start(ctx, "webping.cycle", trace.WithAttributes(
		attribute.String("webping.cycle.id", report.ID),
		attribute.Int("webping.cycle.targets", report.Targets),
	))
	defer span.End()

	logger.Info("invoking targets", "count", report.Targets)

	sink := newCycleSink(report.Targets)
	for _, req := range batch.Requests {
		logger.Info("probe started", "target", req.String())
		go r.probe(ctx, logger, report.ID, req, batch.Headers, sink)
	}

	timer := time.NewTimer(r.deadline)
	defer timer.Stop()

	report.Outcomes = make([]Outcome, 0, report.Targets)
	logger.Debug("waiting for outstanding probes", "deadline", r.deadline.String())

collect:
	for len(report.Outcomes) < report.Targets {
		select {
		case o := <-sink.ch:
			report.Outcomes = append(report.Outcomes, o)
			r.record(logger, o)
		case <-timer.C:
			report.DeadlineExceeded = true
			break collect
		case <-ctx.Done():
			report.Cancelled = true
			break collect
		}
	}

	// outcomes delivered before the sink closed still belong to this cycle
	for _, o := range sink.close() {
		report.Outcomes = append(report.Outcomes, o)
		r.record(logger, o)
	}

	report.Duration = time.Since(report.StartedAt)
	report.Outstanding = report.Targets - len(report.Outcomes)
	if report.Outstanding == 0 {
		report.DeadlineExceeded = false
		report.Cancelled = false
	}

	switch {
	case report.Cancelled:
		logger.Warn("cycle interrupted by cancellation", "outstanding", report.Outstanding)
	case report.DeadlineExceeded:
		logger.Warn("cycle deadline exceeded, detaching outstanding probes",
			"deadline", r.deadline.String(),
			"outstanding", report.Outstanding,
		)
	}

	span.SetAttributes(
		attribute.Int("webping.cycle.collected", len(report.Outcomes)),
		attribute.Int("webping.cycle.outstanding", report.Outstanding),
	)
	if report.Outstanding > 0 {
		span.SetStatus(codes.Error, "outstanding probes detached")
	}

	return report
}

// probe runs on its own goroutine and delivers one outcome to sink.
func (r *CycleRunner) probe(ctx context.Context, logger *slog.Logger, cycleID string, req Request, headers map[string]string, sink *cycleSink) {
	ctx, span := r.tracer.Start(ctx, "webping.probe", trace.WithAttributes(
		attribute.String("http.request.method", methodOrGet(req.Method)),
		attribute.String("url.full", req.URL),
	))

	o := r.safeProbe(ctx, logger, req, headers)
	o.CycleID = cycleID
	endProbeSpan(span, o)

	if !sink.deliver(o) {
		logger.Debug("detached probe finished",
			"target", req.String(),
			"status", o.Status.String(),
			"latency_ms", o.Latency.Milliseconds(),
		)
	}
}

// safeProbe calls the prober with panic recovery.
// A panic is logged with a correlation ID and recorded as a failed outcome.
func (r *CycleRunner) safeProbe(ctx context.Context, logger *slog.Logger, req Request, headers map[string]string) (o Outcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			correlationID := uuid.NewString()
			logger.Error("probe panic",
				"correlation_id", correlationID,
				"target", req.String(),
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
			)
			o = Outcome{
				Request:   req,
				Status:    StatusFailed,
				Error:     fmt.Errorf("probe panic (correlation_id: %s)", correlationID),
				CheckedAt: start,
				Latency:   time.Since(start),
			}
		}
	}()
	return r.prober.Probe(ctx, req, headers)
}

// record logs a collected outcome and hands it to the callback.
// 4xx and 5xx responses are still completions, only logged louder.
func (r *CycleRunner) record(logger *slog.Logger, o Outcome) {
	attrs := []any{
		"target", o.Request.String(),
		"status", o.Status.String(),
		"latency_ms", o.Latency.Milliseconds(),
	}

	switch o.Status {
	case StatusCompleted:
		attrs = append(attrs, "code", o.StatusCode, "reason", o.Reason)
		if o.StatusCode >= 200 && o.StatusCode < 300 {
			logger.Info("probe completed", attrs...)
		} else {
			logger.Warn("probe completed", attrs...)
		}
	case StatusCancelled:
		logger.Warn("probe cancelled", attrs...)
	default:
		if o.Error != nil {
			attrs = append(attrs, "error", o.Error.Error())
		}
		logger.Error("probe failed", attrs...)
	}

	if r.onOutcome != nil {
		r.onOutcome(o)
	}
}

func endProbeSpan(span trace.Span, o Outcome) {
	span.SetAttributes(attribute.String("webping.probe.status", o.Status.String()))
	if o.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", o.StatusCode))
	}
	if o.Error != nil {
		span.RecordError(o.Error)
		span.SetStatus(codes.Error, o.Status.String())
	}
	span.End()
}

func methodOrGet(method string) string {
	if method == "" {
		return "GET"
	}
	return method
}

// cycleSink receives outcomes until the cycle stops collecting.
type cycleSink struct {
	mu     sync.Mutex
	closed bool
	ch     chan Outcome
}

// newCycleSink buffers one slot per probe so delivery never blocks.
func newCycleSink(size int) *cycleSink {
	return &cycleSink{ch: make(chan Outcome, size)}
}

// deliver reports whether the outcome was accepted.
func (s *cycleSink) deliver(o Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ch <- o
	return true
}

// close stops accepting outcomes and returns those still buffered.
func (s *cycleSink) close() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	var pending []Outcome
	for {
		select {
		case o := <-s.ch:
			pending = append(pending, o)
		default:
			return pending
		}
	}
}
