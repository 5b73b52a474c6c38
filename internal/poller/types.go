package poller

import (
	"context"
	"fmt"
	"time"
)

// Request is the poller-internal representation of a probe target.
//
// It is decoupled from webping.Target to avoid circular dependencies; the
// root package validates targets before converting them.
type Request struct {
	// Method is the HTTP method. Empty defaults to GET.
	Method string

	// URL is the absolute http or https URL to probe.
	URL string
}

// String renders the request as "<METHOD> <URL>".
func (r Request) String() string {
	method := r.Method
	if method == "" {
		method = "GET"
	}
	return method + " " + r.URL
}

// Batch is the snapshot of targets and default headers for one cycle.
type Batch struct {
	// Requests are probed concurrently, one goroutine each.
	Requests []Request

	// Headers are applied to every request of the cycle.
	Headers map[string]string
}

// Loader returns the batch for the next cycle. It is called once per cycle.
type Loader func(ctx context.Context) (Batch, error)

// Status classifies how a probe ended.
type Status int

const (
	// StatusCompleted means an HTTP response was received, whatever its code.
	StatusCompleted Status = iota

	// StatusFailed means a transport error prevented a response.
	StatusFailed

	// StatusCancelled means the run context was cancelled mid-request.
	StatusCancelled

	// StatusTimedOut means the client-level request timeout elapsed.
	StatusTimedOut
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	case StatusTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome holds the result of probing a single request.
type Outcome struct {
	// Request is the probed target.
	Request Request

	// Status is the classification of the probe.
	Status Status

	// StatusCode is the HTTP status code. Zero if no response was received.
	StatusCode int

	// Reason is the HTTP reason phrase, e.g. "Not Found".
	Reason string

	// Error is the transport error for failed, timed out or cancelled probes.
	Error error

	// Latency is the time from request start to body drained or failure.
	Latency time.Duration

	// CheckedAt is when the probe started.
	CheckedAt time.Time

	// CycleID identifies the cycle that launched the probe.
	CycleID string
}

// Prober executes one request. [Client] is the production implementation.
type Prober interface {
	Probe(ctx context.Context, req Request, headers map[string]string) Outcome
}
