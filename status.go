package webping

import "time"

// OutcomeStatus classifies how a probe ended.
//
// OutcomeStatus is a string type so it logs and serialises readably:
// [StatusCompleted], [StatusFailed], [StatusCancelled] or [StatusTimedOut].
type OutcomeStatus string

const (
	// StatusCompleted means an HTTP response was received. 4xx and 5xx
	// responses are completions too; only the log severity differs.
	StatusCompleted OutcomeStatus = "completed"

	// StatusFailed means a transport error, such as a refused connection
	// or a rejected certificate, prevented a response.
	StatusFailed OutcomeStatus = "failed"

	// StatusCancelled means the service was stopped while the request was
	// in flight.
	StatusCancelled OutcomeStatus = "cancelled"

	// StatusTimedOut means the per-request timeout elapsed.
	StatusTimedOut OutcomeStatus = "timed_out"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s OutcomeStatus) String() string {
	return string(s)
}

// ProbeOutcome holds the result of probing a single [Target] once.
//
// Exactly one outcome is produced per target per cycle unless the cycle
// deadline passes first. Outcomes are not retained across cycles.
type ProbeOutcome struct {
	// Target is the probed target.
	Target Target

	// Status is the classification of the probe.
	Status OutcomeStatus

	// StatusCode is the HTTP status code for completed probes.
	// Zero if no response was received.
	StatusCode int

	// Reason is the HTTP reason phrase for completed probes, e.g. "Not Found".
	Reason string

	// Error is set for failed, cancelled and timed out probes.
	Error error

	// Latency is the time taken to complete the HTTP request.
	Latency time.Duration

	// CheckedAt is the timestamp when the probe was started.
	CheckedAt time.Time

	// CycleID identifies the cycle the probe belonged to.
	CycleID string
}

// Success reports whether the probe completed with a 2xx status code.
func (o ProbeOutcome) Success() bool {
	return o.Status == StatusCompleted && o.StatusCode >= 200 && o.StatusCode < 300
}
