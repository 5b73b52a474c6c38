package feed

import (
	"sync"
	"time"

	"github.com/jpalmerr/webping"
)

// subscriberBuffer is the channel capacity of each subscription.
const subscriberBuffer = 100

// Event is the wire form of a probe outcome.
type Event struct {
	// CycleID identifies the cycle the probe belonged to.
	CycleID string `json:"cycle_id"`

	// Method is the HTTP method used.
	Method string `json:"method"`

	// URL is the probed URL.
	URL string `json:"url"`

	// Status is "completed", "failed", "cancelled" or "timed_out".
	Status string `json:"status"`

	// StatusCode and Reason are set for completed probes.
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason,omitempty"`

	// Success is true for completed probes with a 2xx status.
	Success bool `json:"success"`

	// LatencyMs is the request latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// CheckedAt is when the probe started.
	CheckedAt time.Time `json:"checked_at"`

	// Error is nil unless the probe did not complete.
	Error *string `json:"error"`
}

// FromOutcome converts a probe outcome to an [Event].
func FromOutcome(o webping.ProbeOutcome) Event {
	e := Event{
		CycleID:    o.CycleID,
		Method:     o.Target.Method().String(),
		URL:        o.Target.URL(),
		Status:     o.Status.String(),
		StatusCode: o.StatusCode,
		Reason:     o.Reason,
		Success:    o.Success(),
		LatencyMs:  o.Latency.Milliseconds(),
		CheckedAt:  o.CheckedAt,
	}
	if o.Error != nil {
		msg := o.Error.Error()
		e.Error = &msg
	}
	return e
}

// Feed is a publish-subscribe fan-out of [Event] values. It is safe for
// concurrent use.
type Feed struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// New creates an empty [Feed].
func New() *Feed {
	return &Feed{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Publish sends e to every current subscriber. A subscriber whose buffer is
// full misses e.
func (f *Feed) Publish(e Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers {
		select {
		case ch <- e:
		default:
			// subscriber is slow, drop the event
		}
	}
}

// PublishOutcome converts o and publishes it. Its signature matches
// [webping.WithOutcomeCallback].
func (f *Feed) PublishOutcome(o webping.ProbeOutcome) {
	f.Publish(FromOutcome(o))
}

// Subscribe creates a subscription. Caller must call [Feed.Unsubscribe]
// when done.
func (f *Feed) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (f *Feed) Unsubscribe(ch <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for subCh := range f.subscribers {
		if subCh == ch {
			delete(f.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}
