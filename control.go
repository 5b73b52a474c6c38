package webping

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEvent is returned for control events the service does not handle.
var ErrUnknownEvent = errors.New("unknown control event")

// ControlEvent is an external request to change the service's state, such
// as a service-manager command or an interrupt signal.
type ControlEvent int

const (
	// EventStart starts the service.
	EventStart ControlEvent = iota + 1

	// EventPause pauses the service before its next cycle.
	EventPause

	// EventContinue resumes a paused service.
	EventContinue

	// EventStop stops the service.
	EventStop

	// EventInterrupt is an intercepted interrupt signal. It stops the
	// service gracefully instead of terminating the process.
	EventInterrupt
)

var eventNames = map[ControlEvent]string{
	EventStart:     "start",
	EventPause:     "pause",
	EventContinue:  "continue",
	EventStop:      "stop",
	EventInterrupt: "interrupt",
}

// String returns the lower-case event name.
func (e ControlEvent) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// ParseControlEvent parses an event name case-insensitively. "resume" is
// accepted for [EventContinue].
func ParseControlEvent(s string) (ControlEvent, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "resume" {
		return EventContinue, nil
	}
	for e, n := range eventNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// Handle applies a control event:
//
//	EventStart                 Start(ctx)
//	EventPause                 Pause()
//	EventContinue              Resume()
//	EventStop, EventInterrupt  Stop()
//
// ctx is only used by EventStart and bounds the service's lifetime.
func (s *Service) Handle(ctx context.Context, e ControlEvent) error {
	s.logger.Info("control event received", "event", e.String())

	switch e {
	case EventStart:
		return s.Start(ctx)
	case EventPause:
		return s.Pause()
	case EventContinue:
		return s.Resume()
	case EventStop, EventInterrupt:
		return s.Stop()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, e)
	}
}
