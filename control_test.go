package webping

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseControlEvent(t *testing.T) {
	tests := []struct {
		in   string
		want ControlEvent
	}{
		{"start", EventStart},
		{"PAUSE", EventPause},
		{"continue", EventContinue},
		{"Resume", EventContinue},
		{" stop ", EventStop},
		{"interrupt", EventInterrupt},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseControlEvent(tt.in)
			if err != nil {
				t.Fatalf("ParseControlEvent(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseControlEvent(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseControlEvent("reload"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("ParseControlEvent(reload) error = %v, want ErrUnknownEvent", err)
	}
}

func TestControlEvent_String(t *testing.T) {
	tests := []struct {
		event ControlEvent
		want  string
	}{
		{EventPause, "pause"},
		{EventInterrupt, "interrupt"},
		{ControlEvent(99), "event(99)"},
	}
	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func newHandleService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(
		WithTargetLoader(emptyLoader),
		WithLogger(testLogger()),
		WithInterval(time.Hour),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func TestHandle_FullLifecycle(t *testing.T) {
	svc := newHandleService(t)
	ctx := context.Background()

	steps := []struct {
		event ControlEvent
		want  State
	}{
		{EventStart, StateRunning},
		{EventPause, StatePaused},
		{EventContinue, StateRunning},
		{EventStop, StateStopped},
	}
	for _, step := range steps {
		if err := svc.Handle(ctx, step.event); err != nil {
			t.Fatalf("Handle(%v) error = %v", step.event, err)
		}
		if got := svc.State(); got != step.want {
			t.Errorf("after %v State() = %v, want %v", step.event, got, step.want)
		}
	}

	select {
	case <-svc.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after EventStop")
	}
}

func TestHandle_InterruptStopsService(t *testing.T) {
	svc := newHandleService(t)

	if err := svc.Handle(context.Background(), EventStart); err != nil {
		t.Fatalf("Handle(start) error = %v", err)
	}
	if err := svc.Handle(context.Background(), EventInterrupt); err != nil {
		t.Fatalf("Handle(interrupt) error = %v", err)
	}

	if svc.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", svc.State())
	}
	if err := svc.Handle(context.Background(), EventStart); !errors.Is(err, ErrServiceStopped) {
		t.Errorf("Handle(start) after interrupt = %v, want ErrServiceStopped", err)
	}
}

func TestHandle_InvalidTransitions(t *testing.T) {
	svc, err := New(WithTargetLoader(emptyLoader), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		event ControlEvent
		want  error
	}{
		{EventPause, ErrNotRunning},
		{EventContinue, ErrNotRunning},
		{ControlEvent(42), ErrUnknownEvent},
	}
	for _, tt := range tests {
		if err := svc.Handle(context.Background(), tt.event); !errors.Is(err, tt.want) {
			t.Errorf("Handle(%v) = %v, want %v", tt.event, err, tt.want)
		}
	}
}
