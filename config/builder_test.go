package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jpalmerr/webping"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildOptions_AppliesSettings(t *testing.T) {
	s, err := Parse([]byte(`
site_list: sites.txt
interval: 5m
request_timeout: 45s
wait_timeout: 90s
stop_grace: 2s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(s, testLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	svc, err := webping.New(opts...)
	if err != nil {
		t.Fatalf("webping.New() error = %v", err)
	}

	if svc.Interval() != 5*time.Minute {
		t.Errorf("Interval() = %v, want 5m", svc.Interval())
	}
	if svc.RequestTimeout() != 45*time.Second {
		t.Errorf("RequestTimeout() = %v, want 45s", svc.RequestTimeout())
	}
	if svc.CycleDeadline() != 90*time.Second {
		t.Errorf("CycleDeadline() = %v, want 90s", svc.CycleDeadline())
	}
	if svc.StopGrace() != 2*time.Second {
		t.Errorf("StopGrace() = %v, want 2s", svc.StopGrace())
	}
}

func TestBuildOptions_Defaults(t *testing.T) {
	opts, err := BuildOptions(Default(), testLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	svc, err := webping.New(opts...)
	if err != nil {
		t.Fatalf("webping.New() error = %v", err)
	}
	if svc.Interval() != 30*time.Minute {
		t.Errorf("Interval() = %v, want 30m", svc.Interval())
	}
}

func TestBuildOptions_NilLogger(t *testing.T) {
	opts, err := BuildOptions(Default(), nil)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if _, err := webping.New(opts...); err != nil {
		t.Fatalf("webping.New() error = %v", err)
	}
}
