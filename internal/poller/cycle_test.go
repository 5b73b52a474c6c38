package poller

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeProber records calls and delegates to fn when set.
type fakeProber struct {
	mu      sync.Mutex
	calls   []Request
	headers []map[string]string
	fn      func(ctx context.Context, req Request) Outcome
}

func (f *fakeProber) Probe(ctx context.Context, req Request, headers map[string]string) Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.headers = append(f.headers, headers)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return Outcome{Request: req, Status: StatusCompleted, StatusCode: 200, Reason: "OK"}
}

func (f *fakeProber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func requests(urls ...string) []Request {
	reqs := make([]Request, len(urls))
	for i, u := range urls {
		reqs[i] = Request{Method: "GET", URL: u}
	}
	return reqs
}

func TestRunCycle_EmptyBatchReturnsImmediately(t *testing.T) {
	prober := &fakeProber{}
	runner := NewCycleRunner(prober, time.Hour, testLogger(), nil)

	start := time.Now()
	report := runner.RunCycle(context.Background(), Batch{})

	if time.Since(start) > time.Second {
		t.Errorf("RunCycle() on empty batch took %v", time.Since(start))
	}
	if len(report.Outcomes) != 0 {
		t.Errorf("len(Outcomes) = %d, want 0", len(report.Outcomes))
	}
	if report.Outstanding != 0 {
		t.Errorf("Outstanding = %d, want 0", report.Outstanding)
	}
	if prober.callCount() != 0 {
		t.Errorf("prober called %d times, want 0", prober.callCount())
	}
}

func TestRunCycle_CollectsEveryOutcomeOnce(t *testing.T) {
	prober := &fakeProber{}
	runner := NewCycleRunner(prober, 5*time.Second, testLogger(), nil)

	batch := Batch{Requests: requests(
		"https://a.test",
		"https://b.test",
		"https://c.test",
		"https://d.test",
		"https://e.test",
	)}
	report := runner.RunCycle(context.Background(), batch)

	if report.Targets != 5 {
		t.Errorf("Targets = %d, want 5", report.Targets)
	}
	if len(report.Outcomes) != 5 {
		t.Fatalf("len(Outcomes) = %d, want 5", len(report.Outcomes))
	}
	if report.Outstanding != 0 || report.DeadlineExceeded || report.Cancelled {
		t.Errorf("report = %+v, want clean completion", report)
	}

	seen := make(map[string]int)
	for _, o := range report.Outcomes {
		seen[o.Request.URL]++
		if o.CycleID != report.ID {
			t.Errorf("outcome CycleID = %q, want %q", o.CycleID, report.ID)
		}
	}
	for _, req := range batch.Requests {
		if seen[req.URL] != 1 {
			t.Errorf("outcome count for %s = %d, want 1", req.URL, seen[req.URL])
		}
	}
	if len(seen) != len(batch.Requests) {
		t.Errorf("outcomes for %d distinct targets, want %d", len(seen), len(batch.Requests))
	}
}

func TestRunCycle_ProbesRunConcurrently(t *testing.T) {
	const n = 10

	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	// each probe waits for all others to start; serial execution would
	// hit the cycle deadline instead
	prober := &fakeProber{fn: func(ctx context.Context, req Request) Outcome {
		started.Done()
		select {
		case <-allStarted:
			return Outcome{Request: req, Status: StatusCompleted, StatusCode: 200}
		case <-time.After(2 * time.Second):
			return Outcome{Request: req, Status: StatusTimedOut}
		}
	}}

	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://host" + string(rune('a'+i)) + ".test"
	}

	runner := NewCycleRunner(prober, 5*time.Second, testLogger(), nil)
	report := runner.RunCycle(context.Background(), Batch{Requests: requests(urls...)})

	if len(report.Outcomes) != n {
		t.Fatalf("len(Outcomes) = %d, want %d", len(report.Outcomes), n)
	}
	for _, o := range report.Outcomes {
		if o.Status != StatusCompleted {
			t.Errorf("outcome for %s = %v, want completed", o.Request.URL, o.Status)
		}
	}
}

func TestRunCycle_DeadlineDetachesOutstandingProbes(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	t.Cleanup(func() {
		close(release)
		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Error("detached probe did not finish after release")
		}
	})

	prober := &fakeProber{fn: func(ctx context.Context, req Request) Outcome {
		if strings.Contains(req.URL, "slow") {
			defer close(finished)
			// the deadline must not cancel the probe
			select {
			case <-release:
			case <-ctx.Done():
				t.Error("slow probe was cancelled by the cycle deadline")
			}
		}
		return Outcome{Request: req, Status: StatusCompleted, StatusCode: 200}
	}}

	runner := NewCycleRunner(prober, 50*time.Millisecond, testLogger(), nil)
	report := runner.RunCycle(context.Background(), Batch{Requests: requests(
		"https://fast-1.test",
		"https://slow.test",
		"https://fast-2.test",
	)})

	if !report.DeadlineExceeded {
		t.Error("DeadlineExceeded = false, want true")
	}
	if report.Outstanding != 1 {
		t.Errorf("Outstanding = %d, want 1", report.Outstanding)
	}
	if len(report.Outcomes) != 2 {
		t.Errorf("len(Outcomes) = %d, want 2", len(report.Outcomes))
	}
	for _, o := range report.Outcomes {
		if strings.Contains(o.Request.URL, "slow") {
			t.Errorf("outcome for detached probe %s was collected", o.Request.URL)
		}
	}
}

func TestRunCycle_CancellationStopsCollection(t *testing.T) {
	prober := &fakeProber{fn: func(ctx context.Context, req Request) Outcome {
		<-ctx.Done()
		return Outcome{Request: req, Status: StatusCancelled, Error: ctx.Err()}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewCycleRunner(prober, time.Hour, testLogger(), nil)

	done := make(chan CycleReport, 1)
	go func() {
		done <- runner.RunCycle(ctx, Batch{Requests: requests("https://a.test", "https://b.test")})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case report := <-done:
		if len(report.Outcomes)+report.Outstanding != report.Targets {
			t.Errorf("collected %d + outstanding %d != targets %d",
				len(report.Outcomes), report.Outstanding, report.Targets)
		}
		for _, o := range report.Outcomes {
			if o.Status != StatusCancelled {
				t.Errorf("outcome status = %v, want cancelled", o.Status)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("RunCycle() did not return after cancellation")
	}
}

func TestRunCycle_ProbePanicIsRecorded(t *testing.T) {
	prober := &fakeProber{fn: func(ctx context.Context, req Request) Outcome {
		if strings.Contains(req.URL, "boom") {
			panic("probe exploded")
		}
		return Outcome{Request: req, Status: StatusCompleted, StatusCode: 200}
	}}

	runner := NewCycleRunner(prober, 5*time.Second, testLogger(), nil)
	report := runner.RunCycle(context.Background(), Batch{Requests: requests("https://ok.test", "https://boom.test")})

	if len(report.Outcomes) != 2 {
		t.Fatalf("len(Outcomes) = %d, want 2", len(report.Outcomes))
	}
	for _, o := range report.Outcomes {
		if !strings.Contains(o.Request.URL, "boom") {
			continue
		}
		if o.Status != StatusFailed {
			t.Errorf("panicking probe status = %v, want failed", o.Status)
		}
		if o.Error == nil || !strings.Contains(o.Error.Error(), "correlation_id") {
			t.Errorf("panicking probe error = %v, want correlation_id", o.Error)
		}
	}
}

func TestRunCycle_CallbackAndHeaders(t *testing.T) {
	prober := &fakeProber{}

	var mu sync.Mutex
	var got []Outcome
	runner := NewCycleRunner(prober, 5*time.Second, testLogger(), func(o Outcome) {
		mu.Lock()
		got = append(got, o)
		mu.Unlock()
	})

	headers := map[string]string{"X-Api-Key": "secret"}
	runner.RunCycle(context.Background(), Batch{
		Requests: requests("https://a.test", "https://b.test"),
		Headers:  headers,
	})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Errorf("callback called %d times, want 2", len(got))
	}

	prober.mu.Lock()
	defer prober.mu.Unlock()
	for _, h := range prober.headers {
		if h["X-Api-Key"] != "secret" {
			t.Errorf("probe headers = %v, want X-Api-Key=secret", h)
		}
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{StatusCancelled, "cancelled"},
		{StatusTimedOut, "timed_out"},
		{Status(42), "status(42)"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.status), got, tt.want)
		}
	}
}

func TestRequest_String(t *testing.T) {
	if got := (Request{URL: "https://a.test"}).String(); got != "GET https://a.test" {
		t.Errorf("String() = %q, want %q", got, "GET https://a.test")
	}
	if got := (Request{Method: "POST", URL: "http://b.test/x"}).String(); got != "POST http://b.test/x" {
		t.Errorf("String() = %q, want %q", got, "POST http://b.test/x")
	}
}
