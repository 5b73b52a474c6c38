package feed

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/webping"
)

func TestNew(t *testing.T) {
	f := New()
	if f == nil {
		t.Fatal("New() = nil")
	}
	if f.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", f.Subscribers())
	}
}

func TestFeed_PublishWithoutSubscribers(t *testing.T) {
	f := New()
	// nothing to deliver to, nothing retained
	f.Publish(Event{URL: "https://example.com"})

	ch := f.Subscribe()
	select {
	case e := <-ch:
		t.Errorf("late subscriber received earlier event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeed_Subscribe(t *testing.T) {
	f := New()
	ch := f.Subscribe()

	f.Publish(Event{URL: "https://example.com", Status: "completed"})

	select {
	case e := <-ch:
		if e.URL != "https://example.com" {
			t.Errorf("URL = %v, want https://example.com", e.URL)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestFeed_MultipleSubscribers(t *testing.T) {
	f := New()
	ch1 := f.Subscribe()
	ch2 := f.Subscribe()

	f.Publish(Event{URL: "https://example.com"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestFeed_Unsubscribe(t *testing.T) {
	f := New()
	ch := f.Subscribe()

	f.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if f.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", f.Subscribers())
	}

	// second call is a no-op
	f.Unsubscribe(ch)
}

func TestFeed_SlowSubscriberDoesNotBlock(t *testing.T) {
	f := New()

	// never read
	_ = f.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*subscriberBuffer; i++ {
			f.Publish(Event{URL: "https://example.com"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Publish() blocked on slow subscriber")
	}
}

func TestFeed_ConcurrentAccess(t *testing.T) {
	f := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Publish(Event{URL: "https://example.com"})
			}
		}()
		go func() {
			defer wg.Done()
			ch := f.Subscribe()
			time.Sleep(10 * time.Millisecond)
			f.Unsubscribe(ch)
		}()
	}
	wg.Wait()
}

func TestFromOutcome(t *testing.T) {
	target, err := webping.NewTarget(webping.MethodHead, "https://example.com/health")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	checked := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	completed := FromOutcome(webping.ProbeOutcome{
		Target:     target,
		Status:     webping.StatusCompleted,
		StatusCode: 204,
		Reason:     "No Content",
		Latency:    1500 * time.Microsecond,
		CheckedAt:  checked,
		CycleID:    "c1",
	})
	if completed.Method != "HEAD" || completed.URL != "https://example.com/health" {
		t.Errorf("target = %s %s", completed.Method, completed.URL)
	}
	if !completed.Success || completed.StatusCode != 204 || completed.LatencyMs != 1 {
		t.Errorf("completed event = %+v", completed)
	}
	if completed.Error != nil {
		t.Errorf("Error = %v, want nil", *completed.Error)
	}
	if !completed.CheckedAt.Equal(checked) || completed.CycleID != "c1" {
		t.Errorf("completed event = %+v", completed)
	}

	failed := FromOutcome(webping.ProbeOutcome{
		Target: target,
		Status: webping.StatusFailed,
		Error:  errors.New("connection refused"),
	})
	if failed.Success || failed.Status != "failed" {
		t.Errorf("failed event = %+v", failed)
	}
	if failed.Error == nil || *failed.Error != "connection refused" {
		t.Errorf("Error = %v, want connection refused", failed.Error)
	}
}
