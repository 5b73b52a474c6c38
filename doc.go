// Package webping provides a periodic HTTP(S) site-availability prober
// that runs as a long-lived, pausable service.
//
// Every interval the service reloads its target list, probes every target
// concurrently through one shared HTTP client, collects the outcomes within
// a cycle deadline and logs them. A failed probe is recorded once and not
// retried until the next cycle.
//
// # Quick Start
//
//	targets, skipped, err := webping.ParseTargets(strings.NewReader(
//	    "https://example.com/\nHEAD https://example.com/ping\n"))
//	if err != nil {
//	    return err
//	}
//	for _, s := range skipped {
//	    slog.Warn("skipping site list line", "error", s)
//	}
//
//	svc, _ := webping.New(
//	    webping.WithTargetLoader(webping.StaticTargets(webping.NewTargetSet(targets, nil))),
//	    webping.WithInterval(5 * time.Minute),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	svc.Run(ctx) // blocks until ctx is cancelled
//
// # Site List
//
// One target per line. A bare http or https URL is probed with GET;
// otherwise the line is "<METHOD> <URL>" with one of GET, HEAD, POST, PUT,
// DELETE, OPTIONS or TRACE. Lines starting with # are comments. Invalid
// lines are skipped with a [LineError] and never fail the load.
//
// # Lifecycle
//
// A [Service] is stopped until Start, then moves between running and
// paused. Pause holds the next cycle at a gate without interrupting the
// cycle in flight. Stop cancels the loop at its next suspension point and
// waits a bounded grace period. [Service.Handle] maps [ControlEvent] values
// from service managers or signals onto these operations.
//
// # Outcomes
//
// Any HTTP response is [StatusCompleted], including 4xx and 5xx; those are
// only logged at a higher level. Transport errors are [StatusFailed], the
// per-request timeout is [StatusTimedOut] and a stop mid-request is
// [StatusCancelled]. Register [WithOutcomeCallback] to observe outcomes.
//
// # Architecture
//
//   - internal/poller: shared client, cycle fan-out, pause gate and scheduler loop
//   - internal/server: optional HTTP control API and outcome stream
//   - internal/feed: live fan-out of outcomes to stream subscribers
//   - internal/telemetry: optional span export
//   - config: settings file, timing fallbacks and the file-backed target loader
//
// The internal packages are not part of the public API and may change
// without notice.
package webping
