package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/webping"
)

func main() {
	// start mock sites (see mock_server.go)
	go StartMockSites(":9999")
	time.Sleep(100 * time.Millisecond)

	targets, skipped := webping.ParseTargetLines([]string{
		"# mock sites",
		"http://localhost:9999/ok",
		"HEAD http://localhost:9999/ok",
		"http://localhost:9999/slow",
		"http://localhost:9999/flaky",
		"http://localhost:9999/hang",
		"FETCH http://localhost:9999/ok",
	})
	for _, s := range skipped {
		slog.Warn("skipped site list line", "error", s.Error())
	}

	headers, _ := webping.ExtractHeaders([]webping.Setting{
		{Key: "header:User-Agent", Value: "webping-demo/1.0"},
	})

	svc, err := webping.New(
		webping.WithTargetLoader(webping.StaticTargets(webping.NewTargetSet(targets, headers))),
		webping.WithInterval(30*time.Second),
		webping.WithRequestTimeout(10*time.Second),
		webping.WithCycleDeadline(15*time.Second),
		webping.WithOutcomeCallback(func(o webping.ProbeOutcome) {
			fmt.Printf("  %-8s %-40s %-10s %3d %s\n",
				o.Target.Method(), o.Target.URL(), o.Status, o.StatusCode, o.Latency.Round(time.Millisecond))
		}),
	)
	if err != nil {
		slog.Error("failed to create webping", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  webping demo")
	fmt.Println()
	fmt.Println("  Probing 5 mock sites every 30s:")
	fmt.Println("  • /ok     always 200")
	fmt.Println("  • /slow   200 after a few seconds")
	fmt.Println("  • /flaky  cycles 200 → 503 → 500")
	fmt.Println("  • /hang   never answers, times out")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil {
		slog.Error("webping error", "error", err)
		os.Exit(1)
	}
}
