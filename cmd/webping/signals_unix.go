//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/jpalmerr/webping"
)

// notifyEvents translates process signals into control events until ctx is
// done. The returned func stops signal delivery.
func notifyEvents(ctx context.Context) (<-chan webping.ControlEvent, func()) {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, unix.SIGINT, unix.SIGTERM, unix.SIGUSR1, unix.SIGUSR2)

	events := make(chan webping.ControlEvent, 4)
	go pumpSignals(ctx, sigs, events)

	return events, func() { signal.Stop(sigs) }
}

func pumpSignals(ctx context.Context, sigs <-chan os.Signal, events chan<- webping.ControlEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			e, ok := eventForSignal(sig)
			if !ok {
				continue
			}
			select {
			case events <- e:
			case <-ctx.Done():
				return
			}
		}
	}
}

func eventForSignal(sig os.Signal) (webping.ControlEvent, bool) {
	switch sig {
	case unix.SIGINT, unix.SIGTERM:
		return webping.EventInterrupt, true
	case unix.SIGUSR1:
		return webping.EventPause, true
	case unix.SIGUSR2:
		return webping.EventContinue, true
	default:
		return 0, false
	}
}
