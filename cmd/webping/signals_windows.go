//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/windows"

	"github.com/jpalmerr/webping"
)

// notifyEvents translates console interrupts into control events until ctx
// is done. The returned func stops signal delivery.
func notifyEvents(ctx context.Context) (<-chan webping.ControlEvent, func()) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, windows.SIGTERM)

	events := make(chan webping.ControlEvent, 2)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				select {
				case events <- webping.EventInterrupt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, func() { signal.Stop(sigs) }
}
