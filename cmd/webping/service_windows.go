//go:build windows

package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sys/windows/svc"

	"github.com/jpalmerr/webping"
	"github.com/jpalmerr/webping/config"
	"github.com/jpalmerr/webping/internal/feed"
)

const serviceName = "webping"

// runService runs under the Windows service control manager. When the
// process was not started by it, the run is attached instead.
func runService(service *webping.Service, settings *config.Settings, events *feed.Feed, logger *slog.Logger) error {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return fmt.Errorf("failed to detect service session: %w", err)
	}
	if !isService {
		logger.Info("not started by the service control manager, running attached")
		return runAttached(context.Background(), service, settings, events, logger)
	}

	control := make(chan webping.ControlEvent, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- serve(context.Background(), service, settings, events, control, logger)
	}()

	h := &serviceHandler{events: control, done: service.Done(), logger: logger}
	if err := svc.Run(serviceName, h); err != nil {
		_ = service.Stop()
		<-errc
		return fmt.Errorf("service control manager: %w", err)
	}
	return <-errc
}

// serviceHandler maps service control requests to control events.
type serviceHandler struct {
	events chan<- webping.ControlEvent
	done   <-chan struct{}
	logger *slog.Logger
}

func (h *serviceHandler) Execute(_ []string, requests <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown | svc.AcceptPauseAndContinue

	changes <- svc.Status{State: svc.StartPending}
	changes <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case <-h.done:
			changes <- svc.Status{State: svc.StopPending}
			return false, 0
		case req := <-requests:
			switch req.Cmd {
			case svc.Interrogate:
				changes <- req.CurrentStatus
			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				h.send(webping.EventStop)
			case svc.Pause:
				h.send(webping.EventPause)
				changes <- svc.Status{State: svc.Paused, Accepts: accepted}
			case svc.Continue:
				h.send(webping.EventContinue)
				changes <- svc.Status{State: svc.Running, Accepts: accepted}
			default:
				h.logger.Warn("unexpected service control request", "cmd", uint32(req.Cmd))
			}
		}
	}
}

func (h *serviceHandler) send(e webping.ControlEvent) {
	select {
	case h.events <- e:
	case <-h.done:
	}
}
