package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/webping"
	"github.com/jpalmerr/webping/config"
	"github.com/jpalmerr/webping/internal/feed"
	"github.com/jpalmerr/webping/internal/server"
	"github.com/jpalmerr/webping/internal/telemetry"
)

const traceFlushTimeout = 5 * time.Second

// runCmd probes the configured sites until stopped.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Probe the site list until stopped",
	Long: `Probe every site in the site list once per interval until stopped.

Attached runs stop on Ctrl+C or SIGTERM. On unix SIGUSR1 pauses cycling
and SIGUSR2 continues it. With --service the process runs as a managed
service: under the Windows service control manager when started by it,
otherwise as a daemon with JSON logs and the same signal handling.

When control_addr is set an HTTP control API is served on it:
  GET  /api/state
  POST /api/pause
  POST /api/resume
  POST /api/stop
  GET  /api/events   (Server-Sent Events stream of probe outcomes)

Example:
  webping run -c webping.yaml
  webping run -c /etc/webping/webping.yaml --service`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addSettingsFlags(runCmd)
	runCmd.Flags().Bool("service", false, "run as a managed service")
}

func runRun(cmd *cobra.Command, args []string) error {
	asService, _ := cmd.Flags().GetBool("service")
	debug, _ := cmd.Flags().GetBool("debug")
	trace, _ := cmd.Flags().GetBool("trace")

	logger := newLogger(os.Stderr, asService, debug)

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if settings.ChdirToExecutable {
		chdirToExecutable(logger)
	}
	logSettings(logger, settings)

	if trace {
		shutdown, err := telemetry.Setup(os.Stderr, version)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), traceFlushTimeout)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("trace flush failed", "error", err)
			}
		}()
	}

	opts, err := config.BuildOptions(settings, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	var events *feed.Feed
	if settings.ControlAddr != "" {
		events = feed.New()
		opts = append(opts, webping.WithOutcomeCallback(events.PublishOutcome))
	}

	service, err := webping.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	logger.Info("settings loaded",
		"site_list", settings.SiteList,
		"interval", settings.Interval.String(),
		"request_timeout", settings.RequestTimeout.String(),
		"wait_timeout", settings.WaitTimeout.String(),
		"headers", len(settings.Headers),
	)

	if asService {
		return runService(service, settings, events, logger)
	}
	return runAttached(context.Background(), service, settings, events, logger)
}

// runAttached serves with process signals as the control source.
func runAttached(ctx context.Context, service *webping.Service, settings *config.Settings, events *feed.Feed, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	control, stop := notifyEvents(ctx)
	defer stop()

	return serve(ctx, service, settings, events, control, logger)
}

// serve starts service and the optional control server, applies control
// events until the service stops, then stops everything else.
func serve(ctx context.Context, service *webping.Service, settings *config.Settings, events *feed.Feed, control <-chan webping.ControlEvent, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if err := service.Handle(gctx, webping.EventStart); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	if settings.ControlAddr != "" {
		srv := server.NewServer(service, events, settings.ControlAddr, logger)
		if err := srv.Start(gctx); err != nil {
			_ = service.Stop()
			return err
		}
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-service.Done():
				return nil
			case e, ok := <-control:
				if !ok {
					return nil
				}
				if err := service.Handle(gctx, e); err != nil {
					logger.Warn("control event failed", "event", e.String(), "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		select {
		case <-service.Done():
		case <-gctx.Done():
		}
		cancel()

		err := service.Stop()
		if errors.Is(err, webping.ErrStopGraceExceeded) {
			logger.Warn("probing loop still running at exit", "grace", settings.StopGrace.String())
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
