//go:build !windows

package main

import (
	"context"
	"log/slog"

	"github.com/jpalmerr/webping"
	"github.com/jpalmerr/webping/config"
	"github.com/jpalmerr/webping/internal/feed"
)

// runService runs as a daemon. Outside Windows a managed service is an
// attached run driven by the service manager's signals.
func runService(service *webping.Service, settings *config.Settings, events *feed.Feed, logger *slog.Logger) error {
	logger.Info("running as daemon")
	return runAttached(context.Background(), service, settings, events, logger)
}
