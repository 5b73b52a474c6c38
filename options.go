package webping

import (
	"crypto/x509"
	"errors"
	"log/slog"
	"time"
)

// svcConfig holds mutable state during Service construction.
type svcConfig struct {
	interval         time.Duration
	requestTimeout   time.Duration
	cycleDeadline    time.Duration
	stopGrace        time.Duration
	logger           *slog.Logger
	loader           TargetLoader
	allowInsecure    func() bool
	rootCAs          *x509.CertPool
	outcomeCallbacks []func(ProbeOutcome)
}

// Option is a function that configures a [Service] during construction.
//
// Option implements the functional options pattern. Options return an
// error if validation fails, and [New] returns that error.
type Option func(*svcConfig) error

// WithInterval sets the sleep between the end of one cycle and the next
// reload of the target list. Defaults to 30 minutes.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *svcConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithRequestTimeout sets the client-level timeout applied to every probe.
// Defaults to 100 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *svcConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithCycleDeadline sets how long a cycle waits for outcomes before
// detaching outstanding probes. Defaults to 1 minute.
//
// Returns an error if the duration is zero or negative.
func WithCycleDeadline(d time.Duration) Option {
	return func(cfg *svcConfig) error {
		if d <= 0 {
			return errors.New("cycle deadline must be positive")
		}
		cfg.cycleDeadline = d
		return nil
	}
}

// WithStopGrace sets how long [Service.Stop] waits for the loop to exit.
// Defaults to 3 seconds.
//
// Returns an error if the duration is zero or negative.
func WithStopGrace(d time.Duration) Option {
	return func(cfg *svcConfig) error {
		if d <= 0 {
			return errors.New("stop grace must be positive")
		}
		cfg.stopGrace = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Service.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *svcConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTargetLoader sets the source of the [TargetSet] for each cycle.
// A loader is required.
//
// Example:
//
//	set := webping.NewTargetSet(targets, nil)
//	svc, err := webping.New(
//	    webping.WithTargetLoader(webping.StaticTargets(set)),
//	)
func WithTargetLoader(loader TargetLoader) Option {
	return func(cfg *svcConfig) error {
		if loader == nil {
			return errors.New("target loader cannot be nil")
		}
		cfg.loader = loader
		return nil
	}
}

// WithInsecureVerdict sets the function consulted when a server
// certificate fails verification. Returning true accepts the connection.
// Without it every invalid certificate fails the probe.
//
// Nil verdicts are silently ignored.
func WithInsecureVerdict(allow func() bool) Option {
	return func(cfg *svcConfig) error {
		if allow != nil {
			cfg.allowInsecure = allow
		}
		return nil
	}
}

// WithRootCAs replaces the system roots used to verify server certificates.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(cfg *svcConfig) error {
		cfg.rootCAs = pool
		return nil
	}
}

// WithOutcomeCallback registers a function called for every collected
// [ProbeOutcome].
//
// Multiple callbacks run in registration order. Callbacks are invoked
// synchronously from the cycle's collecting goroutine and must not block.
// Panics within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithOutcomeCallback(cb func(ProbeOutcome)) Option {
	return func(cfg *svcConfig) error {
		if cb == nil {
			return nil
		}
		cfg.outcomeCallbacks = append(cfg.outcomeCallbacks, cb)
		return nil
	}
}
