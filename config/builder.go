package config

import (
	"fmt"
	"log/slog"

	"github.com/jpalmerr/webping"
)

// BuildOptions converts settings into [webping.Option] values for
// [webping.New].
//
// The site list path is resolved against the current working directory, so
// callers that honour ChdirToExecutable must change directory first.
func BuildOptions(s *Settings, logger *slog.Logger) ([]webping.Option, error) {
	if logger == nil {
		logger = slog.Default()
	}

	path, err := s.SiteListPath()
	if err != nil {
		return nil, fmt.Errorf("resolving site list path: %w", err)
	}

	ignoreCertErrors := s.IgnoreCertificateErrors
	verdict := func() bool {
		return ignoreCertErrors
	}

	return []webping.Option{
		webping.WithLogger(logger),
		webping.WithTargetLoader(NewFileLoader(path, s.Headers, logger)),
		webping.WithInterval(s.Interval),
		webping.WithRequestTimeout(s.RequestTimeout),
		webping.WithCycleDeadline(s.WaitTimeout),
		webping.WithStopGrace(s.StopGrace),
		webping.WithInsecureVerdict(verdict),
	}, nil
}
