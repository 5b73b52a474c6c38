package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jpalmerr/webping"
)

// FileLoader is a [webping.TargetLoader] that rereads a site list file on
// every cycle, so edits take effect without a restart.
type FileLoader struct {
	path    string
	headers map[string]string
	logger  *slog.Logger
}

// NewFileLoader creates a loader for the site list at path. headers are
// attached to every loaded set.
func NewFileLoader(path string, headers map[string]string, logger *slog.Logger) *FileLoader {
	if logger == nil {
		logger = slog.Default()
	}
	cp := make(map[string]string, len(headers))
	for k, v := range headers {
		cp[k] = v
	}
	return &FileLoader{
		path:    path,
		headers: cp,
		logger:  logger.With("component", "site_list"),
	}
}

// Path returns the site list path.
func (l *FileLoader) Path() string {
	return l.path
}

// LoadTargets reads and parses the site list.
//
// A missing file yields an empty set and a warning. Invalid lines are
// logged and skipped. Only a read failure returns an error.
func (l *FileLoader) LoadTargets(ctx context.Context) (webping.TargetSet, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("site list not found, no targets loaded", "path", l.path)
		return webping.NewTargetSet(nil, l.headers), nil
	}
	if err != nil {
		return webping.TargetSet{}, fmt.Errorf("opening site list: %w", err)
	}
	defer f.Close()

	targets, skipped, err := webping.ParseTargets(f)
	if err != nil {
		return webping.TargetSet{}, err
	}
	for _, s := range skipped {
		l.logger.Warn("skipping site list line",
			"path", l.path,
			"line", s.Line,
			"text", s.Text,
			"error", s.Err.Error(),
		)
	}

	l.logger.Debug("site list loaded", "path", l.path, "targets", len(targets), "skipped", len(skipped))
	return webping.NewTargetSet(targets, l.headers), nil
}
