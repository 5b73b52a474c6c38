package webping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errMissingURL is returned for a verb line without a URL.
var errMissingURL = errors.New("missing URL after method")

// LineError records a site list line that was skipped.
type LineError struct {
	// Line is the 1-based line number.
	Line int

	// Text is the trimmed line content.
	Text string

	// Err is the reason the line was rejected.
	Err error
}

// Error implements the error interface.
func (e LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying error.
func (e LineError) Unwrap() error {
	return e.Err
}

// ParseTargets reads a site list from r.
//
// Invalid lines are skipped and reported as [LineError] values; they never
// fail the parse. The error return is only set when reading r fails.
func ParseTargets(r io.Reader) ([]Target, []LineError, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading site list: %w", err)
	}

	targets, skipped := ParseTargetLines(lines)
	return targets, skipped, nil
}

// ParseTargetLines parses site list lines.
//
// Format, one entry per line:
//
//	# comment
//	https://example.com/           bare URL, probed with GET
//	HEAD https://example.com/ping  <METHOD> <URL>
//
// Blank lines and comments are skipped silently. Lines with an unsupported
// method or a URL that is not absolute http(s) are returned as [LineError].
func ParseTargetLines(lines []string) ([]Target, []LineError) {
	targets := make([]Target, 0, len(lines))
	var skipped []LineError

	for i, raw := range lines {
		if i == 0 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := parseLine(line)
		if err != nil {
			skipped = append(skipped, LineError{Line: i + 1, Text: line, Err: err})
			continue
		}
		targets = append(targets, t)
	}

	return targets, skipped
}

func parseLine(line string) (Target, error) {
	if hasHTTPPrefix(line) {
		return NewTarget(MethodGet, line)
	}

	verb, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		verb, rest = line[:i], strings.TrimSpace(line[i+1:])
	}

	method, err := ParseMethod(verb)
	if err != nil {
		return Target{}, err
	}
	if rest == "" {
		return Target{}, errMissingURL
	}
	return NewTarget(method, rest)
}

func hasHTTPPrefix(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
