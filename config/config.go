// Package config reads the webping settings file.
//
// The settings file is a flat YAML mapping. Keys are matched
// case-insensitively and values are read in declaration order, so the last
// of two entries for the same key wins.
//
// Example settings file:
//
//	site_list: ${WEBPING_HOME:-.}/sites.txt
//	request_timeout: 100s
//	interval: 30m
//	wait_timeout: 00:01:00
//	ignore_certificate_errors: false
//	header:User-Agent: webping/1.0
//	header:X-Api-Key: ${API_KEY}
//
// Timing values accept Go duration syntax ("90s", "30m") or clock syntax
// "[d.]hh:mm[:ss[.fff]]". A missing or unparseable value falls back to its
// default and a value below its floor is raised to the floor; either way a
// [Fallback] is recorded so the effective value can be explained.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/webping"
)

// Setting keys.
const (
	KeySiteList                = "site_list"
	KeyRequestTimeout          = "request_timeout"
	KeyInterval                = "interval"
	KeyWaitTimeout             = "wait_timeout"
	KeyStopGrace               = "stop_grace"
	KeyIgnoreCertificateErrors = "ignore_certificate_errors"
	KeyChdirToExecutable       = "chdir_to_executable"
	KeyControlAddr             = "control_addr"

	headerKeyPrefix = "header:"
)

// DefaultSiteList is used when site_list is not set.
const DefaultSiteList = "sites.txt"

// Fallback reasons.
const (
	ReasonMissing     = "not set"
	ReasonUnparseable = "unparseable"
	ReasonBelowFloor  = "below minimum"
)

// durationRule is the default and floor of a timing setting.
type durationRule struct {
	key   string
	def   time.Duration
	floor time.Duration
}

var durationRules = []durationRule{
	{KeyRequestTimeout, 100 * time.Second, 30 * time.Second},
	{KeyInterval, 30 * time.Minute, time.Minute},
	{KeyWaitTimeout, time.Minute, 30 * time.Second},
	{KeyStopGrace, 3 * time.Second, 0},
}

// Fallback records a timing setting whose configured value was not used.
type Fallback struct {
	// Key is the setting key.
	Key string

	// Raw is the configured value, empty if the key was not set.
	Raw string

	// Reason is one of ReasonMissing, ReasonUnparseable or ReasonBelowFloor.
	Reason string

	// Effective is the value used instead.
	Effective time.Duration
}

// String renders the fallback for logs and the validate command.
func (f Fallback) String() string {
	if f.Raw == "" {
		return fmt.Sprintf("%s %s, using %s", f.Key, f.Reason, f.Effective)
	}
	return fmt.Sprintf("%s %q %s, using %s", f.Key, f.Raw, f.Reason, f.Effective)
}

// Settings is the effective configuration read from a settings file.
//
// Use [Load] or [Parse] to create Settings.
type Settings struct {
	// SiteList is the path to the target list as configured, after
	// environment expansion. Use [Settings.SiteListPath] for the absolute path.
	SiteList string

	// RequestTimeout is the per-request client timeout.
	RequestTimeout time.Duration

	// Interval is the sleep between cycles.
	Interval time.Duration

	// WaitTimeout is the cycle deadline.
	WaitTimeout time.Duration

	// StopGrace bounds how long stopping waits for the loop to exit.
	StopGrace time.Duration

	// IgnoreCertificateErrors accepts TLS certificates that fail verification.
	IgnoreCertificateErrors bool

	// ChdirToExecutable moves the working directory to the executable's
	// directory before relative paths are resolved.
	ChdirToExecutable bool

	// ControlAddr is the listen address of the HTTP control API. Empty
	// disables it.
	ControlAddr string

	// Headers are the custom request headers from header:<Name> keys.
	Headers map[string]string

	// Entries are all settings in declaration order, values expanded.
	Entries []webping.Setting

	// Fallbacks lists every timing setting that did not use its
	// configured value.
	Fallbacks []Fallback

	// Warnings are non-fatal problems: unknown keys, invalid headers and
	// non-scalar values.
	Warnings []string
}

// Default returns the settings used when no settings file is given.
func Default() *Settings {
	s, _ := Parse(nil)
	return s
}

// Load reads and parses a settings file.
//
// Environment variables in values are expanded. Returns an error if the
// file cannot be read or parsed.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data)
}

// Parse parses settings file data. Empty data yields the defaults.
func Parse(data []byte) (*Settings, error) {
	entries, warnings, err := parseEntries(data)
	if err != nil {
		return nil, err
	}

	s := &Settings{
		SiteList: DefaultSiteList,
		Entries:  entries,
		Warnings: warnings,
	}

	values := make(map[string]string)
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Key))
		if strings.HasPrefix(key, headerKeyPrefix) {
			continue
		}
		switch key {
		case KeySiteList, KeyRequestTimeout, KeyInterval, KeyWaitTimeout, KeyStopGrace,
			KeyIgnoreCertificateErrors, KeyChdirToExecutable, KeyControlAddr:
			values[key] = e.Value
		default:
			s.Warnings = append(s.Warnings, fmt.Sprintf("unknown setting %q ignored", e.Key))
		}
	}

	if v := strings.TrimSpace(values[KeySiteList]); v != "" {
		s.SiteList = v
	}
	s.IgnoreCertificateErrors = parseBool(values[KeyIgnoreCertificateErrors])
	s.ChdirToExecutable = parseBool(values[KeyChdirToExecutable])
	s.ControlAddr = strings.TrimSpace(values[KeyControlAddr])

	for _, rule := range durationRules {
		raw, set := values[rule.key]
		d, fb := resolveDuration(rule, raw, set)
		if fb != nil {
			s.Fallbacks = append(s.Fallbacks, *fb)
		}
		switch rule.key {
		case KeyRequestTimeout:
			s.RequestTimeout = d
		case KeyInterval:
			s.Interval = d
		case KeyWaitTimeout:
			s.WaitTimeout = d
		case KeyStopGrace:
			s.StopGrace = d
		}
	}

	headers, headerErrs := webping.ExtractHeaders(entries)
	s.Headers = headers
	for _, err := range headerErrs {
		s.Warnings = append(s.Warnings, err.Error())
	}

	return s, nil
}

// SiteListPath returns the absolute path of the site list, resolved against
// the current working directory.
func (s *Settings) SiteListPath() (string, error) {
	return filepath.Abs(s.SiteList)
}

// parseEntries decodes the flat mapping in declaration order and expands
// environment variables in every value.
func parseEntries(data []byte) ([]webping.Setting, []string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// empty document
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, errors.New("settings file must be a mapping of key: value pairs")
	}

	var entries []webping.Setting
	var warnings []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		if valueNode.Kind != yaml.ScalarNode {
			warnings = append(warnings, fmt.Sprintf("setting %q (line %d) must be a scalar value, ignored", keyNode.Value, keyNode.Line))
			continue
		}

		value, err := expandEnvVars(valueNode.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("setting %q (line %d): %w", keyNode.Value, keyNode.Line, err)
		}
		entries = append(entries, webping.Setting{Key: keyNode.Value, Value: value})
	}

	return entries, warnings, nil
}

// resolveDuration applies the default and floor of rule to raw.
func resolveDuration(rule durationRule, raw string, set bool) (time.Duration, *Fallback) {
	raw = strings.TrimSpace(raw)
	if !set || raw == "" {
		return rule.def, &Fallback{Key: rule.key, Reason: ReasonMissing, Effective: rule.def}
	}

	d, err := ParseDuration(raw)
	if err != nil || d < 0 {
		return rule.def, &Fallback{Key: rule.key, Raw: raw, Reason: ReasonUnparseable, Effective: rule.def}
	}
	if d < rule.floor {
		return rule.floor, &Fallback{Key: rule.key, Raw: raw, Reason: ReasonBelowFloor, Effective: rule.floor}
	}
	if d == 0 {
		return rule.def, &Fallback{Key: rule.key, Raw: raw, Reason: ReasonBelowFloor, Effective: rule.def}
	}
	return d, nil
}

// clockPattern matches [d.]hh:mm[:ss[.fraction]].
var clockPattern = regexp.MustCompile(`^(?:(\d+)\.)?(\d{1,2}):(\d{1,2})(?::(\d{1,2})(?:\.(\d{1,7}))?)?$`)

// ParseDuration parses Go duration syntax ("90s", "1h30m") or clock syntax
// "[d.]hh:mm[:ss[.fff]]" ("00:30:00", "1.00:00:00").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	days := atoiOrZero(m[1])
	hours := atoiOrZero(m[2])
	minutes := atoiOrZero(m[3])
	seconds := atoiOrZero(m[4])
	if hours > 23 || minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("invalid duration %q: component out of range", s)
	}

	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second

	if frac := m[5]; frac != "" {
		// right-pad to nanoseconds
		ns, _ := strconv.Atoi((frac + "000000000")[:9])
		d += time.Duration(ns)
	}
	return d, nil
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// parseBool is true only for "true", case-insensitively.
func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}
