package webping

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrUnsupportedMethod is returned for verbs outside the probe method set.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")

	// ErrRelativeURL is returned when a target URL is not absolute.
	ErrRelativeURL = errors.New("URL must be absolute")

	// ErrUnsupportedScheme is returned when a target URL is not http or https.
	ErrUnsupportedScheme = errors.New("only http and https URLs are supported")
)

// Method is an HTTP method a [Target] may be probed with.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// ParseMethod parses s case-insensitively. An empty string is [MethodGet].
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case "":
		return MethodGet, nil
	case MethodGet, MethodHead, MethodPost, MethodPut, MethodDelete, MethodOptions, MethodTrace:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
}

// String returns the upper-case method name.
func (m Method) String() string {
	return string(m)
}

// Target is a single probe target: an HTTP method and an absolute URL.
//
// Target is immutable after creation via [NewTarget].
type Target struct {
	method Method
	url    string
}

// NewTarget validates method and rawURL and returns a [Target].
//
// The URL must be absolute, use the http or https scheme and name a host.
// An empty method defaults to GET.
//
// Example:
//
//	t, err := webping.NewTarget(webping.MethodHead, "https://example.com/health")
func NewTarget(method Method, rawURL string) (Target, error) {
	m, err := ParseMethod(string(method))
	if err != nil {
		return Target{}, err
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if !u.IsAbs() {
		return Target{}, fmt.Errorf("%w: %q", ErrRelativeURL, rawURL)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("%w: %q has no host", ErrRelativeURL, rawURL)
	}

	return Target{method: m, url: u.String()}, nil
}

// Method returns the HTTP method.
func (t Target) Method() Method {
	if t.method == "" {
		return MethodGet
	}
	return t.method
}

// URL returns the normalised absolute URL.
func (t Target) URL() string {
	return t.url
}

// String renders the target as "<METHOD> <URL>".
func (t Target) String() string {
	return t.Method().String() + " " + t.url
}

// TargetSet is the snapshot of targets and custom headers probed in one
// cycle. It is rebuilt every cycle and never mutated.
type TargetSet struct {
	targets []Target
	headers map[string]string
}

// NewTargetSet copies targets and headers into a new [TargetSet].
func NewTargetSet(targets []Target, headers map[string]string) TargetSet {
	return TargetSet{
		targets: append([]Target(nil), targets...),
		headers: copyMap(headers),
	}
}

// Targets returns a copy of the targets in declaration order.
func (s TargetSet) Targets() []Target {
	return append([]Target(nil), s.targets...)
}

// Headers returns a copy of the custom headers.
func (s TargetSet) Headers() map[string]string {
	return copyMap(s.headers)
}

// Len returns the number of targets.
func (s TargetSet) Len() int {
	return len(s.targets)
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
