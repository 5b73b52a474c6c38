package webping

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const headerKeyPrefix = "header:"

// Setting is one raw key/value entry from the settings source, in
// declaration order.
type Setting struct {
	Key   string
	Value string
}

// ExtractHeaders selects settings whose key starts with "header:"
// (case-insensitive) and returns them as custom request headers. Repeated
// colons after the prefix are ignored, so "header::X-Trace" names X-Trace.
//
// Header names are canonicalised with [http.CanonicalHeaderKey], so keys are
// unique case-insensitively. When a name appears more than once the last
// declaration wins. Entries with an empty or invalid name or an invalid
// value are skipped and reported in the error slice.
func ExtractHeaders(settings []Setting) (map[string]string, []error) {
	headers := make(map[string]string)
	var errs []error

	for _, s := range settings {
		key := strings.TrimSpace(s.Key)
		if len(key) < len(headerKeyPrefix) || !strings.EqualFold(key[:len(headerKeyPrefix)], headerKeyPrefix) {
			continue
		}

		name := strings.TrimSpace(strings.TrimLeft(key[len(headerKeyPrefix):], ":"))
		if name == "" {
			errs = append(errs, fmt.Errorf("setting %q: empty header name", s.Key))
			continue
		}
		if !httpguts.ValidHeaderFieldName(name) {
			errs = append(errs, fmt.Errorf("setting %q: invalid header name %q", s.Key, name))
			continue
		}
		if !httpguts.ValidHeaderFieldValue(s.Value) {
			errs = append(errs, fmt.Errorf("setting %q: invalid header value", s.Key))
			continue
		}

		headers[http.CanonicalHeaderKey(name)] = s.Value
	}

	return headers, errs
}
