// FILE: haystackauth/src/internal/probe/endpoint.go
package probe

import (
	"fmt"
	"net/url"
	"strings"
)

// normalizeEndpoint validates a base URL and strips trailing slashes so
// that paths can be appended directly.
func normalizeEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidEndpoint, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrInvalidEndpoint, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmt.Errorf("%w: %q: query, fragment and userinfo are not allowed", ErrInvalidEndpoint, raw)
	}

	return scheme + "://" + strings.ToLower(u.Host) + strings.TrimRight(u.EscapedPath(), "/"), nil
}

// normalizeCandidates validates every candidate and drops duplicates,
// keeping first-seen order.
func normalizeCandidates(candidates []string) ([]string, error) {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ep, err := normalizeEndpoint(c)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[ep]; dup {
			continue
		}
		seen[ep] = struct{}{}
		out = append(out, ep)
	}
	return out, nil
}
