// Package urlnorm canonicalizes URLs for duplicate detection.
package urlnorm

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/topology/pkg/topology/internalerr"
)

var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "dclid": {}, "msclkid": {}, "mc_cid": {}, "mc_eid": {},
	"ref": {}, "_ga": {}, "_gl": {}, "yclid": {}, "twclid": {}, "igshid": {},
	"s": {}, "source": {}, "si": {},
}

// IsTrackingParam reports whether a query key only carries click or
// campaign attribution.
func IsTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	_, ok := trackingParams[lower]
	return ok
}

// Normalize rewrites raw into a canonical form: https is assumed when no
// scheme is given, scheme and host are lowercased, default ports,
// fragments and tracking parameters are dropped, the remaining query is
// sorted by key, trailing slashes are trimmed and a leading "www." is
// removed from the host.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty URL", internalerr.ErrInvalidInput)
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: parse URL %q: %v", internalerr.ErrInvalidInput, raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: URL %q has no host", internalerr.ErrInvalidInput, raw)
	}

	u.Fragment = ""
	u.RawFragment = ""

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}
	u.Host = host

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	u.RawQuery = canonicalQuery(u.RawQuery)
	u.ForceQuery = false

	out := strings.TrimRight(u.String(), "/")
	out = strings.Replace(out, "://www.", "://", 1)
	return out, nil
}

// CanonicalKey is Normalize with the http(s) scheme removed, so the same
// resource reached over http and https groups together.
func CanonicalKey(raw string) (string, error) {
	n, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	n = strings.TrimPrefix(n, "https://")
	n = strings.TrimPrefix(n, "http://")
	return n, nil
}

// Slugify lowercases s, replaces every run of non-alphanumeric characters
// with a single '-', and trims leading and trailing dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, _ := url.ParseQuery(raw)

	keys := make([]string, 0, len(values))
	for k := range values {
		if !IsTrackingParam(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			if v == "" {
				parts = append(parts, url.QueryEscape(k))
			} else {
				parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
	}
	return strings.Join(parts, "&")
}
