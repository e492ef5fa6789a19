package util

import (
	"net/url"
	"strings"
)

// Origin returns scheme://host of raw, or "" when raw is not absolute.
func Origin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// JoinPath joins base and p with exactly one slash between them.
func JoinPath(base, p string) string {
	base = strings.TrimRight(base, "/")
	p = strings.TrimSpace(p)
	if p == "" {
		return base
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

// WithQuery returns raw with q merged into its existing query string.
func WithQuery(raw string, q url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(q) == 0 {
		return u.String(), nil
	}
	merged := u.Query()
	for k, vs := range q {
		merged.Del(k)
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}
