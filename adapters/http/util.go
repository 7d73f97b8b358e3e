package authhttp

import (
	"net/http"
	"net/url"
	"strings"
)

// buildRedirectURI reconstructs the externally visible callback URL for
// a login request, honoring reverse-proxy forwarding headers.
func buildRedirectURI(r *http.Request, provider string) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	host := r.Header.Get("X-Forwarded-Host")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	if host == "" {
		host = r.Host
	}
	p := r.URL.Path
	if strings.HasSuffix(p, "/login") {
		p = strings.TrimSuffix(p, "/login") + "/callback"
	}
	_ = provider
	return scheme + "://" + host + p
}

// sanitizeNext restricts the post-login redirect to a relative path on
// this site; anything else would be an open redirect.
func sanitizeNext(next string) string {
	if next == "" {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

// appendReason attaches a generic reason code to the failure target.
// Internal error text never reaches the browser.
func appendReason(target, reason string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("reason", reason)
	u.RawQuery = q.Encode()
	return u.String()
}
