package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes of the authorization-code flow.
// All of them are terminal for the current flow: the caller restarts
// authorization rather than retrying.
var (
	// ErrInvalidState means the state token is unknown or was already
	// consumed by an earlier callback.
	ErrInvalidState = errors.New("oauth: invalid or already consumed state")

	// ErrExpiredState means the state token's TTL lapsed before the
	// callback arrived.
	ErrExpiredState = errors.New("oauth: state expired")

	// ErrProviderMismatch means the provider recorded at state creation
	// differs from the provider handling the callback.
	ErrProviderMismatch = errors.New("oauth: state provider mismatch")

	// ErrProviderNotConfigured means the requested provider name is not
	// registered or was disabled.
	ErrProviderNotConfigured = errors.New("oauth: provider not configured")

	// ErrTokenExchange means the upstream rejected the authorization
	// code grant. Codes are single-use upstream; never resubmit one.
	ErrTokenExchange = errors.New("oauth: token exchange failed")

	// ErrTokenRefresh means the upstream rejected the refresh grant.
	ErrTokenRefresh = errors.New("oauth: token refresh failed")

	// ErrUserInfo means the profile fetch failed or returned an
	// unparseable payload.
	ErrUserInfo = errors.New("oauth: user info fetch failed")
)

// ConfigError reports missing or invalid provider configuration,
// detected at registration or on first use (malformed discovery
// documents included). It never carries the client secret.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return "oauth config: " + e.Reason
	}
	return fmt.Sprintf("oauth config (%s): %s", e.Provider, e.Reason)
}

// maxErrorBody bounds how much upstream body an error retains.
const maxErrorBody = 256

// UpstreamError wraps a non-2xx response from an identity provider with
// enough context for observability: provider name, the operation that
// failed, the upstream status, and a truncated copy of the body.
// It unwraps to the matching sentinel so callers can errors.Is against
// ErrTokenExchange, ErrTokenRefresh, or ErrUserInfo.
type UpstreamError struct {
	Provider string
	Op       string
	Status   int
	Body     string

	kind error
}

// NewUpstreamError classifies an upstream failure under the given
// sentinel. The body is truncated to keep error payloads bounded.
func NewUpstreamError(kind error, provider, op string, status int, body []byte) *UpstreamError {
	b := body
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return &UpstreamError{
		Provider: provider,
		Op:       op,
		Status:   status,
		Body:     string(b),
		kind:     kind,
	}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: provider=%s op=%s status=%d body=%q", e.kind, e.Provider, e.Op, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.kind }
