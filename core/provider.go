package core

import (
	"context"
	"net/url"
)

// Provider is the contract every identity provider implements.
// Implementations are immutable configuration plus stateless dispatch
// and are safe for concurrent use; the one sanctioned exception is
// discovery-endpoint caching inside a discovery-configured provider.
type Provider interface {
	// Name is the registry slug ("github", "google", ...).
	Name() string

	AuthorizeURL() string
	TokenURL() string
	UserInfoURL() string

	// DefaultScope is applied when the caller requests no scope.
	DefaultScope() string

	// IsConfigured reports whether client credentials are present.
	IsConfigured() bool

	// AuthorizationURL builds the consent-page URL. It is pure and
	// deterministic for identical inputs; the only network touch is a
	// discovery cache miss on discovery-configured providers, which is
	// why it takes a context.
	AuthorizationURL(ctx context.Context, redirectURI, state, scope string, extra url.Values) (string, error)

	// ExchangeCode trades an authorization code for a token.
	// Codes are single-use at the upstream: resubmitting one yields
	// ErrTokenExchange and must never be retried automatically.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error)

	// RefreshToken obtains a fresh token from a refresh grant.
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)

	// RevokeToken invalidates a token upstream. hint is the optional
	// token_type_hint ("access_token" or "refresh_token"). Upstream
	// rejection is tolerated; only transport failures surface.
	RevokeToken(ctx context.Context, token, hint string) error

	// UserInfo fetches and normalizes the profile for an access token.
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}
