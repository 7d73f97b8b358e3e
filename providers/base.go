// Package providers contains the concrete identity-provider
// implementations plus the shared request/normalization logic they
// plug into. Every provider satisfies core.Provider; quirks (secondary
// email fetches, avatar URL synthesis, discovery, PKCE) stay inside
// the provider that owns them.
package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/open-rails/oauthkit/core"
)

// base carries the configuration and plumbing shared by every
// provider: endpoints, credentials, default-scope fallback, form-coded
// token calls, and non-2xx classification.
type base struct {
	name         string
	clientID     string
	clientSecret string
	authorizeURL string
	tokenURL     string
	userInfoURL  string
	revokeURL    string
	scope        string
	tr           core.Transport
}

func newBase(name string, cfg core.ProviderConfig, tr core.Transport, authorizeURL, tokenURL, userInfoURL, revokeURL, defaultScope string) base {
	scope := cfg.Scope
	if scope == "" {
		scope = defaultScope
	}
	if tr == nil {
		tr = core.NewHTTPTransport(0)
	}
	return base{
		name:         name,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authorizeURL: authorizeURL,
		tokenURL:     tokenURL,
		userInfoURL:  userInfoURL,
		revokeURL:    revokeURL,
		scope:        scope,
		tr:           tr,
	}
}

func (b *base) Name() string         { return b.name }
func (b *base) AuthorizeURL() string { return b.authorizeURL }
func (b *base) TokenURL() string     { return b.tokenURL }
func (b *base) UserInfoURL() string  { return b.userInfoURL }
func (b *base) DefaultScope() string { return b.scope }

func (b *base) IsConfigured() bool {
	return b.clientID != "" && b.clientSecret != ""
}

// buildAuthURL assembles the consent URL: the standard parameters, then
// provider defaults, then caller extras (extras win). url.Values
// encoding is key-sorted, so identical inputs give identical output.
func (b *base) buildAuthURL(endpoint, redirectURI, state, scope string, defaults, extra url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", &core.ConfigError{Provider: b.name, Reason: "bad authorize endpoint: " + endpoint}
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", b.clientID)
	q.Set("redirect_uri", redirectURI)
	if scope == "" {
		scope = b.scope
	}
	if scope != "" {
		q.Set("scope", scope)
	}
	q.Set("state", state)
	for k, vs := range defaults {
		q[k] = vs
	}
	for k, vs := range extra {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (b *base) AuthorizationURL(ctx context.Context, redirectURI, state, scope string, extra url.Values) (string, error) {
	_ = ctx
	return b.buildAuthURL(b.authorizeURL, redirectURI, state, scope, nil, extra)
}

// tokenRequest posts a form grant to endpoint and classifies the
// outcome under kind (ErrTokenExchange or ErrTokenRefresh). Providers
// that smuggle errors into 2xx bodies (github) are caught by the
// error-key and empty-access-token checks.
func (b *base) tokenRequest(ctx context.Context, endpoint string, form url.Values, kind error, op string) (*core.Token, error) {
	resp, err := b.tr.PostForm(ctx, endpoint, form, nil)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", b.name, op, err)
	}
	if !resp.OK() {
		return nil, core.NewUpstreamError(kind, b.name, op, resp.Status, resp.Body)
	}
	var raw map[string]any
	if err := resp.JSON(&raw); err != nil {
		return nil, core.NewUpstreamError(kind, b.name, op, resp.Status, resp.Body)
	}
	if errCode := strField(raw, "error"); errCode != "" {
		return nil, core.NewUpstreamError(kind, b.name, op, resp.Status, resp.Body)
	}
	tok := tokenFromRaw(raw)
	if tok.AccessToken == "" {
		return nil, core.NewUpstreamError(kind, b.name, op, resp.Status, resp.Body)
	}
	return tok, nil
}

func (b *base) exchangeCode(ctx context.Context, code, redirectURI string, extra url.Values) (*core.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", b.clientID)
	form.Set("client_secret", b.clientSecret)
	for k, vs := range extra {
		form[k] = vs
	}
	return b.tokenRequest(ctx, b.tokenURL, form, core.ErrTokenExchange, "exchange_code")
}

func (b *base) ExchangeCode(ctx context.Context, code, redirectURI string) (*core.Token, error) {
	return b.exchangeCode(ctx, code, redirectURI, nil)
}

func (b *base) RefreshToken(ctx context.Context, refreshToken string) (*core.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", b.clientID)
	form.Set("client_secret", b.clientSecret)
	return b.tokenRequest(ctx, b.tokenURL, form, core.ErrTokenRefresh, "refresh_token")
}

// RevokeToken posts to the provider's revocation endpoint. Upstream
// rejection is tolerated: the token is either gone or about to expire
// anyway, and the original flow treats revoke as best-effort. Providers
// without a form-coded revocation endpoint no-op.
func (b *base) RevokeToken(ctx context.Context, token, hint string) error {
	if b.revokeURL == "" {
		return nil
	}
	form := url.Values{}
	form.Set("token", token)
	if hint != "" {
		form.Set("token_type_hint", hint)
	}
	form.Set("client_id", b.clientID)
	form.Set("client_secret", b.clientSecret)
	_, err := b.tr.PostForm(ctx, b.revokeURL, form, nil)
	if err != nil {
		return fmt.Errorf("%s revoke_token: %w", b.name, err)
	}
	return nil
}

// fetchUserRaw GETs an authenticated endpoint and returns the decoded
// body, classifying failures as ErrUserInfo.
func (b *base) fetchUserRaw(ctx context.Context, endpoint, accessToken string) (map[string]any, error) {
	resp, err := b.tr.Get(ctx, endpoint, core.BearerHeader(accessToken))
	if err != nil {
		return nil, fmt.Errorf("%s user_info: %w", b.name, err)
	}
	if !resp.OK() {
		return nil, core.NewUpstreamError(core.ErrUserInfo, b.name, "user_info", resp.Status, resp.Body)
	}
	var raw map[string]any
	if err := resp.JSON(&raw); err != nil {
		return nil, core.NewUpstreamError(core.ErrUserInfo, b.name, "user_info", resp.Status, resp.Body)
	}
	return raw, nil
}

// tokenFromRaw maps a decoded token response onto the canonical shape,
// keeping the untouched response alongside.
func tokenFromRaw(raw map[string]any) *core.Token {
	tok := &core.Token{
		AccessToken:  strField(raw, "access_token"),
		TokenType:    strField(raw, "token_type"),
		RefreshToken: strField(raw, "refresh_token"),
		Scope:        strField(raw, "scope"),
		IDToken:      strField(raw, "id_token"),
		Raw:          raw,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if v, ok := raw["expires_in"].(float64); ok {
		tok.ExpiresIn = int(v)
	}
	return tok
}
