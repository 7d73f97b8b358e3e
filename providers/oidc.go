package providers

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/open-rails/oauthkit/core"
	"github.com/open-rails/oauthkit/idtoken"
	zoidc "github.com/zitadel/oidc/v2/pkg/oidc"
	"golang.org/x/sync/singleflight"
)

const oidcScope = "openid profile email"

// oidcEndpoints is the resolved endpoint set, from explicit
// configuration or from the discovery document.
type oidcEndpoints struct {
	issuer    string
	authorize string
	token     string
	userInfo  string
	revoke    string
	jwks      string
}

// OIDC is the configurable provider for any OAuth2/OIDC-compliant IdP.
// It is configured either with explicit endpoints or with a discovery
// URL; in the latter case the well-known document is fetched through
// the injected transport exactly once per instance, with concurrent
// first callers coalesced onto a single fetch. PKCE (S256) is always
// applied to authorization URLs.
type OIDC struct {
	base
	discoveryURL string
	fields       map[string]string

	sf singleflight.Group

	mu       sync.Mutex
	resolved *oidcEndpoints
	verifier string // PKCE verifier retained from the last auth URL
}

// NewOIDC validates the endpoint configuration up front: either a
// discovery URL or the full explicit endpoint set must be present.
func NewOIDC(cfg core.ProviderConfig, tr core.Transport) (*OIDC, error) {
	name := cfg.Name
	if name == "" {
		name = "oidc"
	}
	if cfg.DiscoveryURL == "" && (cfg.AuthorizeURL == "" || cfg.TokenURL == "") {
		return nil, &core.ConfigError{Provider: name, Reason: "either discovery_url or explicit authorize/token endpoints are required"}
	}
	o := &OIDC{
		base: newBase(name, cfg, tr,
			cfg.AuthorizeURL, cfg.TokenURL, cfg.UserInfoURL, "", oidcScope),
		discoveryURL: cfg.DiscoveryURL,
		fields:       cfg.Fields,
	}
	if cfg.AuthorizeURL != "" {
		o.resolved = &oidcEndpoints{
			authorize: cfg.AuthorizeURL,
			token:     cfg.TokenURL,
			userInfo:  cfg.UserInfoURL,
		}
	}
	return o, nil
}

// endpoints resolves the endpoint set, fetching the discovery document
// on first use. This is the only operation of the provider that may
// touch the network outside an explicit exchange/profile call.
func (o *OIDC) endpoints(ctx context.Context) (*oidcEndpoints, error) {
	o.mu.Lock()
	ep := o.resolved
	o.mu.Unlock()
	if ep != nil {
		return ep, nil
	}
	v, err, _ := o.sf.Do("discovery", func() (any, error) {
		return o.fetchDiscovery(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oidcEndpoints), nil
}

func (o *OIDC) fetchDiscovery(ctx context.Context) (*oidcEndpoints, error) {
	resp, err := o.tr.Get(ctx, o.discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s discovery: %w", o.name, err)
	}
	if !resp.OK() {
		return nil, &core.ConfigError{Provider: o.name, Reason: fmt.Sprintf("discovery fetch returned status %d", resp.Status)}
	}
	var doc zoidc.DiscoveryConfiguration
	if err := resp.JSON(&doc); err != nil {
		return nil, &core.ConfigError{Provider: o.name, Reason: "malformed discovery document"}
	}
	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return nil, &core.ConfigError{Provider: o.name, Reason: "discovery document missing authorization or token endpoint"}
	}
	ep := &oidcEndpoints{
		issuer:    doc.Issuer,
		authorize: doc.AuthorizationEndpoint,
		token:     doc.TokenEndpoint,
		userInfo:  doc.UserinfoEndpoint,
		revoke:    doc.RevocationEndpoint,
		jwks:      doc.JwksURI,
	}
	o.mu.Lock()
	o.resolved = ep
	o.mu.Unlock()
	return ep, nil
}

func (o *OIDC) AuthorizeURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved != nil {
		return o.resolved.authorize
	}
	return ""
}

func (o *OIDC) TokenURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved != nil {
		return o.resolved.token
	}
	return ""
}

func (o *OIDC) UserInfoURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved != nil {
		return o.resolved.userInfo
	}
	return ""
}

// AuthorizationURL resolves endpoints (the one legitimate suspension
// point), generates a fresh PKCE pair, retains the verifier for the
// matching exchange, and appends the S256 challenge.
func (o *OIDC) AuthorizationURL(ctx context.Context, redirectURI, state, scope string, extra url.Values) (string, error) {
	ep, err := o.endpoints(ctx)
	if err != nil {
		return "", err
	}
	verifier, challenge, err := GeneratePKCE()
	if err != nil {
		return "", err
	}
	o.mu.Lock()
	o.verifier = verifier
	o.mu.Unlock()
	defaults := url.Values{}
	defaults.Set("code_challenge", challenge)
	defaults.Set("code_challenge_method", "S256")
	return o.buildAuthURL(ep.authorize, redirectURI, state, scope, defaults, extra)
}

// ExchangeCode uses the instance-retained PKCE verifier. Callers that
// carried the verifier through their own state (the usual multi-process
// arrangement) use ExchangeCodeWithVerifier instead.
func (o *OIDC) ExchangeCode(ctx context.Context, code, redirectURI string) (*core.Token, error) {
	o.mu.Lock()
	verifier := o.verifier
	o.mu.Unlock()
	return o.ExchangeCodeWithVerifier(ctx, code, redirectURI, verifier)
}

// ExchangeCodeWithVerifier exchanges the code with an explicitly
// supplied PKCE verifier.
func (o *OIDC) ExchangeCodeWithVerifier(ctx context.Context, code, redirectURI, verifier string) (*core.Token, error) {
	ep, err := o.endpoints(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}
	return o.tokenRequest(ctx, ep.token, form, core.ErrTokenExchange, "exchange_code")
}

func (o *OIDC) RefreshToken(ctx context.Context, refreshToken string) (*core.Token, error) {
	ep, err := o.endpoints(ctx)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	return o.tokenRequest(ctx, ep.token, form, core.ErrTokenRefresh, "refresh_token")
}

func (o *OIDC) RevokeToken(ctx context.Context, token, hint string) error {
	ep, err := o.endpoints(ctx)
	if err != nil {
		return err
	}
	if ep.revoke == "" {
		return nil
	}
	form := url.Values{}
	form.Set("token", token)
	if hint != "" {
		form.Set("token_type_hint", hint)
	}
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	if _, err := o.tr.PostForm(ctx, ep.revoke, form, nil); err != nil {
		return fmt.Errorf("%s revoke_token: %w", o.name, err)
	}
	return nil
}

func (o *OIDC) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	ep, err := o.endpoints(ctx)
	if err != nil {
		return nil, err
	}
	if ep.userInfo == "" {
		return nil, &core.ConfigError{Provider: o.name, Reason: "no userinfo endpoint configured or discovered"}
	}
	raw, err := o.fetchUserRaw(ctx, ep.userInfo, accessToken)
	if err != nil {
		return nil, err
	}
	return o.normalize(raw), nil
}

// IDTokenVerifier builds the JWKS-backed verifier for this provider's
// id_tokens. Only available once discovery supplied issuer and JWKS
// location.
func (o *OIDC) IDTokenVerifier(ctx context.Context) (*idtoken.Verifier, error) {
	ep, err := o.endpoints(ctx)
	if err != nil {
		return nil, err
	}
	if ep.issuer == "" || ep.jwks == "" {
		return nil, &core.ConfigError{Provider: o.name, Reason: "discovery document supplied no issuer or jwks_uri"}
	}
	return idtoken.New(ctx, ep.issuer, o.clientID, ep.jwks)
}

// oidcFieldDefaults maps normalized field names to standard claims.
var oidcFieldDefaults = map[string]string{
	"id":             "sub",
	"email":          "email",
	"email_verified": "email_verified",
	"username":       "preferred_username",
	"first_name":     "given_name",
	"last_name":      "family_name",
	"avatar_url":     "picture",
	"profile_url":    "profile",
	"name":           "name",
}

func (o *OIDC) claim(field string) string {
	if o.fields != nil {
		if k, ok := o.fields[field]; ok {
			return k
		}
	}
	return oidcFieldDefaults[field]
}

// normalize maps userinfo claims through the default claim names,
// honoring per-field overrides from the configuration.
func (o *OIDC) normalize(raw map[string]any) *core.UserInfo {
	first := strField(raw, o.claim("first_name"))
	last := strField(raw, o.claim("last_name"))
	if first == "" && last == "" {
		first, last = splitName(strField(raw, o.claim("name")))
	}
	return &core.UserInfo{
		Provider:      o.name,
		OAuthID:       idString(raw[o.claim("id")]),
		Email:         strptr(strField(raw, o.claim("email"))),
		EmailVerified: boolField(raw, o.claim("email_verified")),
		Username:      strptr(strField(raw, o.claim("username"))),
		FirstName:     strptr(first),
		LastName:      strptr(last),
		AvatarURL:     strptr(strField(raw, o.claim("avatar_url"))),
		ProfileURL:    strptr(strField(raw, o.claim("profile_url"))),
		Raw:           raw,
	}
}
