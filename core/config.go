package core

import (
	"strings"
	"time"
)

// ProviderConfig carries one provider's credentials plus the optional
// knobs individual providers understand. Unused fields are ignored by
// providers that have no matching quirk.
type ProviderConfig struct {
	Name         string
	ClientID     string
	ClientSecret string

	// Scope overrides the provider's default scope.
	Scope string

	// Tenant selects the directory for multi-tenant providers
	// (microsoft); empty means the provider's common endpoint.
	Tenant string

	// BaseURL points at a self-hosted installation (gitlab).
	BaseURL string

	// DiscoveryURL configures a generic OIDC provider from its
	// well-known document instead of explicit endpoints.
	DiscoveryURL string

	// Explicit endpoints for a generic provider without discovery.
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string

	// Fields maps normalized UserInfo field names ("id", "email",
	// "username", "first_name", "last_name", "avatar_url",
	// "profile_url", "email_verified") to provider response keys,
	// overriding the generic provider's defaults.
	Fields map[string]string
}

// Config is the top-level configuration surface: which providers are
// enabled, where callbacks land, and where users go afterwards.
type Config struct {
	// RedirectBaseURL is the public base for callback URLs,
	// e.g. "https://example.com".
	RedirectBaseURL string

	// RoutePrefix is the path prefix the HTTP adapter mounts under.
	RoutePrefix string

	// SuccessRedirect and FailureRedirect are where the adapter sends
	// users after the callback. Failure targets receive only a generic
	// reason code, never internal error text.
	SuccessRedirect string
	FailureRedirect string

	// StateTTL bounds the consent round trip; zero means
	// DefaultStateTTL.
	StateTTL time.Duration

	// EnabledProviders filters Providers by name; nil enables every
	// configured provider.
	EnabledProviders []string

	// Providers is keyed by provider slug ("github", "google", ...).
	Providers map[string]ProviderConfig
}

// Defaults mirror the original plugin configuration.
const (
	DefaultRoutePrefix     = "/auth"
	DefaultSuccessRedirect = "/dashboard"
	DefaultFailureRedirect = "/login?error=oauth"
)

func (c *Config) routePrefix() string {
	if c.RoutePrefix == "" {
		return DefaultRoutePrefix
	}
	return strings.TrimSuffix(c.RoutePrefix, "/")
}

// CallbackURL is the canonical callback target for a provider under
// this configuration.
func (c *Config) CallbackURL(provider string) string {
	return strings.TrimSuffix(c.RedirectBaseURL, "/") + c.routePrefix() + "/" + provider + "/callback"
}

// SuccessTarget returns the post-login redirect, defaulted.
func (c *Config) SuccessTarget() string {
	if c.SuccessRedirect == "" {
		return DefaultSuccessRedirect
	}
	return c.SuccessRedirect
}

// FailureTarget returns the post-failure redirect, defaulted.
func (c *Config) FailureTarget() string {
	if c.FailureRedirect == "" {
		return DefaultFailureRedirect
	}
	return c.FailureRedirect
}

// Enabled returns the providers that both carry credentials (or a
// discovery/endpoint configuration) and pass the EnabledProviders
// filter, with Name filled in from the map key.
func (c *Config) Enabled() map[string]ProviderConfig {
	var allow map[string]bool
	if c.EnabledProviders != nil {
		allow = make(map[string]bool, len(c.EnabledProviders))
		for _, name := range c.EnabledProviders {
			allow[name] = true
		}
	}
	out := make(map[string]ProviderConfig, len(c.Providers))
	for name, pc := range c.Providers {
		if allow != nil && !allow[name] {
			continue
		}
		if pc.ClientID == "" {
			continue
		}
		pc.Name = name
		out[name] = pc
	}
	return out
}

// Validate fails fast on configuration that cannot serve a flow.
func (c *Config) Validate() error {
	if c.RedirectBaseURL == "" {
		return &ConfigError{Reason: "redirect base URL is required"}
	}
	for name, pc := range c.Enabled() {
		if pc.ClientSecret == "" {
			return &ConfigError{Provider: name, Reason: "client secret is required"}
		}
	}
	return nil
}
