package providers

import (
	"github.com/open-rails/oauthkit/core"
)

// New builds the provider registered under name. Unknown names fall
// through to the generic OIDC provider when the config carries a
// discovery URL or explicit endpoints; otherwise the name is a
// configuration error.
func New(name string, cfg core.ProviderConfig, tr core.Transport) (core.Provider, error) {
	cfg.Name = name
	switch name {
	case "github":
		return NewGitHub(cfg, tr), nil
	case "google":
		return NewGoogle(cfg, tr), nil
	case "discord":
		return NewDiscord(cfg, tr), nil
	case "facebook":
		return NewFacebook(cfg, tr), nil
	case "microsoft":
		return NewMicrosoft(cfg, tr), nil
	case "gitlab":
		return NewGitLab(cfg, tr), nil
	case "spotify":
		return NewSpotify(cfg, tr), nil
	case "linkedin":
		return NewLinkedIn(cfg, tr), nil
	}
	if cfg.DiscoveryURL != "" || cfg.AuthorizeURL != "" {
		return NewOIDC(cfg, tr)
	}
	return nil, &core.ConfigError{Provider: name, Reason: "unknown provider and no endpoints configured"}
}

// Configure builds and registers every enabled provider from cfg onto
// svc. Missing credentials fail here, at registration, not at first
// use.
func Configure(svc *core.Service, cfg *core.Config, tr core.Transport) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.StateTTL > 0 {
		svc.SetStateTTL(cfg.StateTTL)
	}
	for name, pc := range cfg.Enabled() {
		p, err := New(name, pc, tr)
		if err != nil {
			return err
		}
		if !p.IsConfigured() {
			return &core.ConfigError{Provider: name, Reason: "client credentials missing"}
		}
		svc.Register(p)
	}
	return nil
}
