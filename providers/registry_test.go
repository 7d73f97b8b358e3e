package providers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-rails/oauthkit/core"
	memorystore "github.com/open-rails/oauthkit/storage/memory"
)

func TestNewKnownProviders(t *testing.T) {
	tr := &fakeTransport{}
	cfg := core.ProviderConfig{ClientID: "cid", ClientSecret: "cs"}

	for _, name := range []string{
		"github", "google", "discord", "facebook",
		"microsoft", "gitlab", "spotify", "linkedin",
	} {
		p, err := New(name, cfg, tr)
		require.NoError(t, err, name)
		require.Equal(t, name, p.Name())
		require.True(t, p.IsConfigured(), name)
	}
}

func TestNewFallsThroughToOIDC(t *testing.T) {
	tr := &fakeTransport{}
	cfg := core.ProviderConfig{
		ClientID:     "cid",
		ClientSecret: "cs",
		DiscoveryURL: "https://sso.corp.example/.well-known/openid-configuration",
	}
	p, err := New("corp-sso", cfg, tr)
	require.NoError(t, err)
	require.Equal(t, "corp-sso", p.Name())
	require.IsType(t, &OIDC{}, p)
}

func TestNewUnknownWithoutEndpoints(t *testing.T) {
	_, err := New("mystery", core.ProviderConfig{ClientID: "cid", ClientSecret: "cs"}, &fakeTransport{})
	var ce *core.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "mystery", ce.Provider)
}

func TestConfigureRegistersEnabled(t *testing.T) {
	svc := core.NewService(core.NewStateStore(memorystore.NewKV()))
	cfg := &core.Config{
		RedirectBaseURL: "https://example.com",
		Providers: map[string]core.ProviderConfig{
			"github": {ClientID: "id1", ClientSecret: "s1"},
			"google": {ClientID: "id2", ClientSecret: "s2"},
		},
	}
	require.NoError(t, Configure(svc, cfg, &fakeTransport{}))
	require.Equal(t, []string{"github", "google"}, svc.Providers())
}

func TestConfigureRejectsMissingSecret(t *testing.T) {
	svc := core.NewService(core.NewStateStore(memorystore.NewKV()))
	cfg := &core.Config{
		RedirectBaseURL: "https://example.com",
		Providers: map[string]core.ProviderConfig{
			"github": {ClientID: "id1"},
		},
	}
	err := Configure(svc, cfg, &fakeTransport{})
	var ce *core.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "github", ce.Provider)
}

func TestConfigureHonorsEnabledFilter(t *testing.T) {
	svc := core.NewService(core.NewStateStore(memorystore.NewKV()))
	cfg := &core.Config{
		RedirectBaseURL:  "https://example.com",
		EnabledProviders: []string{"google"},
		Providers: map[string]core.ProviderConfig{
			"github": {ClientID: "id1", ClientSecret: "s1"},
			"google": {ClientID: "id2", ClientSecret: "s2"},
		},
	}
	require.NoError(t, Configure(svc, cfg, &fakeTransport{}))
	require.Equal(t, []string{"google"}, svc.Providers())
}
