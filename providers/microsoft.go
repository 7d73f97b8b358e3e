package providers

import (
	"context"

	"github.com/open-rails/oauthkit/core"
	"golang.org/x/oauth2/microsoft"
)

const (
	microsoftUserURL = "https://graph.microsoft.com/v1.0/me"
	microsoftScope   = "openid email profile User.Read"
)

// Microsoft implements OAuth 2.0 / OIDC against Azure AD. The Tenant
// config field selects the directory ("common" when empty), which is
// the only per-deployment difference in the endpoints.
type Microsoft struct {
	base
}

func NewMicrosoft(cfg core.ProviderConfig, tr core.Transport) *Microsoft {
	// AzureADEndpoint defaults to the multi-tenant "common" authority.
	ep := microsoft.AzureADEndpoint(cfg.Tenant)
	return &Microsoft{
		base: newBase("microsoft", cfg, tr,
			ep.AuthURL, ep.TokenURL,
			microsoftUserURL, "", microsoftScope),
	}
}

func (m *Microsoft) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := m.fetchUserRaw(ctx, m.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	return normalizeMicrosoftUser(raw), nil
}

// normalizeMicrosoftUser maps a Graph /me response. The mail attribute
// is directory-managed and counts verified; falling back to the
// userPrincipalName yields an address of unknown standing.
func normalizeMicrosoftUser(raw map[string]any) *core.UserInfo {
	first := strField(raw, "givenName")
	last := strField(raw, "surname")
	if first == "" && last == "" {
		first, last = splitName(strField(raw, "displayName"))
	}
	email := strField(raw, "mail")
	verified := email != ""
	if email == "" {
		email = strField(raw, "userPrincipalName")
	}
	return &core.UserInfo{
		Provider:      "microsoft",
		OAuthID:       strField(raw, "id"),
		Email:         strptr(email),
		EmailVerified: verified,
		Username:      strptr(strField(raw, "userPrincipalName")),
		FirstName:     strptr(first),
		LastName:      strptr(last),
		Raw:           raw,
	}
}
