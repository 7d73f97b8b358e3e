package providers

import (
	"context"

	"github.com/open-rails/oauthkit/core"
	"golang.org/x/oauth2/linkedin"
)

const (
	linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"
	linkedinScope       = "openid profile email"
)

// LinkedIn implements OAuth 2.0 using LinkedIn's OIDC userinfo surface,
// which replaced the legacy lite-profile projections.
type LinkedIn struct {
	base
}

func NewLinkedIn(cfg core.ProviderConfig, tr core.Transport) *LinkedIn {
	return &LinkedIn{
		base: newBase("linkedin", cfg, tr,
			linkedin.Endpoint.AuthURL, linkedin.Endpoint.TokenURL,
			linkedinUserInfoURL, "", linkedinScope),
	}
}

func (l *LinkedIn) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := l.fetchUserRaw(ctx, l.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	return normalizeLinkedInUser(raw), nil
}

func normalizeLinkedInUser(raw map[string]any) *core.UserInfo {
	first := strField(raw, "given_name")
	last := strField(raw, "family_name")
	if first == "" && last == "" {
		first, last = splitName(strField(raw, "name"))
	}
	return &core.UserInfo{
		Provider:      "linkedin",
		OAuthID:       strField(raw, "sub"),
		Email:         strptr(strField(raw, "email")),
		EmailVerified: boolField(raw, "email_verified"),
		FirstName:     strptr(first),
		LastName:      strptr(last),
		AvatarURL:     strptr(strField(raw, "picture")),
		Raw:           raw,
	}
}
