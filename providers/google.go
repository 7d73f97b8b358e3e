package providers

import (
	"context"

	"github.com/open-rails/oauthkit/core"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	googleRevokeURL   = "https://oauth2.googleapis.com/revoke"
	googleScope       = "openid email profile"
)

// Google implements OAuth 2.0 / OIDC against Google. Tokens carry an
// id_token; profile data comes from the OIDC userinfo endpoint.
type Google struct {
	base
}

func NewGoogle(cfg core.ProviderConfig, tr core.Transport) *Google {
	return &Google{
		base: newBase("google", cfg, tr,
			google.Endpoint.AuthURL, google.Endpoint.TokenURL,
			googleUserInfoURL, googleRevokeURL, googleScope),
	}
}

func (g *Google) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := g.fetchUserRaw(ctx, g.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	return normalizeGoogleUser(raw), nil
}

// normalizeGoogleUser maps OIDC userinfo claims. given_name/family_name
// are preferred; a bare name claim is split only when both are absent.
func normalizeGoogleUser(raw map[string]any) *core.UserInfo {
	first := strField(raw, "given_name")
	last := strField(raw, "family_name")
	if first == "" && last == "" {
		first, last = splitName(strField(raw, "name"))
	}
	return &core.UserInfo{
		Provider:      "google",
		OAuthID:       strField(raw, "sub"),
		Email:         strptr(strField(raw, "email")),
		EmailVerified: boolField(raw, "email_verified"),
		FirstName:     strptr(first),
		LastName:      strptr(last),
		AvatarURL:     strptr(strField(raw, "picture")),
		ProfileURL:    strptr(strField(raw, "profile")),
		Raw:           raw,
	}
}
