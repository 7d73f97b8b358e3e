package providers

import (
	"context"
	"fmt"

	"github.com/open-rails/oauthkit/core"
	"golang.org/x/oauth2/facebook"
)

const (
	facebookUserURL = "https://graph.facebook.com/v18.0/me?fields=id,name,first_name,last_name,email,link"
	facebookScope   = "email public_profile"
)

// Facebook implements OAuth 2.0 against the Graph API. The Graph
// returns no avatar field; the picture edge URL is synthesized from
// the user id. Facebook issues no refresh tokens, so RefreshToken
// surfaces whatever the upstream rejects it with.
type Facebook struct {
	base
}

func NewFacebook(cfg core.ProviderConfig, tr core.Transport) *Facebook {
	return &Facebook{
		base: newBase("facebook", cfg, tr,
			facebook.Endpoint.AuthURL, facebook.Endpoint.TokenURL,
			facebookUserURL, "", facebookScope),
	}
}

func (f *Facebook) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := f.fetchUserRaw(ctx, f.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	return normalizeFacebookUser(raw), nil
}

// normalizeFacebookUser maps a Graph me response. Facebook only hands
// out addresses it has confirmed, so a present email counts verified.
func normalizeFacebookUser(raw map[string]any) *core.UserInfo {
	first := strField(raw, "first_name")
	last := strField(raw, "last_name")
	if first == "" && last == "" {
		first, last = splitName(strField(raw, "name"))
	}
	id := strField(raw, "id")
	email := strField(raw, "email")
	var avatar *string
	if id != "" {
		avatar = strptr(fmt.Sprintf("https://graph.facebook.com/%s/picture?type=large", id))
	}
	return &core.UserInfo{
		Provider:      "facebook",
		OAuthID:       id,
		Email:         strptr(email),
		EmailVerified: email != "",
		FirstName:     strptr(first),
		LastName:      strptr(last),
		AvatarURL:     avatar,
		ProfileURL:    strptr(strField(raw, "link")),
		Raw:           raw,
	}
}
