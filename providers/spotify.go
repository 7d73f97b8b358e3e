package providers

import (
	"context"

	"github.com/open-rails/oauthkit/core"
	"golang.org/x/oauth2/spotify"
)

const (
	spotifyUserURL = "https://api.spotify.com/v1/me"
	spotifyScope   = "user-read-email user-read-private"
)

// Spotify implements OAuth 2.0 against the Spotify Web API.
type Spotify struct {
	base
}

func NewSpotify(cfg core.ProviderConfig, tr core.Transport) *Spotify {
	return &Spotify{
		base: newBase("spotify", cfg, tr,
			spotify.Endpoint.AuthURL, spotify.Endpoint.TokenURL,
			spotifyUserURL, "", spotifyScope),
	}
}

func (s *Spotify) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := s.fetchUserRaw(ctx, s.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	return normalizeSpotifyUser(raw), nil
}

// normalizeSpotifyUser maps a /v1/me response. Spotify never attests
// email ownership, so email_verified stays false. The avatar is the
// first profile image, the profile URL the spotify external URL.
func normalizeSpotifyUser(raw map[string]any) *core.UserInfo {
	first, last := splitName(strField(raw, "display_name"))
	var avatar *string
	if images, ok := raw["images"].([]any); ok && len(images) > 0 {
		if img, ok := images[0].(map[string]any); ok {
			avatar = strptr(strField(img, "url"))
		}
	}
	var profile *string
	if urls, ok := raw["external_urls"].(map[string]any); ok {
		profile = strptr(strField(urls, "spotify"))
	}
	return &core.UserInfo{
		Provider:   "spotify",
		OAuthID:    strField(raw, "id"),
		Email:      strptr(strField(raw, "email")),
		Username:   strptr(strField(raw, "id")),
		FirstName:  strptr(first),
		LastName:   strptr(last),
		AvatarURL:  avatar,
		ProfileURL: profile,
		Raw:        raw,
	}
}
