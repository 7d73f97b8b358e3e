package providers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-rails/oauthkit/core"
)

func TestNormalizeFacebookUser(t *testing.T) {
	u := normalizeFacebookUser(map[string]any{
		"id":         "100001",
		"name":       "Mark Example",
		"first_name": "Mark",
		"last_name":  "Example",
		"email":      "mark@example.com",
		"link":       "https://www.facebook.com/100001",
	})
	require.Equal(t, "facebook", u.Provider)
	require.Equal(t, "100001", u.OAuthID)
	require.Equal(t, "mark@example.com", *u.Email)
	// The graph only returns confirmed addresses.
	require.True(t, u.EmailVerified)
	require.Equal(t, "https://graph.facebook.com/100001/picture?type=large", *u.AvatarURL)
	require.Equal(t, "https://www.facebook.com/100001", *u.ProfileURL)

	u = normalizeFacebookUser(map[string]any{"id": "100002", "name": "No Email"})
	require.Nil(t, u.Email)
	require.False(t, u.EmailVerified)
	require.Equal(t, "No", *u.FirstName)
}

func TestNormalizeMicrosoftUser(t *testing.T) {
	u := normalizeMicrosoftUser(map[string]any{
		"id":                "abc-123",
		"displayName":       "Satya Example",
		"givenName":         "Satya",
		"surname":           "Example",
		"mail":              "satya@contoso.com",
		"userPrincipalName": "satya_contoso.com#EXT#@tenant.onmicrosoft.com",
	})
	require.Equal(t, "microsoft", u.Provider)
	require.Equal(t, "abc-123", u.OAuthID)
	require.Equal(t, "satya@contoso.com", *u.Email)
	require.True(t, u.EmailVerified)

	// Without a directory mail attribute the UPN stands in, unverified.
	u = normalizeMicrosoftUser(map[string]any{
		"id":                "abc-124",
		"userPrincipalName": "guest@tenant.onmicrosoft.com",
	})
	require.Equal(t, "guest@tenant.onmicrosoft.com", *u.Email)
	require.False(t, u.EmailVerified)
}

func TestNormalizeGitLabUser(t *testing.T) {
	u := normalizeGitLabUser(map[string]any{
		"id":           float64(42),
		"username":     "dev",
		"name":         "Dev Eloper",
		"email":        "dev@example.com",
		"confirmed_at": "2023-01-01T00:00:00Z",
		"avatar_url":   "https://gitlab.com/uploads/avatar.png",
		"web_url":      "https://gitlab.com/dev",
	})
	require.Equal(t, "gitlab", u.Provider)
	require.Equal(t, "42", u.OAuthID)
	require.True(t, u.EmailVerified)
	require.Equal(t, "dev", *u.Username)
	require.Equal(t, "https://gitlab.com/dev", *u.ProfileURL)

	u = normalizeGitLabUser(map[string]any{"id": float64(43), "email": "x@example.com"})
	require.False(t, u.EmailVerified)
}

func TestNormalizeSpotifyUser(t *testing.T) {
	u := normalizeSpotifyUser(map[string]any{
		"id":           "wizzler",
		"display_name": "JM Wizzler",
		"email":        "wizzler@example.com",
		"images":       []any{map[string]any{"url": "https://i.scdn.example/avatar"}},
		"external_urls": map[string]any{
			"spotify": "https://open.spotify.com/user/wizzler",
		},
	})
	require.Equal(t, "spotify", u.Provider)
	require.Equal(t, "wizzler", u.OAuthID)
	require.Equal(t, "wizzler", *u.Username)
	// Spotify never attests email ownership.
	require.False(t, u.EmailVerified)
	require.Equal(t, "https://i.scdn.example/avatar", *u.AvatarURL)
	require.Equal(t, "https://open.spotify.com/user/wizzler", *u.ProfileURL)

	u = normalizeSpotifyUser(map[string]any{"id": "bare", "images": []any{}})
	require.Nil(t, u.AvatarURL)
	require.Nil(t, u.ProfileURL)
}

func TestNormalizeLinkedInUser(t *testing.T) {
	u := normalizeLinkedInUser(map[string]any{
		"sub":            "urn-style-id",
		"name":           "Reid Example",
		"given_name":     "Reid",
		"family_name":    "Example",
		"email":          "reid@example.com",
		"email_verified": true,
		"picture":        "https://media.licdn.example/photo",
	})
	require.Equal(t, "linkedin", u.Provider)
	require.Equal(t, "urn-style-id", u.OAuthID)
	require.True(t, u.EmailVerified)
	require.Equal(t, "https://media.licdn.example/photo", *u.AvatarURL)
}

func TestGitLabSelfHostedEndpoints(t *testing.T) {
	cfg := core.ProviderConfig{ClientID: "cid", ClientSecret: "cs", BaseURL: "https://git.corp.example/"}
	g := NewGitLab(cfg, &fakeTransport{})
	require.Equal(t, "https://git.corp.example/oauth/authorize", g.AuthorizeURL())
	require.Equal(t, "https://git.corp.example/oauth/token", g.TokenURL())
	require.Equal(t, "https://git.corp.example/api/v4/user", g.UserInfoURL())
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Ada Lovelace")
	require.Equal(t, "Ada", first)
	require.Equal(t, "Lovelace", last)

	first, last = splitName("Prince")
	require.Equal(t, "Prince", first)
	require.Equal(t, "", last)

	first, last = splitName("  Jean Luc  Picard ")
	require.Equal(t, "Jean", first)
	require.Equal(t, "Luc Picard", last)

	first, last = splitName("")
	require.Equal(t, "", first)
	require.Equal(t, "", last)
}

func TestIDString(t *testing.T) {
	require.Equal(t, "42", idString(float64(42)))
	require.Equal(t, "abc", idString("abc"))
	require.Equal(t, "", idString(nil))
	require.Equal(t, "", idString(true))
}
