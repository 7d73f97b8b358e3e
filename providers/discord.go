package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/open-rails/oauthkit/core"
)

const (
	discordAuthorizeURL = "https://discord.com/api/oauth2/authorize"
	discordTokenURL     = "https://discord.com/api/oauth2/token"
	discordUserURL      = "https://discord.com/api/users/@me"
	discordRevokeURL    = "https://discord.com/api/oauth2/token/revoke"
	discordCDN          = "https://cdn.discordapp.com"
	discordScope        = "identify email"
)

// Discord implements OAuth 2.0 against discord.com. The API returns
// only an avatar hash; the canonical CDN URL is synthesized here, with
// the a_ hash prefix selecting the animated variant.
type Discord struct {
	base
}

func NewDiscord(cfg core.ProviderConfig, tr core.Transport) *Discord {
	return &Discord{
		base: newBase("discord", cfg, tr,
			discordAuthorizeURL, discordTokenURL,
			discordUserURL, discordRevokeURL, discordScope),
	}
}

func (d *Discord) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := d.fetchUserRaw(ctx, d.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	return normalizeDiscordUser(raw), nil
}

// normalizeDiscordUser maps a /users/@me response. Usernames follow the
// post-discriminator system: a "0" (or absent) discriminator means the
// username stands alone; legacy accounts keep the #NNNN suffix.
func normalizeDiscordUser(raw map[string]any) *core.UserInfo {
	id := strField(raw, "id")
	username := strField(raw, "username")
	discriminator := strField(raw, "discriminator")
	if username != "" && discriminator != "" && discriminator != "0" {
		username = username + "#" + discriminator
	}
	first, last := splitName(strField(raw, "global_name"))
	var profileURL *string
	if id != "" {
		profileURL = strptr("https://discord.com/users/" + id)
	}
	return &core.UserInfo{
		Provider:      "discord",
		OAuthID:       id,
		Email:         strptr(strField(raw, "email")),
		EmailVerified: boolField(raw, "verified"),
		Username:      strptr(username),
		FirstName:     strptr(first),
		LastName:      strptr(last),
		AvatarURL:     strptr(discordAvatarURL(id, strField(raw, "avatar"), discriminator)),
		ProfileURL:    profileURL,
		Raw:           raw,
	}
}

// discordAvatarURL builds the CDN avatar URL from the hash the API
// returns. Animated hashes (a_ prefix) get .gif, the rest .png; users
// without a custom avatar get the deterministic default-avatar index
// ((id >> 22) % 6 for the new username system, discriminator % 5 for
// legacy accounts).
func discordAvatarURL(id, hash, discriminator string) string {
	if id == "" {
		return ""
	}
	if hash == "" {
		var idx uint64
		if discriminator == "" || discriminator == "0" {
			n, err := strconv.ParseUint(id, 10, 64)
			if err != nil {
				return ""
			}
			idx = (n >> 22) % 6
		} else {
			n, err := strconv.ParseUint(discriminator, 10, 64)
			if err != nil {
				return ""
			}
			idx = n % 5
		}
		return fmt.Sprintf("%s/embed/avatars/%d.png", discordCDN, idx)
	}
	ext := "png"
	if strings.HasPrefix(hash, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("%s/avatars/%s/%s.%s", discordCDN, id, hash, ext)
}
