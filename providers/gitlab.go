package providers

import (
	"context"
	"strings"

	"github.com/open-rails/oauthkit/core"
	"golang.org/x/oauth2/gitlab"
)

const (
	gitlabUserURL   = "https://gitlab.com/api/v4/user"
	gitlabRevokeURL = "https://gitlab.com/oauth/revoke"
	gitlabScope     = "read_user"
)

// GitLab implements OAuth 2.0 against gitlab.com or, via the BaseURL
// config field, a self-hosted installation — every endpoint is rebuilt
// from that base.
type GitLab struct {
	base
}

func NewGitLab(cfg core.ProviderConfig, tr core.Transport) *GitLab {
	authorize := gitlab.Endpoint.AuthURL
	token := gitlab.Endpoint.TokenURL
	user := gitlabUserURL
	revoke := gitlabRevokeURL
	if cfg.BaseURL != "" {
		b := strings.TrimSuffix(cfg.BaseURL, "/")
		authorize = b + "/oauth/authorize"
		token = b + "/oauth/token"
		user = b + "/api/v4/user"
		revoke = b + "/oauth/revoke"
	}
	return &GitLab{
		base: newBase("gitlab", cfg, tr, authorize, token, user, revoke, gitlabScope),
	}
}

func (g *GitLab) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := g.fetchUserRaw(ctx, g.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	return normalizeGitLabUser(raw), nil
}

// normalizeGitLabUser maps an /api/v4/user response. GitLab only shows
// the email once the account confirmed it, signalled by confirmed_at.
func normalizeGitLabUser(raw map[string]any) *core.UserInfo {
	first, last := splitName(strField(raw, "name"))
	return &core.UserInfo{
		Provider:      "gitlab",
		OAuthID:       idString(raw["id"]),
		Email:         strptr(strField(raw, "email")),
		EmailVerified: strField(raw, "confirmed_at") != "",
		Username:      strptr(strField(raw, "username")),
		FirstName:     strptr(first),
		LastName:      strptr(last),
		AvatarURL:     strptr(strField(raw, "avatar_url")),
		ProfileURL:    strptr(strField(raw, "web_url")),
		Raw:           raw,
	}
}
