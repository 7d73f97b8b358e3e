package providers

import (
	"context"
	"fmt"

	"github.com/open-rails/oauthkit/core"
	"golang.org/x/oauth2/github"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
	githubScope     = "read:user user:email"
)

// GitHub implements OAuth 2.0 against github.com. GitHub has no ID
// tokens and frequently hides the profile email, so UserInfo may issue
// one extra call to the emails endpoint.
type GitHub struct {
	base
}

func NewGitHub(cfg core.ProviderConfig, tr core.Transport) *GitHub {
	return &GitHub{
		base: newBase("github", cfg, tr,
			github.Endpoint.AuthURL, github.Endpoint.TokenURL,
			githubUserURL, "", githubScope),
	}
}

// githubEmail is one entry of the /user/emails response.
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// UserInfo fetches the profile and, when the profile email is private,
// exactly one follow-up against /user/emails.
func (g *GitHub) UserInfo(ctx context.Context, accessToken string) (*core.UserInfo, error) {
	raw, err := g.fetchUserRaw(ctx, g.userInfoURL, accessToken)
	if err != nil {
		return nil, err
	}
	user := normalizeGitHubUser(raw)
	if user.Email == nil {
		email, verified, err := g.primaryEmail(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		user.Email = strptr(email)
		user.EmailVerified = verified
	}
	return user, nil
}

// primaryEmail picks from /user/emails: primary-and-verified first,
// then first-verified, then first-listed. No email at all is fine.
// A non-2xx here (scope did not include user:email) degrades to no
// email rather than failing the whole profile fetch.
func (g *GitHub) primaryEmail(ctx context.Context, accessToken string) (email string, verified bool, err error) {
	resp, err := g.tr.Get(ctx, githubEmailsURL, core.BearerHeader(accessToken))
	if err != nil {
		return "", false, fmt.Errorf("github user_emails: %w", err)
	}
	if !resp.OK() {
		return "", false, nil
	}
	var emails []githubEmail
	if err := resp.JSON(&emails); err != nil {
		return "", false, nil
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, emails[0].Verified, nil
	}
	return "", false, nil
}

// normalizeGitHubUser maps a /user response onto the canonical shape.
// A profile-sourced email is not marked verified; only the emails
// endpoint knows that.
func normalizeGitHubUser(raw map[string]any) *core.UserInfo {
	first, last := splitName(strField(raw, "name"))
	return &core.UserInfo{
		Provider:   "github",
		OAuthID:    idString(raw["id"]),
		Email:      strptr(strField(raw, "email")),
		Username:   strptr(strField(raw, "login")),
		FirstName:  strptr(first),
		LastName:   strptr(last),
		AvatarURL:  strptr(strField(raw, "avatar_url")),
		ProfileURL: strptr(strField(raw, "html_url")),
		Raw:        raw,
	}
}
