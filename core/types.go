// Package core holds the provider-agnostic pieces of the OAuth2
// authorization-code flow: canonical token/profile types, the provider
// contract, the CSRF state store, and the name-keyed service that
// dispatches across providers. It never binds HTTP routes and never
// persists users or tokens; callers own everything it returns.
package core

import "time"

// Token is the normalized response from a provider's token endpoint.
// The zero value is not meaningful; tokens are built from upstream
// responses and owned entirely by the caller.
type Token struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int // seconds; 0 when the provider did not say
	RefreshToken string
	Scope        string
	IDToken      string

	// Raw is the full decoded token response, untouched.
	Raw map[string]any
}

// ExpiresAt converts ExpiresIn into an absolute timestamp.
// ok is false when the provider supplied no lifetime.
func (t *Token) ExpiresAt() (at time.Time, ok bool) {
	if t.ExpiresIn <= 0 {
		return time.Time{}, false
	}
	return time.Now().UTC().Add(time.Duration(t.ExpiresIn) * time.Second), true
}

// UserInfo is a provider profile normalized into one shape.
// (Provider, OAuthID) uniquely identifies an external identity.
// Optional fields are nil when the provider did not supply them;
// they are never synthesized from other fields.
type UserInfo struct {
	Provider      string
	OAuthID       string
	Email         *string
	EmailVerified bool
	Username      *string
	FirstName     *string
	LastName      *string
	AvatarURL     *string
	ProfileURL    *string

	// Raw is the full decoded profile response, untouched.
	Raw map[string]any
}

// FullName joins the name components, tolerating either being absent.
// Returns "" when neither is known.
func (u *UserInfo) FullName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	case u.LastName != nil:
		return *u.LastName
	}
	return ""
}
