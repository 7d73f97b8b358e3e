// Package idtoken verifies OpenID Connect id_tokens against a
// provider's published JWKS. It is deliberately narrow: signature,
// issuer, audience, expiry, and optional nonce — and it fails closed
// on every mismatch rather than surfacing unverified claims.
package idtoken

import (
	"context"
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Verifier validates id_tokens for one issuer/client pair. The JWKS is
// fetched lazily and cached with background refresh, so key rotation
// upstream does not require a new Verifier.
type Verifier struct {
	issuer   string
	audience string
	jwksURL  string
	cache    *jwk.Cache
}

// New registers the JWKS location. ctx bounds the cache's refresh
// lifetime and should outlive the verifier's use.
func New(ctx context.Context, issuer, audience, jwksURL string) (*Verifier, error) {
	if issuer == "" || audience == "" || jwksURL == "" {
		return nil, errors.New("idtoken: issuer, audience, and jwks url are all required")
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL); err != nil {
		return nil, fmt.Errorf("idtoken: register jwks: %w", err)
	}
	return &Verifier{
		issuer:   issuer,
		audience: audience,
		jwksURL:  jwksURL,
		cache:    cache,
	}, nil
}

// Claims is the subset of id_token claims the engine cares about, plus
// the raw claim set for callers that need more.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	GivenName     string
	FamilyName    string
	Picture       string
	Nonce         string

	Raw jwt.MapClaims
}

// Verify checks signature, issuer, audience, and expiry, and — when
// expectedNonce is non-empty — the nonce claim. Any failure is
// terminal; no claims are returned from an unverified token.
func (v *Verifier) Verify(ctx context.Context, rawToken, expectedNonce string) (*Claims, error) {
	keyfunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("id_token missing kid header")
		}
		set, err := v.cache.Get(ctx, v.jwksURL)
		if err != nil {
			return nil, fmt.Errorf("jwks fetch: %w", err)
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("jwks has no key %q", kid)
		}
		var pub any
		if err := key.Raw(&pub); err != nil {
			return nil, fmt.Errorf("jwks key %q: %w", kid, err)
		}
		return pub, nil
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(rawToken, claims, keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("idtoken: %w", err)
	}
	if !tok.Valid {
		return nil, errors.New("idtoken: invalid token")
	}
	if expectedNonce != "" {
		if got, _ := claims["nonce"].(string); got != expectedNonce {
			return nil, errors.New("idtoken: nonce mismatch")
		}
	}

	out := &Claims{
		Subject:    strClaim(claims, "sub"),
		Email:      strClaim(claims, "email"),
		Name:       strClaim(claims, "name"),
		GivenName:  strClaim(claims, "given_name"),
		FamilyName: strClaim(claims, "family_name"),
		Picture:    strClaim(claims, "picture"),
		Nonce:      strClaim(claims, "nonce"),
		Raw:        claims,
	}
	if b, ok := claims["email_verified"].(bool); ok {
		out.EmailVerified = b
	}
	return out, nil
}

func strClaim(m jwt.MapClaims, key string) string {
	s, _ := m[key].(string)
	return s
}
