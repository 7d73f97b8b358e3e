package idtoken

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://idp.example"
	testAudience = "client-123"
	testKid      = "key-1"
)

type signer struct {
	key     *rsa.PrivateKey
	jwksURL string
}

func newSigner(t *testing.T) *signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pub, err := jwk.FromRaw(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, testKid))
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)
	return &signer{key: key, jwksURL: srv.URL}
}

func (s *signer) sign(t *testing.T, claims jwt.MapClaims, kid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	raw, err := tok.SignedString(s.key)
	require.NoError(t, err)
	return raw
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            testAudience,
		"sub":            "user-1",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"iat":            time.Now().Unix(),
		"email":          "u@example.com",
		"email_verified": true,
		"name":           "Ada Lovelace",
		"nonce":          "n-1",
	}
}

func newVerifier(t *testing.T, s *signer) *Verifier {
	t.Helper()
	v, err := New(context.Background(), testIssuer, testAudience, s.jwksURL)
	require.NoError(t, err)
	return v
}

func TestVerifyValidToken(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	claims, err := v.Verify(context.Background(), s.sign(t, baseClaims(), testKid), "n-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "u@example.com", claims.Email)
	require.True(t, claims.EmailVerified)
	require.Equal(t, "Ada Lovelace", claims.Name)
	require.Equal(t, "n-1", claims.Nonce)
}

func TestVerifyNonceOptional(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	// Empty expected nonce skips the check entirely.
	_, err := v.Verify(context.Background(), s.sign(t, baseClaims(), testKid), "")
	require.NoError(t, err)
}

func TestVerifyNonceMismatch(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	_, err := v.Verify(context.Background(), s.sign(t, baseClaims(), testKid), "other-nonce")
	require.Error(t, err)
}

func TestVerifyWrongIssuer(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	c := baseClaims()
	c["iss"] = "https://attacker.example"
	_, err := v.Verify(context.Background(), s.sign(t, c, testKid), "")
	require.Error(t, err)
}

func TestVerifyWrongAudience(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	c := baseClaims()
	c["aud"] = "someone-else"
	_, err := v.Verify(context.Background(), s.sign(t, c, testKid), "")
	require.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	c := baseClaims()
	c["exp"] = time.Now().Add(-time.Hour).Unix()
	_, err := v.Verify(context.Background(), s.sign(t, c, testKid), "")
	require.Error(t, err)
}

func TestVerifyMissingExpiry(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	c := baseClaims()
	delete(c, "exp")
	_, err := v.Verify(context.Background(), s.sign(t, c, testKid), "")
	require.Error(t, err)
}

func TestVerifyUnknownKeyID(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	_, err := v.Verify(context.Background(), s.sign(t, baseClaims(), "rotated-away"), "")
	require.Error(t, err)
}

func TestVerifyRejectsWrongSigningKey(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	// Token signed by a different key but claiming the published kid.
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims())
	tok.Header["kid"] = testKid
	raw, err := tok.SignedString(other)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw, "")
	require.Error(t, err)
}

func TestVerifyRejectsHMAC(t *testing.T) {
	s := newSigner(t)
	v := newVerifier(t, s)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims())
	tok.Header["kid"] = testKid
	raw, err := tok.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw, "")
	require.Error(t, err)
}

func TestNewRequiresAllFields(t *testing.T) {
	_, err := New(context.Background(), "", testAudience, "https://idp.example/jwks")
	require.Error(t, err)
	_, err = New(context.Background(), testIssuer, "", "https://idp.example/jwks")
	require.Error(t, err)
	_, err = New(context.Background(), testIssuer, testAudience, "")
	require.Error(t, err)
}
