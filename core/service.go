package core

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"
)

// Service holds named provider instances and orchestrates the
// authorization-code flow against them. Providers are registered at
// startup; lookups afterwards are read-mostly and concurrency-safe.
type Service struct {
	mu        sync.RWMutex
	providers map[string]Provider
	states    *StateStore
	stateTTL  time.Duration
}

func NewService(states *StateStore) *Service {
	return &Service{
		providers: make(map[string]Provider),
		states:    states,
		stateTTL:  DefaultStateTTL,
	}
}

// SetStateTTL overrides the TTL used for states minted by
// AuthorizationURL. Zero restores the default.
func (s *Service) SetStateTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	s.stateTTL = ttl
}

// States exposes the state store for collaborators that consume states
// themselves (e.g. an HTTP adapter validating a callback).
func (s *Service) States() *StateStore { return s.states }

// Register adds or replaces a provider under its own name.
func (s *Service) Register(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.Name()] = p
}

// Provider returns the registered provider for name.
func (s *Service) Provider(name string) (Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotConfigured, name)
	}
	return p, nil
}

// Providers lists registered provider names, sorted.
func (s *Service) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AuthorizationURL mints a CSRF state bound to provider and builds the
// consent-page URL carrying it. The returned State's token arrives back
// as the callback's state parameter. If URL construction fails after
// the state was stored, the orphaned state is left to TTL reaping.
func (s *Service) AuthorizationURL(ctx context.Context, provider, redirectURI, nextURL, scope string, extra url.Values) (string, *State, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return "", nil, err
	}
	st, err := s.states.Create(ctx, provider, redirectURI, nextURL, s.stateTTL, nil)
	if err != nil {
		return "", nil, err
	}
	authURL, err := p.AuthorizationURL(ctx, redirectURI, st.Token, scope, extra)
	if err != nil {
		return "", nil, err
	}
	return authURL, st, nil
}

// AuthResult is everything a completed callback produced. The engine
// keeps no copy; persisting any of it is the caller's business.
type AuthResult struct {
	State *State
	Token *Token
	User  *UserInfo
}

// CompleteAuthorization finishes the flow for a callback: it consumes
// the state (exactly once, bound to provider), exchanges the code, and
// fetches the normalized profile. State consumption commits before the
// exchange; a failure after that point is terminal for the flow and the
// user simply re-authenticates.
func (s *Service) CompleteAuthorization(ctx context.Context, provider, code, stateToken string) (*AuthResult, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}
	st, err := s.states.Consume(ctx, stateToken, provider)
	if err != nil {
		return nil, err
	}
	tok, err := p.ExchangeCode(ctx, code, st.RedirectURI)
	if err != nil {
		return nil, err
	}
	user, err := p.UserInfo(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	return &AuthResult{State: st, Token: tok, User: user}, nil
}

// Exchange trades an authorization code for a token on the named
// provider, for callers that manage state themselves.
func (s *Service) Exchange(ctx context.Context, provider, code, redirectURI string) (*Token, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}
	return p.ExchangeCode(ctx, code, redirectURI)
}

// Refresh obtains a fresh token from a refresh grant.
func (s *Service) Refresh(ctx context.Context, provider, refreshToken string) (*Token, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}
	return p.RefreshToken(ctx, refreshToken)
}

// Revoke invalidates a token upstream.
func (s *Service) Revoke(ctx context.Context, provider, token, hint string) error {
	p, err := s.Provider(provider)
	if err != nil {
		return err
	}
	return p.RevokeToken(ctx, token, hint)
}

// UserInfo fetches the normalized profile for an access token.
func (s *Service) UserInfo(ctx context.Context, provider, accessToken string) (*UserInfo, error) {
	p, err := s.Provider(provider)
	if err != nil {
		return nil, err
	}
	return p.UserInfo(ctx, accessToken)
}
