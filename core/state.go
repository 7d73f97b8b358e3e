package core

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// DefaultStateTTL matches the usual consent-page round trip budget.
const DefaultStateTTL = 10 * time.Minute

// ReapGrace keeps an expired entry in the backing store long enough for
// a late callback to be told the state expired rather than that it
// never existed. After the grace lapses the entry may be reaped and a
// consume degrades to ErrInvalidState; both are terminal either way.
const ReapGrace = time.Minute

// stateTokenBytes gives 256 bits of entropy per token.
const stateTokenBytes = 32

// State binds one authorization request to its eventual callback.
// A token is valid for exactly one successful consumption.
type State struct {
	Token       string            `json:"-"`
	Provider    string            `json:"provider"`
	RedirectURI string            `json:"redirect_uri"`
	NextURL     string            `json:"next_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// KV is the keyed store behind the StateStore. Take must be an atomic
// check-and-remove: under concurrent callers racing on one key, exactly
// one sees ok=true. A multi-process deployment supplies a shared
// implementation (see storage/redis); single-process uses
// storage/memory.
type KV interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Take(ctx context.Context, key string) (value []byte, ok bool, err error)
}

const stateKeyPrefix = "oauth:state:"

// StateStore generates, stores, and atomically consumes CSRF state
// tokens. It holds no state of its own beyond the injected KV and is
// safe for concurrent use.
type StateStore struct {
	kv KV
}

func NewStateStore(kv KV) *StateStore {
	return &StateStore{kv: kv}
}

// Create mints a state token for provider and stores it with the given
// TTL (zero means DefaultStateTTL). extra survives the round trip for
// the caller; it must not contain secrets.
func (s *StateStore) Create(ctx context.Context, provider, redirectURI, nextURL string, ttl time.Duration, extra map[string]string) (*State, error) {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	token, err := newStateToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	st := &State{
		Token:       token,
		Provider:    provider,
		RedirectURI: redirectURI,
		NextURL:     nextURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		Extra:       extra,
	}
	b, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	// Store past the logical expiry so Consume can distinguish
	// "expired" from "never existed" inside the grace window.
	if err := s.kv.Put(ctx, stateKeyPrefix+token, b, ttl+ReapGrace); err != nil {
		return nil, fmt.Errorf("state store put: %w", err)
	}
	return st, nil
}

// Consume atomically looks up and removes the state for token. The
// first caller to win the removal gets the State; every other caller,
// and any unknown token, gets ErrInvalidState. ErrExpiredState is
// returned when the TTL lapsed, ErrProviderMismatch when
// expectedProvider (if non-empty) differs from the recorded provider.
// A consumed-then-failed flow is not rolled back: the user
// re-authenticates.
func (s *StateStore) Consume(ctx context.Context, token, expectedProvider string) (*State, error) {
	if token == "" {
		return nil, ErrInvalidState
	}
	b, ok, err := s.kv.Take(ctx, stateKeyPrefix+token)
	if err != nil {
		return nil, fmt.Errorf("state store take: %w", err)
	}
	if !ok {
		return nil, ErrInvalidState
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, ErrInvalidState
	}
	st.Token = token
	if time.Now().After(st.ExpiresAt) {
		return nil, ErrExpiredState
	}
	if expectedProvider != "" && st.Provider != expectedProvider {
		return nil, fmt.Errorf("%w: state bound to %q, callback handled as %q", ErrProviderMismatch, st.Provider, expectedProvider)
	}
	return &st, nil
}

func newStateToken() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("state token entropy: %w", err)
	}
	return base58.Encode(b), nil
}
