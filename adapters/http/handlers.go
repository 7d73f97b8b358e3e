// Package authhttp is the reference web collaborator for the engine:
// it mounts GET {prefix}/{provider}/login and
// GET {prefix}/{provider}/callback and calls only core operations. The
// engine itself never binds routes; applications that bring their own
// framework wire the same calls themselves.
package authhttp

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/open-rails/oauthkit/core"
)

// SuccessFunc lets the embedding application take over a completed
// callback (typically to establish its own session). Returning true
// suppresses the default success redirect.
type SuccessFunc func(w http.ResponseWriter, r *http.Request, res *core.AuthResult) bool

// Service serves the login/callback pair for every registered provider.
type Service struct {
	svc *core.Service
	cfg *core.Config
	log *zap.Logger

	// OnSuccess, when set, runs before the default success redirect.
	OnSuccess SuccessFunc
}

func New(svc *core.Service, cfg *core.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{svc: svc, cfg: cfg, log: log}
}

// Handler mounts the OAuth routes under the configured prefix.
func (s *Service) Handler() http.Handler {
	prefix := s.cfg.RoutePrefix
	if prefix == "" {
		prefix = core.DefaultRoutePrefix
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/{provider}/login", s.handleLoginGET)
	mux.HandleFunc("GET "+prefix+"/{provider}/callback", s.handleCallbackGET)
	return mux
}

func (s *Service) handleLoginGET(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	rid := uuid.NewString()

	redirectURI := s.cfg.CallbackURL(provider)
	if s.cfg.RedirectBaseURL == "" {
		redirectURI = buildRedirectURI(r, provider)
	}
	next := sanitizeNext(r.URL.Query().Get("next"))

	authURL, st, err := s.svc.AuthorizationURL(r.Context(), provider, redirectURI, next, "", nil)
	if err != nil {
		reason := "authorize_failed"
		if errors.Is(err, core.ErrProviderNotConfigured) {
			reason = "unknown_provider"
		}
		s.log.Warn("oauth login failed",
			zap.String("rid", rid),
			zap.String("provider", provider),
			zap.String("reason", reason),
			zap.Error(err))
		s.failure(w, r, reason)
		return
	}

	s.log.Info("oauth login started",
		zap.String("rid", rid),
		zap.String("provider", provider),
		zap.Time("state_expires", st.ExpiresAt))
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Service) handleCallbackGET(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	rid := uuid.NewString()

	if qErr := r.URL.Query().Get("error"); qErr != "" {
		s.log.Warn("oauth callback denied upstream",
			zap.String("rid", rid),
			zap.String("provider", provider),
			zap.String("upstream_error", qErr))
		s.failure(w, r, "provider_denied")
		return
	}
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		s.failure(w, r, "invalid_request")
		return
	}

	res, err := s.svc.CompleteAuthorization(r.Context(), provider, code, state)
	if err != nil {
		reason := callbackReason(err)
		s.log.Warn("oauth callback failed",
			zap.String("rid", rid),
			zap.String("provider", provider),
			zap.String("reason", reason),
			zap.Error(err))
		s.failure(w, r, reason)
		return
	}

	s.log.Info("oauth callback completed",
		zap.String("rid", rid),
		zap.String("provider", provider),
		zap.String("oauth_id", res.User.OAuthID))

	if s.OnSuccess != nil && s.OnSuccess(w, r, res) {
		return
	}
	target := res.State.NextURL
	if target == "" {
		target = s.cfg.SuccessTarget()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// callbackReason maps engine errors onto the generic reason codes the
// failure target may show a user.
func callbackReason(err error) string {
	switch {
	case errors.Is(err, core.ErrExpiredState):
		return "expired_state"
	case errors.Is(err, core.ErrProviderMismatch):
		return "provider_mismatch"
	case errors.Is(err, core.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, core.ErrProviderNotConfigured):
		return "unknown_provider"
	case errors.Is(err, core.ErrTokenExchange):
		return "exchange_failed"
	case errors.Is(err, core.ErrUserInfo):
		return "userinfo_failed"
	}
	return "oauth_failed"
}

func (s *Service) failure(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, appendReason(s.cfg.FailureTarget(), reason), http.StatusFound)
}
