// Dev server for oauthkit: wires the engine, the reference HTTP
// adapter, and a memory- or redis-backed state store from environment
// variables. Not a production deployment; a starting point for one.
//
// Minimal run:
//
//	OAUTHKIT_BASE_URL=http://localhost:8080 \
//	OAUTH_GITHUB_CLIENT_ID=... OAUTH_GITHUB_CLIENT_SECRET=... \
//	go run .
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	authhttp "github.com/open-rails/oauthkit/adapters/http"
	"github.com/open-rails/oauthkit/core"
	"github.com/open-rails/oauthkit/providers"
	memorystore "github.com/open-rails/oauthkit/storage/memory"
	redisstore "github.com/open-rails/oauthkit/storage/redis"
)

// providerSlugs are the names the devserver scans the environment for.
var providerSlugs = []string{
	"github", "google", "discord", "facebook",
	"microsoft", "gitlab", "spotify", "linkedin", "oidc",
}

func main() {
	log, err := buildLogger()
	if err != nil {
		fatal(err)
	}
	defer log.Sync()

	cfg := loadConfig()

	var kv core.KV
	var stopKV func()
	if addr := os.Getenv("OAUTHKIT_REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		kv = redisstore.NewKV(rdb)
		stopKV = func() { _ = rdb.Close() }
		log.Info("state store: redis", zap.String("addr", addr))
	} else {
		mem := memorystore.NewKV()
		if err := mem.StartReaper(time.Minute); err != nil {
			fatal(err)
		}
		kv = mem
		stopKV = mem.Stop
		log.Info("state store: memory")
	}
	defer stopKV()

	svc := core.NewService(core.NewStateStore(kv))
	if err := providers.Configure(svc, cfg, core.NewHTTPTransport(0)); err != nil {
		fatal(err)
	}
	if len(svc.Providers()) == 0 {
		fatal(errors.New("no providers configured; set OAUTH_<PROVIDER>_CLIENT_ID/SECRET"))
	}
	log.Info("providers configured", zap.Strings("providers", svc.Providers()))

	adapter := authhttp.New(svc, cfg, log)
	mux := http.NewServeMux()
	mux.Handle("/auth/", adapter.Handler())
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"providers": svc.Providers()})
	})

	addr := envDefault("OAUTHKIT_LISTEN", ":8080")
	srv := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func loadConfig() *core.Config {
	cfg := &core.Config{
		RedirectBaseURL: os.Getenv("OAUTHKIT_BASE_URL"),
		RoutePrefix:     envDefault("OAUTHKIT_ROUTE_PREFIX", core.DefaultRoutePrefix),
		SuccessRedirect: os.Getenv("OAUTHKIT_SUCCESS_REDIRECT"),
		FailureRedirect: os.Getenv("OAUTHKIT_FAILURE_REDIRECT"),
		Providers:       map[string]core.ProviderConfig{},
	}
	if v := os.Getenv("OAUTHKIT_STATE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StateTTL = d
		}
	}
	if v := os.Getenv("OAUTHKIT_PROVIDERS"); v != "" {
		cfg.EnabledProviders = strings.Split(v, ",")
	}
	for _, slug := range providerSlugs {
		prefix := "OAUTH_" + strings.ToUpper(slug) + "_"
		pc := core.ProviderConfig{
			ClientID:     os.Getenv(prefix + "CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "CLIENT_SECRET"),
			Scope:        os.Getenv(prefix + "SCOPE"),
			Tenant:       os.Getenv(prefix + "TENANT"),
			BaseURL:      os.Getenv(prefix + "BASE_URL"),
			DiscoveryURL: os.Getenv(prefix + "DISCOVERY_URL"),
		}
		if pc.ClientID != "" {
			cfg.Providers[slug] = pc
		}
	}
	return cfg
}

func buildLogger() (*zap.Logger, error) {
	if strings.EqualFold(os.Getenv("OAUTHKIT_ENV"), "prod") {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "oauthkit-devserver:", err)
	os.Exit(1)
}
