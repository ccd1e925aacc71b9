// Command lanahead runs the LAN Ahead backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	authsvc "github.com/lanahead/lanahead/internal/auth"
	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/auth/providers/google"
	"github.com/lanahead/lanahead/internal/auth/providers/steam"
	"github.com/lanahead/lanahead/internal/auth/providers/twitch"
	"github.com/lanahead/lanahead/internal/cache"
	"github.com/lanahead/lanahead/internal/config"
	authctrl "github.com/lanahead/lanahead/internal/http/controllers/auth"
	healthctrl "github.com/lanahead/lanahead/internal/http/controllers/health"
	playerctrl "github.com/lanahead/lanahead/internal/http/controllers/player"
	settingsctrl "github.com/lanahead/lanahead/internal/http/controllers/settings"
	validatectrl "github.com/lanahead/lanahead/internal/http/controllers/validate"
	"github.com/lanahead/lanahead/internal/http/router"
	"github.com/lanahead/lanahead/internal/metrics"
	"github.com/lanahead/lanahead/internal/observability/logger"
	"github.com/lanahead/lanahead/internal/session"
	"github.com/lanahead/lanahead/internal/store/pg"
)

var version = "dev"

func main() {
	// Missing .env is fine; the environment may be set by the host.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "lanahead",
		Short:         "LAN Ahead backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), configPath)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "lanahead",
		Version:     version,
	})
	return cfg, nil
}

func migrate(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := pg.New(ctx, pg.Config{DSN: cfg.Storage.DSN})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	logger.L().Info("migrations applied")
	return nil
}

func serve(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := pg.New(ctx, pg.Config{
		DSN:             cfg.Storage.DSN,
		MaxConns:        int32(cfg.Storage.Postgres.MaxOpenConns),
		MinConns:        int32(cfg.Storage.Postgres.MaxIdleConns),
		ConnMaxLifetime: parseDuration(cfg.Storage.Postgres.ConnMaxLifetime),
	})
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()

	cacheTTL := parseDuration(cfg.Cache.Memory.DefaultTTL)
	cacheClient, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cacheTTL,
	})
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}
	defer cacheClient.Close() //nolint:errcheck

	m := metrics.New()

	cookiePath := cfg.Server.InstallPath
	if cookiePath == "" {
		cookiePath = "/"
	}
	sessions := session.NewManager(cacheClient, session.Config{
		CookieName: cfg.Session.CookieName,
		Path:       cookiePath,
		Secure:     cfg.Session.Secure,
		SameSite:   cfg.Session.SameSite,
		TTL:        cfg.SessionTTL(),
	})
	remember := authsvc.NewRemember(store.RememberTokens(), authsvc.RememberConfig{
		CookieName: cfg.Remember.CookieName,
		Path:       cookiePath,
		Secure:     cfg.Session.Secure,
		TTL:        cfg.RememberTTL(),
		Observe: func(verified bool) {
			if verified {
				m.ObserveRememberVerify(metrics.OutcomeVerified)
			} else {
				m.ObserveRememberVerify(metrics.OutcomeRejected)
			}
		},
	})

	svc := authsvc.NewService(store, remember, buildProviders(cfg)...)
	for _, site := range svc.Sites() {
		log.Info("sign-in site configured", logger.Site(site.ID))
	}

	handler := router.New(router.Deps{
		Auth:               authctrl.NewController(svc, m),
		Player:             playerctrl.NewController(store.Players()),
		Settings:           settingsctrl.NewController(store.Accounts()),
		Validate:           validatectrl.NewController(store.Players(), store.Emails()),
		Health:             healthctrl.NewController(store, cacheClient),
		AuthService:        svc,
		Sessions:           sessions,
		Metrics:            m,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// buildProviders turns the configured site credentials into adapters. A site
// without credentials is simply not offered.
func buildProviders(cfg *config.Config) []providers.Provider {
	baseURL := cfg.Server.BaseURL + cfg.Server.InstallPath
	client := providers.NewHTTPClient()

	var adapters []providers.Provider
	if cfg.Sites.Twitch.ClientID != "" {
		adapters = append(adapters, twitch.New(cfg.Sites.Twitch.ClientID, cfg.Sites.Twitch.ClientSecret, baseURL, client))
	}
	if cfg.Sites.Google.ClientID != "" {
		adapters = append(adapters, google.New(cfg.Sites.Google.ClientID, cfg.Sites.Google.ClientSecret, baseURL, client))
	}
	if cfg.Sites.Steam.Enabled {
		adapters = append(adapters, steam.New(baseURL, client))
	}
	return adapters
}

// parseDuration trusts config.Load to have validated the string already.
func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
