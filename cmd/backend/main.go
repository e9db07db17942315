// Package main provides the entry point for the Shortly URL shortener service.
//
//	@title			Shortly URL Shortener API
//	@version		1.0.0
//	@description	URL shortener with visit accounting and password or GitHub login.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:4568
//	@BasePath	/
package main

import (
	"Shortly-Backend/internal/analytics"
	"Shortly-Backend/internal/auth"
	"Shortly-Backend/internal/cache"
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/database"
	"Shortly-Backend/internal/domain"
	httpHandler "Shortly-Backend/internal/handler/http"
	"Shortly-Backend/internal/repository/gormstore"
	"Shortly-Backend/internal/service"
	"Shortly-Backend/pkg/logger"
	"Shortly-Backend/pkg/pagetitle"
	"Shortly-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "Shortly-Backend/docs" // Import swagger docs
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting shortly", zap.String("env", cfg.Env), zap.String("db_driver", cfg.Database.Driver))

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	storage := gormstore.New(db, log)

	parser, err := useragent.NewParser(cfg.UserAgent.RegexesPath, log)
	if err != nil {
		log.Fatal("failed to initialize User-Agent parser", zap.Error(err))
	}

	linkCache, closeCache, err := newLinkCache(&cfg.Cache, log)
	if err != nil {
		log.Fatal("failed to initialize link cache", zap.Error(err))
	}
	defer func() {
		if err := closeCache(); err != nil {
			log.Error("failed to close link cache", zap.Error(err))
		}
	}()

	processor := analytics.NewProcessor(storage, log, analytics.ProcessorConfig{
		WorkerCount:     cfg.Analytics.WorkerCount,
		BufferSize:      cfg.Analytics.BufferSize,
		RetryAttempts:   cfg.Analytics.RetryAttempts,
		RetryDelay:      cfg.Analytics.RetryDelay,
		ShutdownTimeout: cfg.HTTPServer.ShutdownTimeout,
	})
	if err := processor.Start(); err != nil {
		log.Fatal("failed to start click processor", zap.Error(err))
	}

	// Link registry and redirect engine
	fetcher := pagetitle.New(cfg.URLShortener.TitleFetchTimeout, log)
	registry := service.NewLinkRegistry(storage, fetcher, &cfg.URLShortener, log)
	redirectOpts := []service.RedirectorOption{
		service.WithUserAgentParser(parser),
		service.WithClickRetrier(processor),
	}
	if linkCache != nil {
		redirectOpts = append(redirectOpts, service.WithTargetCache(linkCache))
	}
	redirector := service.NewRedirector(storage, storage, log, redirectOpts...)

	// Authentication
	proxies, err := auth.ParseTrustedProxies(cfg.HTTPServer.TrustedProxies)
	if err != nil {
		log.Fatal("invalid trusted proxies", zap.Error(err))
	}
	credentials := auth.NewCredentialStore(storage, auth.NewPasswordService(), log)
	sessions := auth.NewSessionManager(storage, auth.SessionConfig{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure || cfg.IsProduction(),
		Proxies:    proxies,
	}, log)
	resolver := auth.NewIdentityResolver(credentials, storage, sessions, log)
	states := auth.NewStateService(&auth.StateConfig{
		SecretKey: []byte(cfg.OAuth.StateSecret),
		Issuer:    "Shortly-Backend",
	})

	var github auth.OAuthProvider
	if cfg.OAuth.GitHubClientID != "" {
		provider, err := auth.NewGitHubProvider(auth.GitHubConfig{
			ClientID:     cfg.OAuth.GitHubClientID,
			ClientSecret: cfg.OAuth.GitHubClientSecret,
			RedirectURL:  cfg.OAuth.GitHubRedirectURL,
		})
		if err != nil {
			log.Fatal("failed to configure github login", zap.Error(err))
		}
		github = provider
	} else {
		log.Info("github login disabled (GITHUB_CLIENT_ID not set)")
	}

	pages, err := httpHandler.NewPagesHandler(registry, github != nil, log)
	if err != nil {
		log.Fatal("failed to load page templates", zap.Error(err))
	}

	httpAPIServer := httpHandler.NewServer(httpHandler.Handlers{
		Auth:                 auth.NewAuthHandlers(credentials, resolver, sessions, states, github, cfg.Session.Secure || cfg.IsProduction(), log),
		Links:                httpHandler.NewLinksHandler(registry, storage, log),
		Redirect:             httpHandler.NewRedirectHandler(redirector, proxies, log),
		Health:               httpHandler.NewHealthHandler(storage, processor, log),
		Pages:                pages,
		Middleware:           auth.NewMiddleware(resolver, sessions, cfg.HTTPServer.AllowedOrigins, log),
		RequireAuthToShorten: cfg.URLShortener.RequireAuth,
	}, log)

	server := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      httpAPIServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	purgeCtx, stopPurger := context.WithCancel(context.Background())
	go sessions.RunPurger(purgeCtx, cfg.Session.PurgePeriod)

	go func() {
		log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down shortly...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	stopPurger()
	if err := processor.Stop(); err != nil {
		log.Error("failed to stop click processor", zap.Error(err))
	}
}

// newLinkCache returns a nil cache when caching is disabled. The returned
// func releases the backend.
func newLinkCache(cfg *config.Cache, log *zap.Logger) (cache.Cache[domain.LinkTarget], func() error, error) {
	switch cfg.Driver {
	case "none":
		log.Info("link cache disabled")
		return nil, func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info("link cache using redis", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
		return cache.NewRedis[domain.LinkTarget](client, "shortly:link", cfg.TTL), client.Close, nil
	default:
		log.Info("link cache using memory", zap.Duration("ttl", cfg.TTL))
		c := cache.NewMemory[domain.LinkTarget](cfg.TTL, 10000)
		return c, c.Close, nil
	}
}
