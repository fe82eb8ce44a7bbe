package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/soaringjerry/devlevel/internal/api"
	"github.com/soaringjerry/devlevel/internal/config"
	dbstore "github.com/soaringjerry/devlevel/internal/db"
	"github.com/soaringjerry/devlevel/internal/middleware"
)

type ServeCmd struct {
	Addr string `help:"Listen address, overrides server.addr." placeholder:":8080"`
}

func (c *ServeCmd) Run(app *appContext) error {
	cfg, lg := app.cfg, app.logger
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if cfg.InsecureSecret() {
		lg.Warn("using the built-in development JWT secret; set DEVLEVEL_JWT_SECRET in production")
	}

	store, err := openStore(cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			lg.Warn("close store", "err", cerr)
		}
	}()

	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		metrics = middleware.NewMetrics(middleware.MetricsConfig{
			Namespace:   "devlevel",
			Enabled:     true,
			LogRequests: cfg.Metrics.LogRequests,
		}, lg)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimits, lg)
	limiter.TrustProxyHeaders(cfg.Server.TrustProxyHeaders)

	router := api.NewRouter(store, api.Options{
		Logger:                lg,
		Tokens:                middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.CookieName, cfg.Auth.CookieSecure),
		RateLimiter:           limiter,
		Metrics:               metrics,
		MetricsPath:           cfg.Metrics.Path,
		CORSOrigins:           cfg.Server.CORSOrigins,
		DefaultLocale:         cfg.Server.DefaultLocale,
		StaticDir:             cfg.Server.StaticDir,
		Rules:                 cfg.Gamification.Points,
		Curve:                 cfg.Gamification.Level,
		WeeklyWindow:          cfg.Gamification.WeeklyWindow,
		Location:              cfg.Location(),
		TokenTTL:              cfg.Auth.TokenTTL,
		EntryListDefault:      cfg.Limits.EntryListDefault,
		EntryListMax:          cfg.Limits.EntryListMax,
		ReflectionListDefault: cfg.Limits.ReflectionListDefault,
		Commit:                cfg.Build.Commit,
		BuildTime:             cfg.Build.BuildTime,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("devlevel listening", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(cfg config.Config, lg *log.Logger) (api.Store, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		lg.Warn("using the in-memory store; data is lost on restart")
		return api.NewMemoryStore(), nil
	}
	conn, err := openSQLite(cfg)
	if err != nil {
		return nil, err
	}
	store, err := dbstore.NewSQLiteStore(conn, lg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init sqlite store: %w", err)
	}
	return store, nil
}
