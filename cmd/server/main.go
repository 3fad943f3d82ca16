package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forkhub/internal/authz"
	"forkhub/internal/config"
	"forkhub/internal/db"
	"forkhub/internal/logging"
	"forkhub/internal/middleware"
	"forkhub/internal/router"
	"forkhub/internal/views"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	for _, w := range cfg.Warnings() {
		logging.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Init(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	renderer, err := views.Load(cfg.Server.TemplatesDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load templates")
	}

	r, err := router.NewEngine(cfg.Server.TrustedProxies)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create engine")
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	store := cookie.NewStore([]byte(cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cfg.Session.Name, store))

	r.HTMLRender = renderer
	r.Static("/static", cfg.Server.StaticDir)
	r.Static("/upload", cfg.Upload.LocalDir)
	r.MaxMultipartMemory = cfg.Upload.MaxBytes

	limiter, err := middleware.NewRateLimiter(cfg.Server.AuthRateLimit, time.Minute)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create rate limiter")
	}
	router.RegisterRoutes(r, router.NewServices(conn, cfg.Upload), enforcer, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.MethodOverride(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("forkhub server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
}
