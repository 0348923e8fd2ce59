package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/app"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	cfg.ConfigureLogger()

	ctx := context.Background()
	backend, err := app.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open data backend")
	}
	defer backend.Close(context.Background())

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}
	if err := app.BootstrapAdmin(ctx, cfg, backend.Users, authService); err != nil {
		log.WithError(err).Fatal("Failed to create admin user")
	}
	if !cfg.AuthEnabled {
		log.Warn("Authentication disabled, every request runs as admin")
	}

	logger := log.StandardLogger()
	svc := app.NewAnalytics(cfg, backend, logger)
	router := handlers.NewRouter(
		handlers.NewAnalyticsHandler(svc),
		handlers.NewAuthHandler(authService, backend.Users),
		middleware.NewAuthMiddleware(authService, cfg.AuthEnabled),
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute, // training runs inside the request
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		// sweep expired cache entries
		ticker := time.NewTicker(cfg.CacheTTL)
		defer ticker.Stop()
		for range ticker.C {
			if n := svc.Cache.CleanupExpired(); n > 0 {
				log.WithField("entries", n).Debug("Dropped expired cache entries")
			}
		}
	}()

	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Port,
			"backend": cfg.DataBackend,
			"models":  cfg.ModelStore,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-stop
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
