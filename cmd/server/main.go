package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"cars/internal/app"
	"cars/internal/config"
	"cars/internal/handler"
	"cars/internal/logger"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			zl.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			zl.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	store, err := app.OpenStore(ctx, cfg, nrApp, zl)
	if err != nil {
		zl.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.Close()
	zl.Info("store ready", zap.String("driver", store.Driver))

	server := wireServer(store, nrApp, zl, cfg)

	// Start server in goroutine.
	go func() {
		zl.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	zl.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(store *app.Store, nrApp *newrelic.Application, zl *zap.Logger, cfg *config.Config) *http.Server {
	healthHandler := handler.NewHealthHandler(store.Driver, store, store.Cars)

	router := app.NewRouter(app.RouterDeps{
		HealthHandler: healthHandler,
		Logger:        zl,
		NewRelicApp:   nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
