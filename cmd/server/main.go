package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-menu/pkg/simplemenu/api"
	"github.com/tendant/simple-menu/pkg/simplemenu/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, cleanup, err := serverConfig.BuildService(ctx, logger)
	if err != nil {
		slog.Error("Failed to build menu service", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	auth, err := api.NewAuth(api.AuthConfig{
		AdminPassword:   serverConfig.AdminPassword,
		PremiumPassword: serverConfig.PremiumPassword,
		Secret:          serverConfig.SessionSecret,
		TTL:             serverConfig.SessionTTL,
		SecureCookie:    serverConfig.Environment == "production",
	})
	if err != nil {
		slog.Error("Failed to initialize auth", "err", err)
		os.Exit(1)
	}

	menuHandler, err := api.NewHandler(svc, auth,
		api.WithHandlerLogger(logger),
		api.WithMaxRequestBytes(serverConfig.MaxRequestBytes()),
		api.WithMediaPath(serverConfig.MediaPath()),
	)
	if err != nil {
		slog.Error("Failed to initialize handlers", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)
	menuHandler.Register(r)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Simple Menu server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"storage", serverConfig.Storage.Type,
			"database", serverConfig.DatabaseType,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}

	slog.Info("Server exiting")
}
