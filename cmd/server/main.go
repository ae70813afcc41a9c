package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cijokb/friendlypix-web-react/internal/backend"
	"github.com/cijokb/friendlypix-web-react/internal/bootstrap"
	"github.com/cijokb/friendlypix-web-react/internal/config"
	"github.com/cijokb/friendlypix-web-react/internal/crypto"
	"github.com/cijokb/friendlypix-web-react/internal/logging"
	"github.com/cijokb/friendlypix-web-react/internal/redis"
	"github.com/cijokb/friendlypix-web-react/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupSealer(cfg *config.Config) crypto.Sealer {
	if cfg.TokenSealKey == "" {
		return crypto.NoopSealer{}
	}
	sealer, err := crypto.NewAESGCMSealer(cfg.TokenSealKey)
	if err != nil {
		slog.Error("Failed to create token sealer", "error", err)
		os.Exit(1)
	}
	return sealer
}

func setupBackend(cfg *config.Config) *backend.FirebaseClient {
	artifact, err := backend.LoadConfigArtifact(cfg.ConfigArtifactPath)
	if err != nil {
		slog.Error("Failed to load backend config artifact", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := backend.NewFirebaseClient(ctx, artifact)
	if err != nil {
		slog.Error("Failed to initialize backend client", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, fbClient *backend.FirebaseClient) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if err := fbClient.Close(); err != nil {
			slog.Error("Backend client close error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	sealer := setupSealer(cfg)
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions := redis.NewSessionStore(redisClient.Underlying(), clock, sealer, sessionTTL)

	fbClient := setupBackend(cfg)

	srv, err := server.NewServer(cfg, sessions, redisClient, fbClient, clock)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, fbClient)

	boot := bootstrap.New(bootstrap.Deps{
		Runtime:      srv,
		ArtifactPath: cfg.ConfigArtifactPath,
		NewClient: func(context.Context, backend.Config) (backend.Client, error) {
			return fbClient, nil
		},
		Cookies:  srv,
		Renderer: srv,
	})

	// Auth resolution starts concurrently with the bootstrap sequence;
	// a fresh instance has no stored session and resolves signed out.
	go func() {
		if err := fbClient.Resolve(context.Background(), ""); err != nil {
			slog.Error("Initial session resolution failed", "error", err)
		}
	}()

	go func() {
		if err := boot.Run(context.Background()); err != nil {
			slog.Error("Bootstrap failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Bootstrap complete, root view mounted")
	}()

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
