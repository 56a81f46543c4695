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

	"github.com/go-auth-code/internal/config"
	"github.com/go-auth-code/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-code/internal/infrastructure/jwt"
	redisinfra "github.com/go-auth-code/internal/infrastructure/redis"
	applog "github.com/go-auth-code/internal/log"
	"github.com/go-auth-code/internal/metrics"
	transporthttp "github.com/go-auth-code/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := applog.New(os.Stdout, cfg.DevMode, cfg.SlogLevel())
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		slog.Error("dynamo client", "err", err)
		os.Exit(1)
	}
	if cfg.DynamoBootstrap {
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	}

	deps := &transporthttp.Deps{
		CodeRepo:     dynamo.NewLoginCodeRepo(dynamoClient, cfg.DynamoTables.LoginCodes),
		IdentityRepo: dynamo.NewIdentityRepo(dynamoClient, cfg.DynamoTables.Identities),
		ProfileRepo:  dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.UserProfiles),
	}

	// Signed tokens are optional; without keys verify-code issues placeholder tokens.
	if cfg.JWTEnabled() {
		p, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			slog.Warn("JWT provider not available, using placeholder tokens", "err", err)
		} else {
			deps.Tokens = p
		}
	}

	if cfg.RedisURL != "" {
		rc, err := redisinfra.NewClient(cfg.RedisURL)
		if err != nil {
			slog.Warn("send throttle disabled", "err", err)
		} else {
			defer rc.Close()
			deps.Throttle = redisinfra.NewSendThrottle(rc, cfg.SendCodeWindow, cfg.SendCodeMax)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "dev_mode", cfg.DevMode, "role_policy", cfg.RolePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
		return
	}
	slog.Info("server stopped")
}
