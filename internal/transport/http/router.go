package http

import (
	"context"
	"net/http"

	"github.com/go-auth-code/internal/application/logincode"
	"github.com/go-auth-code/internal/application/profile"
	"github.com/go-auth-code/internal/config"
	"github.com/go-auth-code/internal/metrics"
	"github.com/go-auth-code/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-code/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of background work started by middleware.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustedProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, per client IP on the login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	profileSvc := profile.NewService(profile.ServiceDeps{
		Repo:   deps.ProfileRepo,
		Policy: cfg.RolePolicy,
	})
	svcDeps := logincode.ServiceDeps{
		CodeRepo:     deps.CodeRepo,
		IdentityRepo: deps.IdentityRepo,
		Profiles:     profileSvc,
		CodeTTL:      cfg.CodeTTL,
		DevMode:      cfg.DevMode,
	}
	if deps.Tokens != nil {
		svcDeps.Tokens = deps.Tokens
	}
	if deps.Throttle != nil {
		svcDeps.Throttle = deps.Throttle
	}
	codeSvc := logincode.NewService(svcDeps)

	healthH := handler.NewHealthHandler(cfg)
	codeH := handler.NewAuthCodeHandler(codeSvc, cfg.DevMode)

	r.Get("/health", healthH.Health)
	if cfg.DevMode || cfg.DebugEndpoints {
		r.Get("/debug/env", healthH.DebugEnv)
	}
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Use(sensitiveRL.Limit)
		r.Post("/send-code", codeH.SendCode)
		r.Post("/verify-code", codeH.VerifyCode)
	})

	return r
}
