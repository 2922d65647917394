package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/handler"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/middleware"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/token"
)

// Deps bundles everything the router wires together.
type Deps struct {
	TokenAuth      *jwtauth.JWTAuth
	Tokens         *token.Service
	RateLimiter    *middleware.RateLimiter
	AuthService    *service.AuthService
	UserService    *service.UserService
	ArticleService *service.ArticleService
	ScraperService *service.ScraperService
	PresetService  *service.PresetService
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.Metrics)

	// Puts claims in context for protected groups; public routes ignore it.
	r.Use(jwtauth.Verifier(deps.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.UserService, deps.AuthService)
	articleHandler := handler.NewArticleHandler(deps.ArticleService)
	scraperHandler := handler.NewScraperHandler(deps.ScraperService)
	presetHandler := handler.NewPresetHandler(deps.PresetService)

	// The limiter is mounted after the Authenticator on protected groups so
	// the budget is keyed per user; public auth routes have no identity yet
	// and are limited per client IP.
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(auth chi.Router) {
			auth.Group(func(public chi.Router) {
				public.Use(deps.RateLimiter.Middleware)
				authHandler.RegisterPublicRoutes(public)
			})

			auth.Group(func(protected chi.Router) {
				protected.Use(middleware.Authenticator(deps.Tokens))
				protected.Use(deps.RateLimiter.Middleware)
				authHandler.RegisterProtectedRoutes(protected)
			})
		})

		// Everything else requires a valid access token.
		v1.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator(deps.Tokens))
			protected.Use(deps.RateLimiter.Middleware)

			protected.Route("/users", userHandler.RegisterRoutes)
			protected.Route("/articles", articleHandler.RegisterRoutes)
			protected.Route("/scrapers", scraperHandler.RegisterRoutes)
			protected.Route("/presets", presetHandler.RegisterRoutes)
			protected.Get("/tags", articleHandler.ListTags)
		})
	})

	return r
}
