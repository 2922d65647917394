package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/api"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/middleware"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/token"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common/security"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/repository"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/platform/config"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/platform/database"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/platform/redisdb"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Info("Configuration loaded")

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	log.Info("Database connected")

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}
	if created, err := database.BootstrapAdmin(ctx, db, cfg, uuid.NewString()); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	} else if created {
		log.WithField("username", cfg.BootstrapAdminUsername).Info("Bootstrap admin created")
	}

	rdb, err := redisdb.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	defer rdb.Close()
	log.Info("Redis connected")

	// Repositories
	userRepo := repository.NewPgUserRepository(db)
	articleRepo := repository.NewPgArticleRepository(db)
	scraperRepo := repository.NewPgScraperRepository(db)
	presetRepo := repository.NewPgPresetRepository(db)

	// Services
	tokens := token.NewService(rdb, cfg.JWTKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := service.NewAuthService(userRepo, tokens)
	userService := service.NewUserService(userRepo, tokens)
	articleService := service.NewArticleService(articleRepo, db)
	scraperService := service.NewScraperService(scraperRepo)
	presetService := service.NewPresetService(presetRepo)

	router := api.NewRouter(api.Deps{
		TokenAuth:      security.NewTokenAuth(cfg.JWTKey),
		Tokens:         tokens,
		RateLimiter:    middleware.NewRateLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow),
		AuthService:    authService,
		UserService:    userService,
		ArticleService: articleService,
		ScraperService: scraperService,
		PresetService:  presetService,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.APIPort).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", cfg.APIPort, err)
		}
	}()

	<-stop

	log.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Info("Server stopped gracefully")
}
