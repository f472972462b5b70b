package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/natefoster/mailproof/internal/auth"
	"github.com/natefoster/mailproof/internal/background"
	"github.com/natefoster/mailproof/internal/config"
	"github.com/natefoster/mailproof/internal/database"
	"github.com/natefoster/mailproof/internal/handlers"
	custommiddleware "github.com/natefoster/mailproof/internal/middleware"
	"github.com/natefoster/mailproof/internal/repositories"
	"github.com/natefoster/mailproof/internal/routes"
	"github.com/natefoster/mailproof/internal/services"
	"github.com/natefoster/mailproof/migrations"
	pkghttp "github.com/natefoster/mailproof/pkg/http"
	pkglogger "github.com/natefoster/mailproof/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx, migrations.FS, ".", logger); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Repositories
	tokenRepo := repositories.NewVerificationTokenRepository(db)
	limitRepo := repositories.NewResendLimitRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Services
	auditLogger := pkglogger.NewAuditLogger(logger)

	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.VerificationURLBase,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	verificationService := services.NewVerificationService(
		tokenRepo,
		userRepo,
		emailService,
		logger,
		auditLogger,
		cfg.Verification.TokenTTL,
	)

	resendService := services.NewResendService(
		limitRepo,
		verificationService,
		services.ResendConfig{
			MaxAttempts: cfg.Verification.MaxResendAttempts,
			Window:      cfg.Verification.ResendWindow,
		},
		logger,
		auditLogger,
	)

	cleanupManager := background.NewCleanupManager(verificationService, logger, cfg.Verification.CleanupInterval)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)

	ipConfig := &pkghttp.IPConfig{}
	if proxies := os.Getenv("TRUSTED_PROXIES"); proxies != "" {
		ipConfig.TrustedProxies = splitAndTrim(proxies)
	}

	verificationHandler := handlers.NewVerificationHandler(verificationService, resendService, ipConfig)

	// Router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(custommiddleware.SecureLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, verificationHandler, tokenManager)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// splitAndTrim parses a comma-separated env value into clean entries
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
