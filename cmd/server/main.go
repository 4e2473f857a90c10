package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"taskmanager/internal/api"
	"taskmanager/internal/api/middleware"
	"taskmanager/internal/app/service"
	"taskmanager/internal/common/security"
	"taskmanager/internal/domain/repository"
	"taskmanager/internal/platform/cache"
	"taskmanager/internal/platform/config"
	"taskmanager/internal/platform/database"
	"taskmanager/internal/platform/logger"
	"taskmanager/internal/platform/mail"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	// 2. Initialize Database
	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, log); err != nil {
		return err
	}
	log.Info("database connected")

	// 3. Initialize Redis
	rdb, err := cache.Connect(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info("redis connected", zap.String("addr", cfg.RedisAddr))

	// 4. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	taskRepo := repository.NewPgTaskRepository(db)

	// 5. Initialize Services
	tokens := security.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	mailer, err := mail.NewMailer(mail.Config{
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUser:     cfg.SMTPUser,
		SMTPPassword: cfg.SMTPPassword,
		FromName:     cfg.MailFromName,
		FromAddress:  cfg.MailFromAddress,
		AppURL:       cfg.AppURL,
		AppName:      cfg.AppName,
	}, log)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(userRepo, tokens, mailer, log)
	taskService := service.NewTaskService(taskRepo, log)

	// 6. Initialize Router & HTTP Server
	limiter := middleware.NewRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow, slug.Make(cfg.AppName)+":ratelimit", log)
	router := api.NewRouter(authService, taskService, tokens, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.APIPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen on %s: %w", cfg.APIPort, err)
	case <-stop:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
