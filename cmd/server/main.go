package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/socialgraph/internal/bootstrap"
	"anoa.com/socialgraph/internal/config"
	"anoa.com/socialgraph/internal/server"
	"anoa.com/socialgraph/pkg/database"
	"anoa.com/socialgraph/pkg/logger"
	"anoa.com/socialgraph/pkg/mailer"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.AppEnv); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close(db)

	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	if cfg.SeedDemoData {
		if n, err := bootstrap.SeedDevelopmentUsers(db); err != nil {
			logger.Fatal("failed to seed users", zap.Error(err))
		} else if n > 0 {
			logger.Info("demo users seeded", zap.Int("count", n))
		}
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.ResendAPIKey != "" {
		sender = mailer.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	}
	emails := mailer.NewQueue(sender, mailer.QueueOptions{
		Size:          cfg.EmailQueueSize,
		Workers:       cfg.EmailWorkers,
		RatePerSecond: cfg.EmailRatePerSecond,
		MaxAttempts:   cfg.EmailMaxAttempts,
	})
	stopEmails := emails.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg, db, redisClient, emails)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("failed to start subscribers", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.AppEnv))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server exited with error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	srv.Shutdown()

	if err := stopEmails(shutdownCtx); err != nil {
		logger.Warn("email queue not drained", zap.Error(err))
	}
}
