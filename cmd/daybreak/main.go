package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daybreak-app/daybreak/internal/backup"
	"github.com/daybreak-app/daybreak/internal/config"
	"github.com/daybreak-app/daybreak/internal/database"
	"github.com/daybreak-app/daybreak/internal/email"
	"github.com/daybreak-app/daybreak/internal/logging"
	"github.com/daybreak-app/daybreak/internal/news"
	"github.com/daybreak-app/daybreak/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	newsSvc := news.NewService(news.Config{
		APIKey:   cfg.NewsAPIKey,
		Language: cfg.NewsLanguage,
	})
	emailClient := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom)

	srv := server.New(db, newsSvc, emailClient, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prune expired sessions and signup codes.
	go janitor(ctx, srv, cfg.JanitorInterval, logger)

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		},
		DBPath:     cfg.DBPath,
		Passphrase: cfg.Backup.Passphrase,
		Interval:   cfg.Backup.Interval,
	}, db, logger.With("component", "backup"))
	if backupMgr.Enabled() {
		go backupMgr.Start(ctx)
	}

	go func() {
		logger.Info("daybreak listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func janitor(ctx context.Context, srv *server.Server, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("delete expired sessions", "error", err)
			} else if n > 0 {
				logger.Debug("deleted expired sessions", "count", n)
			}
			if n, err := srv.OTPStore().DeleteExpired(); err != nil {
				logger.Error("delete expired otp challenges", "error", err)
			} else if n > 0 {
				logger.Debug("deleted expired otp challenges", "count", n)
			}
		}
	}
}
