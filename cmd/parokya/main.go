package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvillanueva/parokya/internal/config"
	"github.com/mvillanueva/parokya/internal/database"
	"github.com/mvillanueva/parokya/internal/email"
	"github.com/mvillanueva/parokya/internal/logging"
	"github.com/mvillanueva/parokya/internal/server"
	"github.com/mvillanueva/parokya/internal/store"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logs.Level)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seedAdmin(cfg, db); err != nil {
		logger.Error("seed admin user", "error", err)
		os.Exit(1)
	}

	emailClient := email.NewClient(cfg.Email.ServerToken, cfg.Email.FromEmail, email.Sender{
		Name:         cfg.Email.SenderName,
		Position:     cfg.Email.SenderRole,
		Contact:      cfg.Email.SenderPhone,
		Organization: cfg.Email.Organization,
	})
	if !emailClient.Configured() {
		logger.Warn("email not configured, booking notifications disabled")
	}

	srv := server.New(db, cfg, emailClient, logger)

	scheduler := cron.New()
	scheduler.AddFunc("@hourly", func() {
		n, err := srv.SessionStore().DeleteExpired()
		if err != nil {
			logger.Error("session cleanup", "error", err)
			return
		}
		if n > 0 {
			logger.Info("expired sessions removed", "count", n)
		}
	})
	scheduler.AddFunc("@every 10m", func() {
		srv.RateLimiter().Cleanup()
	})
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("parokya listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the configured admin account if it does not exist yet.
func seedAdmin(cfg *config.Config, db *sql.DB) error {
	if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPassword == "" {
		return nil
	}

	users := store.NewUserStore(db)
	existing, err := users.GetByEmail(cfg.Auth.AdminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := cfg.Auth.AdminName
	if name == "" {
		name = "Administrator"
	}
	_, err = users.Create(cfg.Auth.AdminEmail, name, string(hash))
	return err
}
