package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/DevSmtp/internal/api"
	"github.com/lawnchairsociety/DevSmtp/internal/config"
	"github.com/lawnchairsociety/DevSmtp/internal/health"
	"github.com/lawnchairsociety/DevSmtp/internal/logger"
	"github.com/lawnchairsociety/DevSmtp/internal/smtp"
	"github.com/lawnchairsociety/DevSmtp/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the SMTP server and the HTTP query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := logger.New(logger.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: cfg.Logging.Output,
			})
			slog.SetDefault(log)

			st, closeStore, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			smtpServer := smtp.NewServer(&smtp.Config{
				Addr:              cfg.SMTP.Addr,
				Hostname:          cfg.SMTP.Hostname,
				MaxConnections:    cfg.SMTP.MaxConnections,
				ConnectionTimeout: cfg.SMTP.ConnectionTimeout,
				MaxMessageSize:    cfg.SMTP.MaxMessageSize,
			}, st, log)
			if err := smtpServer.Start(); err != nil {
				return err
			}

			pinger, _ := st.(health.StorePinger)
			httpServer := &http.Server{
				Addr:    cfg.HTTP.Addr,
				Handler: api.NewRouter(api.NewHandler(st, log), health.NewHandler(pinger, smtpServer)),
			}
			go func() {
				log.Info("http api listening", slog.String("addr", cfg.HTTP.Addr))
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server failed", slog.String("error", err.Error()))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
			return smtpServer.Stop()
		},
	}
}

// loadConfig honors the --config flag when present.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.Load()
}

// openStore builds the configured store backend.
func openStore(cfg *config.Config, log *slog.Logger) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := sqlx.Connect("pgx", cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info("using postgres store", slog.String("database", cfg.Database.DBName))
		return store.NewPostgresStore(db), func() { db.Close() }, nil
	default:
		log.Info("using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	}
}
