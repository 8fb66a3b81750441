// Package main runs the auction house server: a reserve-price auction
// lifecycle for unique tokens, exposed over REST.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/R3E-Network/auction_house/internal/app"
	"github.com/R3E-Network/auction_house/internal/app/httpapi"
	auctionssvc "github.com/R3E-Network/auction_house/internal/app/services/auctions"
	"github.com/R3E-Network/auction_house/internal/app/storage/postgres"
	"github.com/R3E-Network/auction_house/internal/config"
	"github.com/R3E-Network/auction_house/pkg/logger"
)

func main() {
	configPath := flag.String("config", filepath.Join("config", "auction_house.yaml"), "Path to the YAML config file")
	envFile := flag.String("env-file", "", "Optional .env file loaded before config")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logger.NewDefault("main").WithError(err).Error("could not load env file")
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load() // allow .env for local runs
	}

	cfg, err := config.LoadFromPath(*configPath)
	if err != nil {
		logger.NewDefault("main").WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	log := logger.NewDefault("main")
	log.SetLevel(cfg.LogLevel)
	log.Infof("starting auction house on %s", cfg.HTTPAddr)

	stores := app.Stores{}
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("could not open database")
			os.Exit(1)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.WithError(err).Error("database unreachable")
			os.Exit(1)
		}

		store := postgres.New(db)
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.WithError(err).Error("could not ensure schema")
			os.Exit(1)
		}
		stores.Auctions = store
		stores.Credits = store
		log.Info("using postgres storage")
	} else {
		log.Warn("no database_url configured; using in-memory storage")
	}

	application, err := app.New(stores, auctionssvc.Gateways{}, cfg.EventBufferSize, logger.New(log, "app"))
	if err != nil {
		log.WithError(err).Error("could not build application")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("could not start services")
		os.Exit(1)
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(application, httpapi.Config{
			JWTSecret:      []byte(cfg.JWTSecret),
			AllowedOrigins: cfg.AllowedOrigins,
			Log:            logger.New(log, "http"),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("server error")
	}

	grace := time.Duration(cfg.ShutdownGraceS) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}
	log.Info("stopped")
}
