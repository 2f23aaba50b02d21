package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/config"
	"github.com/fenilmodi00/ipo-dashboard/database"
	"github.com/fenilmodi00/ipo-dashboard/handlers"
	"github.com/fenilmodi00/ipo-dashboard/jobs"
	"github.com/fenilmodi00/ipo-dashboard/services"
	"github.com/fenilmodi00/ipo-dashboard/sessions"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/fenilmodi00/ipo-dashboard/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const refreshRetryAttempts = 3

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := shared.NewServiceMetrics(registry)

	// Storage is chosen once here; nothing below branches on the backend
	var db *sql.DB
	if cfg.StorageBackend == config.StorageBackendPostgres {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		if err := database.Connect(cfg.DatabaseURL); err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		db = database.DB
	}

	store, err := storage.New(cfg.StorageBackend, cfg.DataDir, db, metrics)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Upstream gateways
	httpClientFactory := shared.NewHTTPClientFactory(10 * time.Second)
	defer httpClientFactory.CleanupAllClients()

	finnhubConfig := shared.NewFinnhubServiceConfig(cfg.FinnhubAPIKey)
	finnhubConfig.BaseURL = cfg.FinnhubBaseURL
	newsConfig := shared.NewNewsAPIServiceConfig(cfg.NewsAPIKey)
	newsConfig.BaseURL = cfg.NewsAPIBaseURL

	finnhubService := services.NewFinnhubService(finnhubConfig, httpClientFactory, metrics)
	newsService := services.NewNewsService(newsConfig, httpClientFactory, metrics)

	// Sessions
	sessionConfig := sessions.Config{MaxAge: cfg.SessionMaxAge, Secure: cfg.IsProduction()}
	var sessionStorage handlers.Pinger
	if cfg.RedisURL != "" {
		redisStorage, err := sessions.NewRedisStorage(ctx, cfg.RedisURL)
		if err != nil {
			logrus.Fatalf("Failed to connect session storage: %v", err)
		}
		defer redisStorage.Close()
		sessionConfig.Storage = redisStorage
		sessionStorage = redisStorage
	}
	sessionManager := sessions.NewManager(sessionConfig)

	identityProvider := services.NewGoogleIdentityProvider(services.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleCallbackURL,
	})

	app := handlers.NewApp(handlers.AppConfig{
		ClientURL: cfg.ClientURL,
		CookieKey: sessions.CookieEncryptionKey(cfg.SessionSecret),
		AccessLog: true,
	}, handlers.Dependencies{
		Store:     store,
		Sessions:  sessionManager,
		Auth:      services.NewAuthService(identityProvider, store),
		Favorites: services.NewFavoritesService(store),
		Calendar:  finnhubService,
		News:      newsService,
		Gatherer:  registry,
		NewState:  services.NewOAuthState,

		SessionStorage: sessionStorage,
	})

	// Background refresh uses its own gateway so it can retry without slowing requests
	if cfg.RefreshEnabled {
		refreshGateway := services.NewFinnhubService(finnhubConfig.WithRetries(refreshRetryAttempts), httpClientFactory, metrics)
		jobs.NewIPORefreshJob(refreshGateway, metrics, cfg.RefreshFrom, cfg.RefreshHour, cfg.RefreshMinute).Start(ctx)
	}

	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logrus.Errorf("Graceful shutdown failed: %v", err)
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":        cfg.ServerPort,
		"environment": cfg.Environment,
		"storage":     store.Backend(),
		"client_url":  cfg.ClientURL,
	}).Info("Server starting")

	if err := app.Listen(cfg.ListenAddress()); err != nil {
		logrus.Errorf("Server stopped: %v", err)
	}
}
