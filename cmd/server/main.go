package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-dashboard-go/internal/broker"
	"portfolio-dashboard-go/internal/config"
	"portfolio-dashboard-go/internal/database"
	"portfolio-dashboard-go/internal/logger"
	"portfolio-dashboard-go/internal/models"
	"portfolio-dashboard-go/internal/refresh"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Register configured accounts and build one broker client each
	clients, err := setupAccounts(log, db, &cfg)
	if err != nil {
		log.Fatal("Failed to set up broker accounts", zap.Error(err))
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Periodic broker data import + valuation cache
	cache := refresh.NewCache(time.Duration(cfg.Valuation.CacheTTL) * time.Second)
	refresher := refresh.New(log, db, cfg.Valuation.BaseCurrency, cfg.Refresh.Schedule, clients, cache)
	if err := refresher.Start(); err != nil {
		log.Fatal("Failed to start refresher", zap.Error(err))
	}
	if cfg.Refresh.OnStartup {
		go refresher.RefreshAll()
	}

	// Dashboard API
	apiHandler := NewAPIHandler(log, db, &cfg, cache)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Get("/health", apiHandler.HealthHandler)
	router.Route("/api", func(r chi.Router) {
		r.Get("/accounts", apiHandler.AccountsHandler)
		r.Get("/portfolio", apiHandler.PortfolioHandler)
		r.Get("/portfolio/total", apiHandler.TotalHandler)
		r.Get("/history", apiHandler.HistoryHandler)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Starting dashboard API server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("API server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	refresher.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}

// setupAccounts ensures every configured account has a database row and
// returns one broker client per enabled account, keyed by account row ID.
func setupAccounts(log *zap.Logger, db *gorm.DB, cfg *config.Config) (map[uint]broker.Client, error) {
	clients := make(map[uint]broker.Client, len(cfg.Accounts))
	for i := range cfg.Accounts {
		accountCfg := &cfg.Accounts[i]
		account := models.Account{Name: accountCfg.Name}
		err := db.Where(&models.Account{Name: accountCfg.Name}).
			Assign(models.Account{Broker: accountCfg.Broker, Enabled: true}).
			FirstOrCreate(&account).Error
		if err != nil {
			return nil, fmt.Errorf("could not register account %s: %w", accountCfg.Name, err)
		}
		clients[account.ID] = broker.NewRestClient(accountCfg, log)
		log.Info("Registered broker account",
			zap.String("name", accountCfg.Name), zap.String("broker", accountCfg.Broker))
	}
	return clients, nil
}
