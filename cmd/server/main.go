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

	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/jmcardoso/fundpool-backend/internal/adapter/httpapi"
	"github.com/jmcardoso/fundpool-backend/internal/adapter/repository/postgres"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/dashboard"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/ledger"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/registry"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/seeder"
	"github.com/jmcardoso/fundpool-backend/internal/usecase/summary"
)

const (
	defaultAPIToken = "dev-token"
	httpAddr        = ":8080"

	defaultMinInvestment = "100"
	defaultMaxInvestment = "10000000"
)

func main() {
	// .env is optional; production relies on real environment variables
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// 1. Setup Database
	dbConnStr := os.Getenv("DB_CONN_STR")
	if dbConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "postgres")
		password := getEnv("DB_PASSWORD", "postgres")
		dbname := getEnv("DB_NAME", "fundpool")

		dbConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	db, err := postgres.NewDB(dbConnStr)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 2. Initialize Repositories (Postgres)
	clientRepo := postgres.NewClientRepository(db)
	operationRepo := postgres.NewOperationRepository(db)

	// 3. Initialize Services (Use Cases)
	replayCache := cache.New(5*time.Minute, 10*time.Minute)
	refresher := ledger.NewRefresher(clientRepo, operationRepo, replayCache)

	registryCfg := registry.Config{
		MinInvestment: mustDecimalEnv("MIN_INVESTMENT", defaultMinInvestment),
		MaxInvestment: mustDecimalEnv("MAX_INVESTMENT", defaultMaxInvestment),
	}
	registryService := registry.NewService(clientRepo, refresher, registryCfg)
	ledgerService := ledger.NewService(operationRepo, refresher)
	summaryService := summary.NewService(refresher)
	dashboardService := dashboard.NewService(refresher)

	ctx := context.Background()
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		demoSeeder := seeder.NewDemoSeeder(clientRepo)
		if err := demoSeeder.Seed(ctx); err != nil {
			slog.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		slog.Info("demo data seeded")
	}

	// 4. Start HTTP Server
	apiToken := getEnv("API_TOKEN", defaultAPIToken)
	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

	apiServer := httpapi.NewServer(registryService, ledgerService, summaryService, dashboardService)
	server := &http.Server{
		Addr:         httpAddr,
		Handler:      apiServer.Routes(apiToken, limiter),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(server)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	slog.Info("shutting down gracefully", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
		return
	}
	slog.Info("HTTP server stopped")
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// mustDecimalEnv reads a decimal environment variable with a fallback default
func mustDecimalEnv(key, fallback string) decimal.Decimal {
	value := getEnv(key, fallback)
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		slog.Error("invalid decimal in environment", "key", key, "value", value)
		os.Exit(1)
	}
	return parsed
}
