// Package main is the entry point for the crewtransit API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/domain/documents/invoice"
	"crewtransit/internal/domain/pricing"
	"crewtransit/internal/infrastructure/auth"
	v1 "crewtransit/internal/infrastructure/http/v1"
	"crewtransit/internal/infrastructure/storage/postgres"
	"crewtransit/pkg/logger"
	"crewtransit/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting crewtransit server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")

	if getEnv("MIGRATE_ON_START", "false") == "true" {
		log.Info("running migrations...")
		cmd := exec.Command("goose", "-dir", "db/migrations", "postgres", dsn, "up")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			log.Fatalw("migrations failed", "error", err)
		}
	}

	poolCfg := postgres.DefaultPoolConfig(dsn)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- JWT validation ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Numerator ---
	// Built over the tx manager so sequence increments roll back with the
	// transaction that consumed them.
	numeratorService := numerator.New(txManager)

	// --- Pricing configuration ---
	pricingCfg := pricing.DefaultConfig()
	if path := getEnv("PRICING_FALLBACK_FILE", ""); path != "" {
		tiers, minimum, err := loadFallbackTable(path)
		if err != nil {
			log.Fatalw("failed to load fallback table", "error", err, "path", path)
		}
		pricingCfg.FallbackTiers = tiers
		pricingCfg.MinimumPrice = minimum
		log.Infow("fallback table loaded", "tiers", len(tiers))
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		TxManager:      txManager,
		Logger:         log,
		TokenValidator: jwtService,
		Numerator:      numeratorService,
		Pricing:        pricingCfg,
		Invoicing: invoice.Config{
			CompanyCode:     getEnv("EXPORT_COMPANY_CODE", "CT01"),
			ServiceRateCode: getEnv("EXPORT_SERVICE_RATE_CODE", "TRANSFER"),
		},
		SymmetricRoutes: getEnv("SYMMETRIC_ROUTES", "true") == "true",
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// fallbackFile is the on-disk shape of the fallback tier table.
type fallbackFile struct {
	MinimumPrice string `json:"minimumPrice"`
	Tiers        []struct {
		ClassA            string `json:"classA"`
		ClassB            string `json:"classB"`
		BasePrice         string `json:"basePrice"`
		PerExtraPassenger string `json:"perExtraPassenger"`
		PerWaitingHour    string `json:"perWaitingHour"`
		Currency          string `json:"currency"`
	} `json:"tiers"`
}

func loadFallbackTable(path string) ([]pricing.FallbackTier, types.Money, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Zero(), err
	}

	var file fallbackFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, types.Zero(), fmt.Errorf("parse fallback table: %w", err)
	}

	minimum := types.Zero()
	if file.MinimumPrice != "" {
		if minimum, err = types.NewMoneyFromString(file.MinimumPrice); err != nil {
			return nil, types.Zero(), fmt.Errorf("minimum price: %w", err)
		}
	}

	tiers := make([]pricing.FallbackTier, 0, len(file.Tiers))
	for i, t := range file.Tiers {
		tier := pricing.FallbackTier{
			ClassA:   location.Class(t.ClassA),
			ClassB:   location.Class(t.ClassB),
			Currency: t.Currency,
		}
		if tier.BasePrice, err = types.NewMoneyFromString(t.BasePrice); err != nil {
			return nil, types.Zero(), fmt.Errorf("tier %d base price: %w", i, err)
		}
		if tier.PerExtraPassenger, err = types.NewMoneyFromString(t.PerExtraPassenger); err != nil {
			return nil, types.Zero(), fmt.Errorf("tier %d per extra passenger: %w", i, err)
		}
		if tier.PerWaitingHour, err = types.NewMoneyFromString(t.PerWaitingHour); err != nil {
			return nil, types.Zero(), fmt.Errorf("tier %d per waiting hour: %w", i, err)
		}
		tiers = append(tiers, tier)
	}

	return tiers, minimum, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
