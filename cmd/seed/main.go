// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/domain/catalogs/client"
	"crewtransit/internal/domain/catalogs/ingest"
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/domain/catalogs/ratecode"
	"crewtransit/internal/domain/catalogs/routeprice"
	"crewtransit/internal/infrastructure/storage/postgres"
	"crewtransit/internal/infrastructure/storage/postgres/catalog_repo"
	"crewtransit/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	locationService := location.NewService(catalog_repo.NewLocationRepo(txManager), txManager)
	routePriceService := routeprice.NewService(catalog_repo.NewRoutePriceRepo(txManager), txManager, true)
	rateCodeService := ratecode.NewService(catalog_repo.NewRateCodeRepo(txManager), txManager)
	clientService := client.NewService(catalog_repo.NewClientRepo(txManager), txManager)

	ingestService := ingest.NewService(locationService, routePriceService, rateCodeService)

	report := ingestService.Run(ctx, catalogRecords())
	if report.Rejected > 0 {
		for _, item := range report.Errors {
			log.Warnw("record rejected", "kind", item.Kind, "key", item.Key, "reason", item.Reason)
		}
		log.Fatalw("catalog seeding incomplete", "accepted", report.Accepted, "rejected", report.Rejected)
	}
	log.Infow("catalogs seeded", "records", report.Accepted)

	if err := seedClients(ctx, clientService, log); err != nil {
		log.Fatalw("failed to seed clients", "error", err)
	}

	log.Info("seeding completed successfully")
}

func record(kind ingest.Kind, key string, attrs map[string]any) ingest.Record {
	raw, _ := json.Marshal(attrs)
	return ingest.Record{Kind: kind, Key: key, Attributes: raw}
}

func catalogRecords() []ingest.Record {
	return []ingest.Record{
		// Locations
		record(ingest.KindLocation, "PMI-AIR", map[string]any{
			"name": "Palma Airport", "class": "airport", "city": "Palma",
		}),
		record(ingest.KindLocation, "PMI-PORT", map[string]any{
			"name": "Palma Cruise Terminal", "class": "port", "city": "Palma",
		}),
		record(ingest.KindLocation, "PMI-HILTON", map[string]any{
			"name": "Hilton Palma", "class": "hotel", "city": "Palma",
			"address": "Carrer Example 12",
		}),
		record(ingest.KindLocation, "PMI-CLINIC", map[string]any{
			"name": "Clinica Rotger", "class": "hospital", "city": "Palma",
		}),

		// Route prices
		record(ingest.KindRoutePrice, "PMI-AIR>PMI-PORT", map[string]any{
			"origin": "PMI-AIR", "destination": "PMI-PORT",
			"basePrice": "45.00", "perExtraPassenger": "5.00",
			"perWaitingHour": "18.00", "currency": "EUR",
		}),
		record(ingest.KindRoutePrice, "PMI-AIR>PMI-HILTON", map[string]any{
			"origin": "PMI-AIR", "destination": "PMI-HILTON",
			"basePrice": "38.50", "perExtraPassenger": "4.50",
			"perWaitingHour": "18.00", "currency": "EUR",
		}),
		record(ingest.KindRoutePrice, "PMI-PORT>PMI-CLINIC", map[string]any{
			"origin": "PMI-PORT", "destination": "PMI-CLINIC",
			"basePrice": "52.00", "perExtraPassenger": "5.00",
			"perWaitingHour": "20.00", "currency": "EUR",
		}),

		// Rate codes
		record(ingest.KindRateCode, "TRANSFER", map[string]any{
			"name": "Crew transfer", "kind": "income",
			"costCenter": "CC-TRANS", "profitCenter": "PC-OPS",
		}),
		record(ingest.KindRateCode, "DISCOUNT", map[string]any{
			"name": "Contract discount", "kind": "rebate",
			"costCenter": "CC-TRANS", "profitCenter": "PC-OPS",
		}),
		record(ingest.KindRateCode, "WAITING", map[string]any{
			"name": "Waiting time", "kind": "income",
			"costCenter": "CC-TRANS", "profitCenter": "PC-OPS",
		}),
	}
}

func seedClients(ctx context.Context, service *client.Service, log *logger.Logger) error {
	clients := []*client.Client{
		newClient("MSC", "MSC Crewing Services", "EUR", "D-10021", "ops@msc-crewing.example"),
		newClient("CMA", "CMA Ships Agency", "EUR", "D-10187", "agency@cma.example"),
		newClient("TUI", "TUI Cruises Port Ops", "EUR", "", "portops@tui.example"),
	}

	for _, c := range clients {
		if _, err := service.GetByCode(ctx, c.Code); err == nil {
			log.Infow("client already exists", "code", c.Code)
			continue
		} else if !apperror.IsNotFound(err) {
			return err
		}

		if err := service.Create(ctx, c); err != nil {
			return fmt.Errorf("create client %s: %w", c.Code, err)
		}
		log.Infow("client created", "code", c.Code)
	}
	return nil
}

func newClient(code, name, currency, exportID, email string) *client.Client {
	c := client.New(code, name, currency)
	c.ExportID = exportID
	c.ContactEmail = email
	return c
}
