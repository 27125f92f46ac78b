package v1

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"crewtransit/internal/domain"
	"crewtransit/internal/domain/catalogs/client"
	"crewtransit/internal/domain/catalogs/ingest"
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/domain/catalogs/ratecode"
	"crewtransit/internal/domain/catalogs/routeprice"
	"crewtransit/internal/domain/documents/invoice"
	"crewtransit/internal/domain/documents/servicerecord"
	"crewtransit/internal/domain/export"
	"crewtransit/internal/domain/pricing"
	"crewtransit/internal/infrastructure/http/v1/handlers"
	"crewtransit/internal/infrastructure/http/v1/middleware"
	"crewtransit/internal/infrastructure/storage/postgres"
	"crewtransit/internal/infrastructure/storage/postgres/catalog_repo"
	"crewtransit/internal/infrastructure/storage/postgres/document_repo"
	"crewtransit/pkg/logger"
	"crewtransit/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager provides transactional access for all repositories
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator for bearer token validation
	TokenValidator middleware.TokenValidator

	// Numerator for document number generation
	Numerator numerator.Generator

	// Pricing configures category surcharges and the fallback tier table
	Pricing pricing.Config

	// Invoicing carries the export header constants
	Invoicing invoice.Config

	// SymmetricRoutes enables reverse-direction route price lookups
	SymmetricRoutes bool

	// ExportRules overrides the standing export rule set. Nil means defaults.
	ExportRules []export.Rule
}

// NewRouter creates and configures the Gin router. Rule compilation happens
// here so a bad export rule fails at startup.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	rules := cfg.ExportRules
	if rules == nil {
		rules = export.DefaultRules()
	}
	ruleSet, err := export.NewRuleSet(rules)
	if err != nil {
		return nil, err
	}

	audit, err := postgres.NewAuditService(cfg.TxManager)
	if err != nil {
		return nil, err
	}

	// API v1, everything behind token auth
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.TokenValidator))

	baseHandler := handlers.NewBaseHandler()

	// --- CATALOGS ---
	locationService := location.NewService(catalog_repo.NewLocationRepo(cfg.TxManager), cfg.TxManager)
	routePriceService := routeprice.NewService(catalog_repo.NewRoutePriceRepo(cfg.TxManager), cfg.TxManager, cfg.SymmetricRoutes)
	rateCodeService := ratecode.NewService(catalog_repo.NewRateCodeRepo(cfg.TxManager), cfg.TxManager)
	clientService := client.NewService(catalog_repo.NewClientRepo(cfg.TxManager), cfg.TxManager)

	catalogs := api.Group("/catalog")
	RegisterCatalogRoutes(catalogs.Group("/locations"),
		handlers.NewLocationHandler(baseHandler, locationService), middleware.RoleCatalogEditor)
	RegisterCatalogRoutes(catalogs.Group("/route-prices"),
		handlers.NewRoutePriceHandler(baseHandler, routePriceService), middleware.RoleCatalogEditor)
	RegisterCatalogRoutes(catalogs.Group("/rate-codes"),
		handlers.NewRateCodeHandler(baseHandler, rateCodeService), middleware.RoleCatalogEditor)
	RegisterCatalogRoutes(catalogs.Group("/clients"),
		handlers.NewClientHandler(baseHandler, clientService), middleware.RoleCatalogEditor)

	ingestService := ingest.NewService(locationService, routePriceService, rateCodeService)
	ingestHandler := handlers.NewIngestHandler(baseHandler, ingestService)
	catalogs.POST("/ingest", middleware.RequireRole(middleware.RoleCatalogEditor), ingestHandler.Run)

	// --- PRICING ---
	calculator := pricing.NewCalculator(routePriceService, locationService, cfg.Pricing)
	pricingHandler := handlers.NewPricingHandler(baseHandler, calculator)
	api.POST("/pricing/quote", pricingHandler.Quote)

	// --- SERVICE RECORDS ---
	recordRepo := document_repo.NewServiceRecordRepo(cfg.TxManager)
	recordService := servicerecord.NewService(recordRepo, calculator, cfg.Numerator, cfg.TxManager)
	registerRecordAuditHooks(recordService, audit)

	recordHandler := handlers.NewServiceRecordHandler(baseHandler, recordService)
	records := api.Group("/service-records")
	{
		records.GET("", recordHandler.List)
		records.GET("/:id", recordHandler.Get)
		records.POST("", middleware.RequireRole(middleware.RoleDispatcher), recordHandler.Create)
		records.PUT("/:id", middleware.RequireRole(middleware.RoleDispatcher), recordHandler.Update)
		records.POST("/:id/status", middleware.RequireRole(middleware.RoleDispatcher), recordHandler.ChangeStatus)
		records.POST("/:id/attachments", middleware.RequireRole(middleware.RoleDispatcher), recordHandler.AddAttachment)
		records.DELETE("/:id", middleware.RequireRole(middleware.RoleDispatcher), recordHandler.Delete)
	}

	// --- INVOICES ---
	invoiceRepo := document_repo.NewInvoiceRepo(cfg.TxManager)
	validator := export.NewValidator(ruleSet)
	invoiceService := invoice.NewService(
		invoiceRepo, recordRepo, clientService, rateCodeService,
		validator, cfg.Numerator, cfg.TxManager, cfg.Invoicing,
	)

	invoiceHandler := handlers.NewInvoiceHandler(baseHandler, invoiceService, validator)
	invoices := api.Group("/invoices")
	{
		invoices.GET("", invoiceHandler.List)
		invoices.GET("/:id", invoiceHandler.Get)
		invoices.GET("/:id/export", invoiceHandler.ValidateExport)
		invoices.POST("", middleware.RequireRole(middleware.RoleBilling), invoiceHandler.Create)
		invoices.POST("/:id/finalize", middleware.RequireRole(middleware.RoleBilling), invoiceHandler.Finalize)
		invoices.DELETE("/:id", middleware.RequireRole(middleware.RoleBilling), invoiceHandler.Delete)
	}

	return router, nil
}

// registerRecordAuditHooks writes an audit trail entry after every
// successful service record write. The entry carries the priced snapshot, so
// pricing reproducibility checks can replay it against catalog history.
func registerRecordAuditHooks(service *servicerecord.Service, audit *postgres.AuditService) {
	snapshot := func(rec *servicerecord.ServiceRecord) map[string]any {
		raw, err := json.Marshal(rec)
		if err != nil {
			return map[string]any{"number": rec.Number}
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return map[string]any{"number": rec.Number}
		}
		return m
	}

	service.Hooks().On(domain.AfterCreate, func(ctx context.Context, rec *servicerecord.ServiceRecord) error {
		return audit.LogChange(ctx, "service_record", rec.ID, postgres.AuditActionCreate, snapshot(rec))
	})
	service.Hooks().On(domain.AfterUpdate, func(ctx context.Context, rec *servicerecord.ServiceRecord) error {
		return audit.LogChange(ctx, "service_record", rec.ID, postgres.AuditActionUpdate, snapshot(rec))
	})
}
