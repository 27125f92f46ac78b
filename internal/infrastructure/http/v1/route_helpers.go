// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"crewtransit/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByCode(c *gin.Context)
	Update(c *gin.Context)
	Deactivate(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// Reads are open to any authenticated caller; writes require writeRole.
//
// Usage:
//
//	repo := catalog_repo.NewLocationRepo(cfg.TxManager)
//	service := location.NewService(repo, cfg.TxManager)
//	handler := handlers.NewLocationHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/locations"), handler, middleware.RoleCatalogEditor)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, writeRole string) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.GET("/by-code/:code", handler.GetByCode)
	group.POST("", middleware.RequireRole(writeRole), handler.Create)
	group.PUT("/:id", middleware.RequireRole(writeRole), handler.Update)
	group.DELETE("/:id", middleware.RequireRole(writeRole), handler.Deactivate)
	group.POST("/:id/deletion-mark", middleware.RequireRole(writeRole), handler.SetDeletionMark)
}
