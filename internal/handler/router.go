package handler

import (
	"marketplace-service/internal/blob"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/service"
	"marketplace-service/pkg/jwtutil"
	"marketplace-service/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Deps are the collaborators the HTTP surface is built from
type Deps struct {
	Services *service.Services
	JWT      *jwtutil.JWTUtil
	Bridge   *realtime.Bridge
	// Blobs is set only when images are kept in memory and served by this process
	Blobs   *blob.MemoryStore
	Metrics *metrics.HTTPMetrics
}

// NewRouter builds the Echo instance with every marketplace route
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(middleware.RequestLogger())

	// Public routes
	e.GET("/health", HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	if d.Blobs != nil {
		e.GET("/blobs/:key", NewBlobHandler(d.Blobs).Get)
	}

	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(d.JWT))

	profiles := NewProfileHandler(d.Services.Profiles)
	api.GET("/profile", profiles.Get)
	api.POST("/profile", profiles.Create)
	api.PUT("/profile", profiles.Update)

	suppliers := NewSupplierHandler(d.Services.Directory, d.Services.Catalog)
	api.GET("/suppliers", suppliers.List)
	api.GET("/suppliers/:id", suppliers.Get)
	api.GET("/suppliers/:id/products", suppliers.Products)
	api.GET("/supplier/stats", suppliers.Stats)

	catalog := NewCatalogHandler(d.Services.Catalog)
	api.GET("/catalog", catalog.List)
	api.POST("/catalog", catalog.Create)
	api.GET("/catalog/export", catalog.Export)
	api.PUT("/catalog/:id", catalog.Update)
	api.PATCH("/catalog/:id/active", catalog.SetActive)

	orders := NewOrderHandler(d.Services.Composer, d.Services.Lifecycle)
	api.POST("/orders", orders.Submit)
	api.GET("/orders", orders.List)
	api.GET("/orders/:id", orders.Get)
	api.POST("/orders/:id/accept", orders.Accept)
	api.POST("/orders/:id/decline", orders.Decline)
	api.GET("/supplier/orders/pending", orders.Pending)

	favorites := NewFavoriteHandler(d.Services.Favorites)
	api.GET("/favorites", favorites.List)
	api.POST("/favorites", favorites.Add)
	api.DELETE("/favorites/:supplierId", favorites.Remove)

	messages := NewMessageHandler(d.Services.Messages)
	api.GET("/messages", messages.List)
	api.POST("/messages", messages.Send)
	api.POST("/messages/:id/read", messages.MarkRead)

	if d.Bridge != nil {
		api.GET("/realtime", NewRealtimeHandler(d.Bridge, d.Services.Profiles).Stream)
	}

	return e
}
