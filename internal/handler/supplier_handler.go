package handler

import (
	"net/http"
	"strconv"

	"marketplace-service/internal/service"
	"marketplace-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SupplierHandler serves the supplier directory and dashboard
type SupplierHandler struct {
	directory *service.Directory
	catalog   *service.CatalogManager
}

func NewSupplierHandler(directory *service.Directory, catalog *service.CatalogManager) *SupplierHandler {
	return &SupplierHandler{directory: directory, catalog: catalog}
}

func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, badRequest("limit", "must be a non-negative integer")
	}
	return limit, nil
}

// List searches suppliers by ?q= with an optional ?limit=
func (h *SupplierHandler) List(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return respondError(c, err)
	}

	suppliers, err := h.directory.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return respondError(c, err)
	}

	logger.FromContext(c).Debug("Suppliers listed", zap.Int("count", len(suppliers)))
	return c.JSON(http.StatusOK, suppliers)
}

// Get returns one supplier with its profile
func (h *SupplierHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	supplier, err := h.directory.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, supplier)
}

// Products lists the active products of a supplier
func (h *SupplierHandler) Products(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	products, err := h.catalog.ListForSupplier(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Stats returns the caller's dashboard figures
func (h *SupplierHandler) Stats(c echo.Context) error {
	stats, err := h.directory.Stats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
