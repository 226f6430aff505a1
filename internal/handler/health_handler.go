package handler

import (
	"net/http"

	"marketplace-service/pkg/config"

	"github.com/labstack/echo/v4"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": config.ServiceName,
	})
}
