package handler

import (
	"net/http"

	"marketplace-service/internal/service"
	"marketplace-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProfileHandler serves the caller's own profile
type ProfileHandler struct {
	profiles *service.ProfileResolver
}

func NewProfileHandler(profiles *service.ProfileResolver) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns the caller's profile
func (h *ProfileHandler) Get(c echo.Context) error {
	profile, err := h.profiles.Resolve(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

// Create registers the caller's profile
func (h *ProfileHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid profile request", zap.Error(err))
		return respondError(c, badRequest("", "invalid request data"))
	}

	profile, err := h.profiles.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, profile)
}

// Update changes the caller's profile
func (h *ProfileHandler) Update(c echo.Context) error {
	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		return respondError(c, badRequest("", "invalid request data"))
	}

	profile, err := h.profiles.UpdateOwn(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}
