package handler

import (
	"errors"
	"net/http"

	"marketplace-service/internal/service"
	"marketplace-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusFor maps the service error taxonomy to HTTP status codes
func statusFor(err error) int {
	var validation *service.ValidationError
	var remote *service.RemoteWriteError
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrProfileMissing), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &remote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes it as {"error": ...}
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	log := logger.FromContext(c)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Int("status", status), zap.Error(err))
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
	} else {
		log.Warn("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	resp := echo.Map{"error": message}
	var validation *service.ValidationError
	if errors.As(err, &validation) && validation.Field != "" {
		resp["field"] = validation.Field
	}
	return c.JSON(status, resp)
}

// paramID parses a uuid path parameter
func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, &service.ValidationError{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}

func badRequest(field, message string) error {
	return &service.ValidationError{Field: field, Message: message}
}
