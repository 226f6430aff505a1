package handler

import (
	"context"
	"net/http"

	"marketplace-service/internal/model"
	"marketplace-service/internal/service"
	"marketplace-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrderHandler serves order submission and the order lifecycle
type OrderHandler struct {
	composer  *service.OrderComposer
	lifecycle *service.OrderLifecycle
}

func NewOrderHandler(composer *service.OrderComposer, lifecycle *service.OrderLifecycle) *OrderHandler {
	return &OrderHandler{composer: composer, lifecycle: lifecycle}
}

// Submit places an order from a draft
func (h *OrderHandler) Submit(c echo.Context) error {
	log := logger.FromContext(c)

	var draft service.Draft
	if err := c.Bind(&draft); err != nil {
		log.Warn("Invalid order request", zap.Error(err))
		return respondError(c, badRequest("", "invalid request data"))
	}

	order, err := h.composer.Submit(c.Request().Context(), draft)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// List returns the caller's orders, filtered by ?status= (default all)
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.lifecycle.ListForVendor(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get returns one order to either party
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.lifecycle.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// Pending returns the pending orders addressed to the calling supplier
func (h *OrderHandler) Pending(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return respondError(c, err)
	}
	orders, err := h.lifecycle.PendingForSupplier(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Accept confirms an order
func (h *OrderHandler) Accept(c echo.Context) error {
	return h.transition(c, h.lifecycle.Accept)
}

// Decline cancels an order
func (h *OrderHandler) Decline(c echo.Context) error {
	return h.transition(c, h.lifecycle.Decline)
}

func (h *OrderHandler) transition(c echo.Context, move func(ctx context.Context, id uuid.UUID) (*model.Order, error)) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	order, err := move(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
