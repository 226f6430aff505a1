package handler

import (
	"net/http"

	"marketplace-service/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// FavoriteHandler serves vendor bookmarks
type FavoriteHandler struct {
	favorites *service.Favorites
}

func NewFavoriteHandler(favorites *service.Favorites) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

type favoriteRequest struct {
	SupplierID uuid.UUID `json:"supplier_id"`
}

func (h *FavoriteHandler) List(c echo.Context) error {
	favorites, err := h.favorites.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, favorites)
}

func (h *FavoriteHandler) Add(c echo.Context) error {
	var req favoriteRequest
	if err := c.Bind(&req); err != nil || req.SupplierID == uuid.Nil {
		return respondError(c, badRequest("supplier_id", "is required"))
	}
	if err := h.favorites.Add(c.Request().Context(), req.SupplierID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	supplierID, err := paramID(c, "supplierId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.favorites.Remove(c.Request().Context(), supplierID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MessageHandler serves messages between profiles
type MessageHandler struct {
	messages *service.Messages
}

func NewMessageHandler(messages *service.Messages) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List returns the caller's messages, optionally for ?order_id=
func (h *MessageHandler) List(c echo.Context) error {
	var orderID *uuid.UUID
	if raw := c.QueryParam("order_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return respondError(c, badRequest("order_id", "must be a UUID"))
		}
		orderID = &id
	}

	messages, err := h.messages.List(c.Request().Context(), orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) Send(c echo.Context) error {
	var req service.MessageInput
	if err := c.Bind(&req); err != nil {
		return respondError(c, badRequest("", "invalid request data"))
	}
	msg, err := h.messages.Send(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.messages.MarkRead(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
