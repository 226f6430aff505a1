package handler

import (
	"net/http"

	"marketplace-service/internal/blob"

	"github.com/labstack/echo/v4"
)

// BlobHandler serves images kept by the in-memory blob store
type BlobHandler struct {
	store *blob.MemoryStore
}

func NewBlobHandler(store *blob.MemoryStore) *BlobHandler {
	return &BlobHandler{store: store}
}

func (h *BlobHandler) Get(c echo.Context) error {
	contentType, data, err := h.store.Get(c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "blob not found"})
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Blob(http.StatusOK, contentType, data)
}
