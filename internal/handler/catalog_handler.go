package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"marketplace-service/internal/model"
	"marketplace-service/internal/service"
	"marketplace-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CatalogHandler serves the supplier's own catalog
type CatalogHandler struct {
	catalog *service.CatalogManager
}

func NewCatalogHandler(catalog *service.CatalogManager) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// productPayload is the JSON carried in the "payload" form field
type productPayload struct {
	service.ProductInput
	IsActive *bool `json:"is_active"`
}

// productResponse carries the saved product and, when the image batch was
// dropped, the reason
type productResponse struct {
	Product *model.Product `json:"product"`
	Warning string         `json:"warning,omitempty"`
}

type multipartProduct struct {
	payload productPayload
	remove  []string
	uploads []service.ImageUpload
	closers []io.Closer
}

func (m *multipartProduct) Close() {
	for _, c := range m.closers {
		c.Close()
	}
}

func formFiles(form *multipart.Form) []*multipart.FileHeader {
	files := form.File["images[]"]
	return append(files, form.File["images"]...)
}

// readProductForm parses a multipart product request. The caller must Close
// the result.
func readProductForm(c echo.Context) (*multipartProduct, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, badRequest("", "expected multipart form data")
	}

	m := &multipartProduct{}
	raw := form.Value["payload"]
	if len(raw) == 0 {
		return nil, badRequest("payload", "is required")
	}
	if err := json.Unmarshal([]byte(raw[0]), &m.payload); err != nil {
		return nil, badRequest("payload", "invalid JSON: "+err.Error())
	}
	m.remove = append(m.remove, form.Value["remove_images[]"]...)
	m.remove = append(m.remove, form.Value["remove_images"]...)

	for _, fh := range formFiles(form) {
		f, err := fh.Open()
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		m.closers = append(m.closers, f)
		m.uploads = append(m.uploads, service.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return m, nil
}

// productResult writes a saved product, turning a dropped image batch into a warning
func productResult(c echo.Context, status int, product *model.Product, err error) error {
	var partial *service.PartialUploadError
	if errors.As(err, &partial) && product != nil {
		logger.FromContext(c).Warn("Product saved without new images", zap.Error(err))
		return c.JSON(status, productResponse{Product: product, Warning: partial.Error()})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status, productResponse{Product: product})
}

// List returns every product of the caller
func (h *CatalogHandler) List(c echo.Context) error {
	products, err := h.catalog.ListOwn(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Create adds a product from a multipart form with a "payload" JSON field
// and "images[]" files
func (h *CatalogHandler) Create(c echo.Context) error {
	form, err := readProductForm(c)
	if err != nil {
		return respondError(c, err)
	}
	defer form.Close()

	product, err := h.catalog.AddProduct(c.Request().Context(), form.payload.ProductInput, form.uploads)
	return productResult(c, http.StatusCreated, product, err)
}

// Update edits a product. "remove_images[]" lists image URLs to drop and
// "images[]" adds new ones. is_active defaults to true.
func (h *CatalogHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	form, err := readProductForm(c)
	if err != nil {
		return respondError(c, err)
	}
	defer form.Close()

	active := true
	if form.payload.IsActive != nil {
		active = *form.payload.IsActive
	}

	product, err := h.catalog.EditProduct(c.Request().Context(), id, form.payload.ProductInput, form.remove, form.uploads, active)
	return productResult(c, http.StatusOK, product, err)
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

// SetActive toggles the product's visibility
func (h *CatalogHandler) SetActive(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req activeRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return respondError(c, badRequest("is_active", "is required"))
	}

	product, err := h.catalog.SetActive(c.Request().Context(), id, *req.IsActive)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// Export downloads the caller's catalog as an xlsx workbook
func (h *CatalogHandler) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.catalog.ExportOwn(c.Request().Context(), &buf); err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("catalog-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
