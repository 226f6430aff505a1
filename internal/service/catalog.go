package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"marketplace-service/internal/blob"
	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductInput is the editable part of a product
type ProductInput struct {
	Name                 string          `json:"name"`
	NameHindi            string          `json:"name_hindi"`
	Description          string          `json:"description"`
	DescriptionHindi     string          `json:"description_hindi"`
	Category             model.Category  `json:"category"`
	Unit                 model.Unit      `json:"unit"`
	PricePerUnit         decimal.Decimal `json:"price_per_unit"`
	MinimumOrderQuantity *int            `json:"minimum_order_quantity"`
	AvailableQuantity    *int            `json:"available_quantity"`
}

// Validate checks the product rules and fills defaults
func (in *ProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	if !in.Category.Valid() {
		return invalid("category", "unknown category %q", in.Category)
	}
	if !in.Unit.Valid() {
		return invalid("unit", "unknown unit %q", in.Unit)
	}
	if !in.PricePerUnit.IsPositive() {
		return invalid("price_per_unit", "must be greater than 0")
	}
	if err := checkColumn("price_per_unit", in.PricePerUnit, model.MoneyScale, model.MaxUnitPrice); err != nil {
		return err
	}
	if in.MinimumOrderQuantity == nil {
		one := 1
		in.MinimumOrderQuantity = &one
	}
	if *in.MinimumOrderQuantity < 1 {
		return invalid("minimum_order_quantity", "must be at least 1")
	}
	if in.AvailableQuantity != nil && *in.AvailableQuantity < 0 {
		return invalid("available_quantity", "must not be negative")
	}
	return nil
}

func (in *ProductInput) apply(p *model.Product) {
	p.Name = in.Name
	p.NameHindi = in.NameHindi
	p.Description = in.Description
	p.DescriptionHindi = in.DescriptionHindi
	p.Category = in.Category
	p.Unit = in.Unit
	p.PricePerUnit = in.PricePerUnit
	p.MinimumOrderQuantity = *in.MinimumOrderQuantity
	p.AvailableQuantity = in.AvailableQuantity
}

// ImageUpload is one attached image file
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CatalogManager creates and edits products and their image lists
type CatalogManager struct {
	repo          repository.Repository
	store         blob.Store
	notifier      Notifier
	profiles      *ProfileResolver
	suppliers     *SupplierRegistrar
	maxImageBytes int64
}

func NewCatalogManager(repo repository.Repository, store blob.Store, notifier Notifier,
	profiles *ProfileResolver, suppliers *SupplierRegistrar, maxImageBytes int64) *CatalogManager {
	return &CatalogManager{
		repo:          repo,
		store:         store,
		notifier:      notifier,
		profiles:      profiles,
		suppliers:     suppliers,
		maxImageBytes: maxImageBytes,
	}
}

func (m *CatalogManager) validateImages(uploads []ImageUpload) error {
	for _, up := range uploads {
		if up.Size > m.maxImageBytes {
			return invalid("images", "%s is larger than %d bytes", up.Filename, m.maxImageBytes)
		}
		if !blob.IsImage(up.ContentType) {
			return invalid("images", "%s is not an image", up.Filename)
		}
	}
	return nil
}

// uploadBatch uploads the images in order. When one fails, the images
// already uploaded are deleted and a *PartialUploadError is returned.
func (m *CatalogManager) uploadBatch(ctx context.Context, owner uuid.UUID, uploads []ImageUpload) ([]blob.Object, error) {
	objects := make([]blob.Object, 0, len(uploads))
	for _, up := range uploads {
		obj, err := m.store.Upload(ctx, blob.NewKey(owner, up.ContentType), up.ContentType, up.Body)
		prometheus.RecordBlobUpload(err)
		if err != nil {
			logger.FromCtx(ctx).Warn("Image upload failed, dropping batch",
				zap.String("file", up.Filename),
				zap.Int("uploaded", len(objects)),
				zap.Error(err))
			m.discard(ctx, objects)
			return nil, &PartialUploadError{File: up.Filename, Total: len(uploads), Err: err}
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// discard deletes blobs that will not be referenced by any product
func (m *CatalogManager) discard(ctx context.Context, objects []blob.Object) {
	for _, obj := range objects {
		if err := m.store.Delete(ctx, obj.Key); err != nil {
			logger.FromCtx(ctx).Error("Failed to delete orphan image",
				zap.String("key", obj.Key),
				zap.Error(err))
		}
	}
}

func urls(objects []blob.Object) []string {
	out := make([]string, 0, len(objects))
	for _, obj := range objects {
		out = append(out, obj.URL)
	}
	return out
}

// owningSupplier resolves the caller as a supplier
func (m *CatalogManager) owningSupplier(ctx context.Context) (*model.Profile, *model.Supplier, error) {
	profile, err := m.profiles.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := RequireRole(profile, model.UserTypeSupplier); err != nil {
		return nil, nil, err
	}
	supplier, err := m.suppliers.ForProfile(ctx, profile.ID)
	if err != nil {
		return profile, nil, err
	}
	return profile, supplier, nil
}

// AddProduct creates an active product owned by the caller, creating the
// caller's supplier record on the first add. When the image batch fails the
// product is still created without images and returned together with a
// *PartialUploadError.
func (m *CatalogManager) AddProduct(ctx context.Context, in ProductInput, uploads []ImageUpload) (product *model.Product, err error) {
	defer observe("product_add", &err)

	profile, err := m.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(profile, model.UserTypeSupplier); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := m.validateImages(uploads); err != nil {
		return nil, err
	}

	supplier, err := m.suppliers.Ensure(ctx, profile, in.Category)
	if err != nil {
		return nil, err
	}

	objects, uploadErr := m.uploadBatch(ctx, supplier.ID, uploads)

	product = &model.Product{
		SupplierID: supplier.ID,
		ImageURLs:  pq.StringArray(urls(objects)),
		IsActive:   true,
	}
	in.apply(product)

	if err := m.repo.CreateProduct(ctx, product); err != nil {
		m.discard(ctx, objects)
		return nil, storeErr("insert product", err)
	}

	logger.FromCtx(ctx).Info("Product added",
		zap.String("product_id", product.ID.String()),
		zap.String("supplier_id", supplier.ID.String()),
		zap.Int("images", len(product.ImageURLs)))
	publish(m.notifier, realtime.TableProducts, realtime.EventInsert, product.ID)

	if uploadErr != nil {
		return product, uploadErr
	}
	return product, nil
}

// ownedProduct loads a product and checks that the caller's supplier owns it
func (m *CatalogManager) ownedProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	_, supplier, err := m.owningSupplier(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: no catalog yet", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}

	product, err := m.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, storeErr("select product", err)
	}
	if product.SupplierID != supplier.ID {
		return nil, fmt.Errorf("%w: product belongs to another supplier", ErrForbidden)
	}
	return product, nil
}

// mergeImages returns existing minus removed, in order, followed by added
func mergeImages(existing, removed, added []string) []string {
	drop := make(map[string]struct{}, len(removed))
	for _, u := range removed {
		drop[u] = struct{}{}
	}
	merged := make([]string, 0, len(existing)+len(added))
	for _, u := range existing {
		if _, ok := drop[u]; !ok {
			merged = append(merged, u)
		}
	}
	return append(merged, added...)
}

// EditProduct replaces the product fields, merges the image list and sets
// the active flag. There is no version check; the last write wins. On a
// failed image batch the product keeps only its surviving images and a
// *PartialUploadError is returned along with it.
func (m *CatalogManager) EditProduct(ctx context.Context, productID uuid.UUID, in ProductInput, removeURLs []string, uploads []ImageUpload, active bool) (product *model.Product, err error) {
	defer observe("product_edit", &err)

	product, err = m.ownedProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := m.validateImages(uploads); err != nil {
		return nil, err
	}

	objects, uploadErr := m.uploadBatch(ctx, product.SupplierID, uploads)

	in.apply(product)
	product.ImageURLs = pq.StringArray(mergeImages(product.ImageURLs, removeURLs, urls(objects)))
	product.IsActive = active

	if err := m.repo.SaveProduct(ctx, product); err != nil {
		m.discard(ctx, objects)
		return nil, storeErr("update product", err)
	}

	publish(m.notifier, realtime.TableProducts, realtime.EventUpdate, product.ID)

	if uploadErr != nil {
		return product, uploadErr
	}
	return product, nil
}

// SetActive hides or shows a product. Products are never hard-deleted.
func (m *CatalogManager) SetActive(ctx context.Context, productID uuid.UUID, active bool) (product *model.Product, err error) {
	defer observe("product_set_active", &err)

	product, err = m.ownedProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.IsActive = active
	if err := m.repo.SaveProduct(ctx, product); err != nil {
		return nil, storeErr("update product", err)
	}

	publish(m.notifier, realtime.TableProducts, realtime.EventUpdate, product.ID)
	return product, nil
}

// ListOwn returns every product of the caller, active or not, newest first
func (m *CatalogManager) ListOwn(ctx context.Context) ([]model.Product, error) {
	_, supplier, err := m.owningSupplier(ctx)
	if errors.Is(err, ErrNotFound) {
		return []model.Product{}, nil
	}
	if err != nil {
		return nil, err
	}

	products, err := m.repo.ListProducts(ctx, repository.ProductFilter{SupplierID: &supplier.ID})
	if err != nil {
		return nil, storeErr("select products", err)
	}
	return products, nil
}

// ListForSupplier returns the active products of a supplier, newest first
func (m *CatalogManager) ListForSupplier(ctx context.Context, supplierID uuid.UUID) ([]model.Product, error) {
	if _, err := m.profiles.Resolve(ctx); err != nil {
		return nil, err
	}

	products, err := m.repo.ListProducts(ctx, repository.ProductFilter{SupplierID: &supplierID, ActiveOnly: true})
	if err != nil {
		return nil, storeErr("select products", err)
	}
	return products, nil
}
