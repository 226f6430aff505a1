// Package repository is the data-store collaborator of the marketplace: one
// method per insert/update/select the services need, with a Postgres backend
// built on GORM and an in-memory backend for development and tests.
package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-service/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("duplicate key value")
)

// ProductFilter narrows product listings
type ProductFilter struct {
	SupplierID *uuid.UUID
	ActiveOnly bool
}

// OrderFilter narrows order listings. A zero Status matches every status.
type OrderFilter struct {
	VendorID   *uuid.UUID
	SupplierID *uuid.UUID
	Status     model.OrderStatus
	Limit      int
}

// SupplierFilter narrows the supplier directory. Search matches, ignoring
// case, anywhere in the display name, city, state or specializations.
type SupplierFilter struct {
	Search string
	Limit  int
}

// SupplierStats are the aggregate figures of the supplier dashboard
type SupplierStats struct {
	TotalOrders      int64
	ConfirmedRevenue decimal.Decimal
	ActiveProducts   int64
}

// Repository is the storage contract. Reads of a single row return
// ErrNotFound when nothing matches; inserts return ErrConflict on unique
// violations.
type Repository interface {
	CreateProfile(ctx context.Context, p *model.Profile) error
	FindProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, p *model.Profile) error

	FindSupplierByProfileID(ctx context.Context, profileID uuid.UUID) (*model.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	// InsertSupplierIfAbsent inserts s unless a supplier already exists for
	// s.ProfileID, atomically. It reports whether a row was inserted.
	InsertSupplierIfAbsent(ctx context.Context, s *model.Supplier) (bool, error)
	// ListSuppliers returns matching suppliers by rating, best first
	ListSuppliers(ctx context.Context, filter SupplierFilter) ([]model.Supplier, error)
	IncrementSupplierOrders(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, p *model.Product) error
	SaveProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	// FindProductByName returns the oldest product with exactly this name
	FindProductByName(ctx context.Context, name string) (*model.Product, error)

	CreateOrder(ctx context.Context, o *model.Order) error
	CreateOrderItem(ctx context.Context, item *model.OrderItem) error
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	// TransitionOrder moves an order from one status to another in a single
	// conditional write. It reports false when the order was not in from.
	TransitionOrder(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, at time.Time) (bool, error)
	SupplierStats(ctx context.Context, supplierID uuid.UUID) (SupplierStats, error)

	AddFavorite(ctx context.Context, f *model.Favorite) error
	ListFavorites(ctx context.Context, vendorID uuid.UUID) ([]model.Favorite, error)
	// DeleteFavorite removes the pair and returns the deleted row
	DeleteFavorite(ctx context.Context, vendorID, supplierID uuid.UUID) (*model.Favorite, error)

	CreateMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, profileID uuid.UUID, orderID *uuid.UUID) ([]model.Message, error)
	MarkMessageRead(ctx context.Context, id, receiverID uuid.UUID) error

	// Transaction runs fn against a repository bound to one transaction.
	// Returning an error from fn rolls every write back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
}
