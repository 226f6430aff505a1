package service

import (
	"context"
	"errors"

	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SupplierRegistrar keeps at most one supplier record per profile
type SupplierRegistrar struct {
	repo     repository.Repository
	notifier Notifier
}

func NewSupplierRegistrar(repo repository.Repository, notifier Notifier) *SupplierRegistrar {
	return &SupplierRegistrar{repo: repo, notifier: notifier}
}

// ForProfile returns the supplier record of a profile or ErrNotFound
func (s *SupplierRegistrar) ForProfile(ctx context.Context, profileID uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.repo.FindSupplierByProfileID(ctx, profileID)
	if err != nil {
		return nil, storeErr("select supplier", err)
	}
	return supplier, nil
}

// Ensure returns the supplier record of the profile, creating it with the
// lazy defaults and the given category when none exists. Concurrent calls
// for one profile create exactly one row.
func (s *SupplierRegistrar) Ensure(ctx context.Context, profile *model.Profile, category model.Category) (*model.Supplier, error) {
	candidate := model.NewLazySupplier(profile.ID, category)
	inserted, err := s.repo.InsertSupplierIfAbsent(ctx, candidate)
	if err != nil {
		return nil, storeErr("insert supplier", err)
	}
	if inserted {
		logger.FromCtx(ctx).Info("Supplier record created",
			zap.String("supplier_id", candidate.ID.String()),
			zap.String("profile_id", profile.ID.String()),
			zap.String("category", string(category)))
		publish(s.notifier, realtime.TableSuppliers, realtime.EventInsert, candidate.ID)
		return candidate, nil
	}
	return s.ForProfile(ctx, profile.ID)
}

const (
	defaultDirectoryLimit = 20
	maxDirectoryLimit     = 100
	defaultPendingLimit   = 10
)

// Stats are the supplier dashboard figures
type Stats struct {
	TotalOrders    int64           `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	ActiveProducts int64           `json:"active_products"`
	Rating         decimal.Decimal `json:"rating"`
}

// Directory lets vendors browse suppliers and suppliers read their dashboard
type Directory struct {
	repo      repository.Repository
	profiles  *ProfileResolver
	suppliers *SupplierRegistrar
}

func NewDirectory(repo repository.Repository, profiles *ProfileResolver, suppliers *SupplierRegistrar) *Directory {
	return &Directory{repo: repo, profiles: profiles, suppliers: suppliers}
}

// Search lists suppliers whose name, city, state or specializations contain
// query, ignoring case. An empty query lists everyone.
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]model.Supplier, error) {
	if _, err := d.profiles.Resolve(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultDirectoryLimit
	}
	if limit > maxDirectoryLimit {
		limit = maxDirectoryLimit
	}

	suppliers, err := d.repo.ListSuppliers(ctx, repository.SupplierFilter{Search: query, Limit: limit})
	if err != nil {
		return nil, storeErr("select suppliers", err)
	}
	return suppliers, nil
}

// Get returns one supplier with its profile
func (d *Directory) Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	if _, err := d.profiles.Resolve(ctx); err != nil {
		return nil, err
	}
	supplier, err := d.repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, storeErr("select supplier", err)
	}
	return supplier, nil
}

// Stats returns the dashboard figures of the calling supplier. A supplier
// without a record yet has zero everywhere.
func (d *Directory) Stats(ctx context.Context) (*Stats, error) {
	profile, err := d.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(profile, model.UserTypeSupplier); err != nil {
		return nil, err
	}

	stats := &Stats{TotalRevenue: decimal.Zero, Rating: decimal.Zero}
	supplier, err := d.suppliers.ForProfile(ctx, profile.ID)
	if errors.Is(err, ErrNotFound) {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	agg, err := d.repo.SupplierStats(ctx, supplier.ID)
	if err != nil {
		return nil, storeErr("select supplier stats", err)
	}
	stats.TotalOrders = agg.TotalOrders
	stats.TotalRevenue = agg.ConfirmedRevenue
	stats.ActiveProducts = agg.ActiveProducts
	stats.Rating = supplier.Rating
	return stats, nil
}
