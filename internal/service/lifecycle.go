package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderLifecycle moves orders out of pending and reads them back.
//
// Transitions: pending → confirmed (accept) and pending → cancelled
// (decline). Repeating the transition an order already went through is a
// no-op; anything else out of a terminal status fails with
// ErrInvalidTransition.
type OrderLifecycle struct {
	repo      repository.Repository
	notifier  Notifier
	profiles  *ProfileResolver
	suppliers *SupplierRegistrar
	now       func() time.Time
}

func NewOrderLifecycle(repo repository.Repository, notifier Notifier, profiles *ProfileResolver, suppliers *SupplierRegistrar) *OrderLifecycle {
	return &OrderLifecycle{repo: repo, notifier: notifier, profiles: profiles, suppliers: suppliers, now: time.Now}
}

// Accept confirms a pending order addressed to the caller
func (l *OrderLifecycle) Accept(ctx context.Context, orderID uuid.UUID) (order *model.Order, err error) {
	defer observe("order_accept", &err)
	return l.transition(ctx, orderID, model.OrderStatusConfirmed)
}

// Decline cancels a pending order addressed to the caller
func (l *OrderLifecycle) Decline(ctx context.Context, orderID uuid.UUID) (order *model.Order, err error) {
	defer observe("order_decline", &err)
	return l.transition(ctx, orderID, model.OrderStatusCancelled)
}

// callerSupplier resolves the caller's supplier record. A supplier profile
// without a record owns no orders.
func (l *OrderLifecycle) callerSupplier(ctx context.Context) (*model.Profile, *model.Supplier, error) {
	profile, err := l.profiles.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := RequireRole(profile, model.UserTypeSupplier); err != nil {
		return nil, nil, err
	}
	supplier, err := l.suppliers.ForProfile(ctx, profile.ID)
	if err != nil {
		return profile, nil, err
	}
	return profile, supplier, nil
}

func (l *OrderLifecycle) transition(ctx context.Context, orderID uuid.UUID, to model.OrderStatus) (*model.Order, error) {
	_, supplier, err := l.callerSupplier(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: order is addressed to another supplier", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}

	order, err := l.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("select order", err)
	}
	if order.SupplierID == nil || *order.SupplierID != supplier.ID {
		return nil, fmt.Errorf("%w: order is addressed to another supplier", ErrForbidden)
	}

	if order.Status == to {
		order.Verify()
		return order, nil
	}
	if order.Status != model.OrderStatusPending {
		return nil, fmt.Errorf("%w: %s order cannot become %s", ErrInvalidTransition, order.Status, to)
	}

	moved, err := l.repo.TransitionOrder(ctx, orderID, model.OrderStatusPending, to, l.now())
	if err != nil {
		return nil, storeErr("update order status", err)
	}

	order, err = l.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("select order", err)
	}
	if !moved && order.Status != to {
		// someone else moved it first
		return nil, fmt.Errorf("%w: %s order cannot become %s", ErrInvalidTransition, order.Status, to)
	}

	if moved {
		logger.FromCtx(ctx).Info("Order status changed",
			zap.String("order_id", orderID.String()),
			zap.String("order_number", order.OrderNumber),
			zap.String("status", string(to)))
		publish(l.notifier, realtime.TableOrders, realtime.EventUpdate, orderID, order.Parties()...)
	}
	order.Verify()
	return order, nil
}

// ListForVendor returns the caller's orders, newest first. status "all" or
// empty matches every status.
func (l *OrderLifecycle) ListForVendor(ctx context.Context, status string) ([]model.Order, error) {
	profile, err := l.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	filter := repository.OrderFilter{VendorID: &profile.ID}
	if status != "" && status != "all" {
		s := model.OrderStatus(status)
		if !s.Valid() {
			return nil, invalid("status", "unknown status %q", status)
		}
		filter.Status = s
	}

	orders, err := l.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, storeErr("select orders", err)
	}
	for i := range orders {
		orders[i].Verify()
	}
	return orders, nil
}

// PendingForSupplier returns the newest pending orders addressed to the caller
func (l *OrderLifecycle) PendingForSupplier(ctx context.Context, limit int) ([]model.Order, error) {
	_, supplier, err := l.callerSupplier(ctx)
	if errors.Is(err, ErrNotFound) {
		return []model.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPendingLimit
	}

	orders, err := l.repo.ListOrders(ctx, repository.OrderFilter{
		SupplierID: &supplier.ID,
		Status:     model.OrderStatusPending,
		Limit:      limit,
	})
	if err != nil {
		return nil, storeErr("select orders", err)
	}
	for i := range orders {
		orders[i].Verify()
	}
	return orders, nil
}

// Get returns an order to its vendor or to the supplier it is addressed to
func (l *OrderLifecycle) Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	profile, err := l.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	order, err := l.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("select order", err)
	}

	if !order.HasParty(profile.ID) {
		return nil, fmt.Errorf("%w: not a party to this order", ErrForbidden)
	}

	order.Verify()
	return order, nil
}
