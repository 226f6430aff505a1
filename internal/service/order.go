package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/logger"
	"marketplace-service/prometheus"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// maxOrderNumberAttempts bounds the retries on an order number collision
const maxOrderNumberAttempts = 5

const deliveryDateLayout = "2006-01-02"

type preparedItem struct {
	name      string
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
	total     decimal.Decimal
}

// checkColumn rejects values its numeric column would round or overflow
func checkColumn(field string, d decimal.Decimal, scale int32, bound decimal.Decimal) error {
	if !d.Equal(d.Truncate(scale)) {
		return invalid(field, "must have at most %d decimal places", scale)
	}
	if !model.FitsColumn(d, scale, bound) {
		return invalid(field, "must be less than %s", bound.String())
	}
	return nil
}

// prepareItems keeps the complete rows in order and parses their numbers.
// Line totals are rounded to cents.
func prepareItems(items []LineItem) ([]preparedItem, error) {
	var prepared []preparedItem
	for i, li := range items {
		if !li.Complete() {
			continue
		}
		qtyField := fmt.Sprintf("items[%d].quantity", i)
		qty, err := decimal.NewFromString(strings.TrimSpace(li.Quantity))
		if err != nil || !qty.IsPositive() {
			return nil, invalid(qtyField, "must be a positive number")
		}
		if err := checkColumn(qtyField, qty, model.QuantityScale, model.MaxQuantity); err != nil {
			return nil, err
		}
		priceField := fmt.Sprintf("items[%d].unit_price", i)
		price, err := decimal.NewFromString(strings.TrimSpace(li.UnitPrice))
		if err != nil || !price.IsPositive() {
			return nil, invalid(priceField, "must be a positive number")
		}
		if err := checkColumn(priceField, price, model.MoneyScale, model.MaxUnitPrice); err != nil {
			return nil, err
		}
		total := model.RoundMoney(qty.Mul(price))
		if !total.IsPositive() {
			return nil, invalid(qtyField, "line total rounds to zero")
		}
		if err := checkColumn(fmt.Sprintf("items[%d].total", i), total, model.MoneyScale, model.MaxLineTotal); err != nil {
			return nil, err
		}
		prepared = append(prepared, preparedItem{
			name:      strings.TrimSpace(li.ProductName),
			quantity:  qty,
			unitPrice: price,
			total:     total,
		})
	}
	if len(prepared) == 0 {
		return nil, invalid("items", "at least one item needs a product name, quantity and unit price")
	}
	return prepared, nil
}

// OrderComposer turns a vendor's draft into an order with its items
type OrderComposer struct {
	repo     repository.Repository
	notifier Notifier
	profiles *ProfileResolver
	now      func() time.Time
}

func NewOrderComposer(repo repository.Repository, notifier Notifier, profiles *ProfileResolver) *OrderComposer {
	return &OrderComposer{repo: repo, notifier: notifier, profiles: profiles, now: time.Now}
}

// Submit validates the draft and stores the order, its items and the
// supplier's order count in one transaction. The total is recomputed from
// the complete rows; incomplete rows are skipped.
func (c *OrderComposer) Submit(ctx context.Context, d Draft) (order *model.Order, err error) {
	defer observe("order_submit", &err)
	log := logger.FromCtx(ctx)

	vendor, err := c.profiles.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(vendor, model.UserTypeVendor); err != nil {
		return nil, err
	}

	address := strings.TrimSpace(d.DeliveryAddress)
	if address == "" {
		return nil, invalid("delivery_address", "is required")
	}

	var deliveryDate *datatypes.Date
	if s := strings.TrimSpace(d.DeliveryDate); s != "" {
		t, err := time.Parse(deliveryDateLayout, s)
		if err != nil {
			return nil, invalid("delivery_date", "must be YYYY-MM-DD")
		}
		date := datatypes.Date(t)
		deliveryDate = &date
	}

	items, err := prepareItems(d.Items)
	if err != nil {
		return nil, err
	}

	audience := []uuid.UUID{vendor.ID}
	if d.SupplierID != nil {
		supplier, err := c.repo.GetSupplier(ctx, *d.SupplierID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("supplier_id", "unknown supplier")
			}
			return nil, storeErr("select supplier", err)
		}
		audience = append(audience, supplier.ProfileID)
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.total)
	}
	if err := checkColumn("items", total, model.MoneyScale, model.MaxOrderTotal); err != nil {
		return nil, err
	}

	start := c.now()
	for attempt := 0; ; attempt++ {
		order = &model.Order{
			OrderNumber:     model.OrderNumber(start.Add(time.Duration(attempt) * time.Millisecond)),
			VendorID:        vendor.ID,
			SupplierID:      d.SupplierID,
			DeliveryAddress: address,
			DeliveryDate:    deliveryDate,
			Notes:           strings.TrimSpace(d.Notes),
			TotalAmount:     total,
			Status:          model.OrderStatusPending,
		}

		err = c.repo.Transaction(ctx, func(tx repository.Repository) error {
			return c.persist(ctx, tx, order, items)
		})
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrConflict) && attempt+1 < maxOrderNumberAttempts {
			log.Warn("Order number taken, retrying",
				zap.String("order_number", order.OrderNumber),
				zap.Int("attempt", attempt+1))
			continue
		}
		log.Error("Order submission rolled back", zap.Error(err))
		return nil, storeErr("insert order", err)
	}

	log.Info("Order submitted",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", total.StringFixed(2)),
		zap.Int("items", len(order.Items)))
	prometheus.RecordOrderCreated(total.InexactFloat64())

	publish(c.notifier, realtime.TableOrders, realtime.EventInsert, order.ID, audience...)
	for _, item := range order.Items {
		publish(c.notifier, realtime.TableOrderItems, realtime.EventInsert, item.ID, audience...)
	}

	stored, err := c.repo.GetOrder(ctx, order.ID)
	if err != nil {
		log.Warn("Reading back submitted order failed", zap.Error(err))
		order.Verify()
		return order, nil
	}
	stored.Verify()
	return stored, nil
}

// persist writes the order, then each item in draft order, then bumps the
// supplier's order count. Any error aborts the surrounding transaction.
func (c *OrderComposer) persist(ctx context.Context, tx repository.Repository, order *model.Order, items []preparedItem) error {
	if err := tx.CreateOrder(ctx, order); err != nil {
		return err
	}

	order.Items = make([]model.OrderItem, 0, len(items))
	for i, it := range items {
		var productID *uuid.UUID
		product, err := tx.FindProductByName(ctx, it.name)
		switch {
		case err == nil:
			productID = &product.ID
		case errors.Is(err, repository.ErrNotFound):
		default:
			return err
		}

		item := model.OrderItem{
			OrderID:    order.ID,
			Position:   i,
			ProductID:  productID,
			Quantity:   it.quantity,
			UnitPrice:  it.unitPrice,
			TotalPrice: it.total,
		}
		if err := tx.CreateOrderItem(ctx, &item); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}

	if order.SupplierID != nil {
		if err := tx.IncrementSupplierOrders(ctx, *order.SupplierID); err != nil {
			return err
		}
	}
	return nil
}
