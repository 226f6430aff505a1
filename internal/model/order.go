package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus is the order state vocabulary. Only pending, confirmed and
// cancelled are ever written; shipped and delivered exist for filtering.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists the full vocabulary
var OrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
}

// Valid reports whether the status is part of the vocabulary
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no supplier transition leaves the status
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusCancelled
}

// OrderNumber formats the human readable order number for an instant
func OrderNumber(at time.Time) string {
	return fmt.Sprintf("ORD-%d", at.UnixMilli())
}

// Order is placed by a vendor and optionally addressed to a supplier
type Order struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderNumber     string          `json:"order_number" gorm:"type:varchar(32);uniqueIndex;not null"`
	VendorID        uuid.UUID       `json:"vendor_id" gorm:"type:uuid;index;not null"`
	Vendor          *Profile        `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	SupplierID      *uuid.UUID      `json:"supplier_id,omitempty" gorm:"type:uuid;index"`
	Supplier        *Supplier       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	DeliveryAddress string          `json:"delivery_address" gorm:"type:text;not null"`
	DeliveryDate    *datatypes.Date `json:"delivery_date,omitempty"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);index;not null;default:'pending'"`
	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Filled at read time from the persisted items
	ItemsTotal    *decimal.Decimal `json:"items_total,omitempty" gorm:"-"`
	TotalVerified *bool            `json:"total_verified,omitempty" gorm:"-"`
}

// Parties returns the profiles an order belongs to: its vendor and, when
// the supplier is loaded, the supplier's profile.
func (o *Order) Parties() []uuid.UUID {
	parties := []uuid.UUID{o.VendorID}
	if o.Supplier != nil && o.Supplier.ProfileID != uuid.Nil {
		parties = append(parties, o.Supplier.ProfileID)
	}
	return parties
}

// HasParty reports whether profileID is one of the order's parties
func (o *Order) HasParty(profileID uuid.UUID) bool {
	for _, id := range o.Parties() {
		if id == profileID {
			return true
		}
	}
	return false
}

// Verify recomputes the total from the loaded items and records whether it
// matches the stored figure.
func (o *Order) Verify() bool {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.TotalPrice)
	}
	ok := sum.Equal(o.TotalAmount)
	o.ItemsTotal = &sum
	o.TotalVerified = &ok
	return ok
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	o.EnsureID()
	return nil
}

// EnsureID assigns a new id when none is set
func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
}

// OrderItem is a persisted line of an order. ProductID is nil when the line
// could not be resolved to a catalog product by name.
type OrderItem struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID       `json:"order_id" gorm:"type:uuid;index;not null"`
	Position   int             `json:"position" gorm:"not null;default:0"`
	ProductID  *uuid.UUID      `json:"product_id" gorm:"type:uuid;index"`
	Product    *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:numeric(12,3);not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:numeric(14,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	i.EnsureID()
	return nil
}

// EnsureID assigns a new id when none is set
func (i *OrderItem) EnsureID() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
}
