package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite is a vendor bookmark on a supplier
type Favorite struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	VendorID   uuid.UUID `json:"vendor_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorite_vendor_supplier"`
	SupplierID uuid.UUID `json:"supplier_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorite_vendor_supplier"`
	Supplier   *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	CreatedAt  time.Time `json:"created_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	f.EnsureID()
	return nil
}

// EnsureID assigns a new id when none is set
func (f *Favorite) EnsureID() {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
}

// Message is free text between two profiles, optionally about an order
type Message struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SenderID   uuid.UUID  `json:"sender_id" gorm:"type:uuid;index;not null"`
	ReceiverID uuid.UUID  `json:"receiver_id" gorm:"type:uuid;index;not null"`
	OrderID    *uuid.UUID `json:"order_id,omitempty" gorm:"type:uuid;index"`
	Message    string     `json:"message" gorm:"type:text;not null"`
	IsRead     bool       `json:"is_read" gorm:"default:false"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	m.EnsureID()
	return nil
}

// EnsureID assigns a new id when none is set
func (m *Message) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// All returns every model for migrations, parents first
func All() []interface{} {
	return []interface{}{
		&Profile{}, &Supplier{}, &Product{}, &Order{}, &OrderItem{}, &Favorite{}, &Message{},
	}
}
