package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Defaults applied when a supplier record is created lazily on first product add
const (
	DefaultSupplierDescription = "Fresh quality products supplier"
	DefaultDeliveryTimeDays    = 3
)

// Supplier extends a profile with marketplace-facing attributes
type Supplier struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	ProfileID        uuid.UUID       `json:"profile_id" gorm:"type:uuid;uniqueIndex;not null"`
	Profile          *Profile        `json:"profile,omitempty" gorm:"foreignKey:ProfileID"`
	Description      string          `json:"description,omitempty" gorm:"type:text"`
	Rating           decimal.Decimal `json:"rating" gorm:"type:numeric(3,2);not null;default:0"`
	DeliveryTimeDays int             `json:"delivery_time_days" gorm:"default:3"`
	DeliveryRadius   *int            `json:"delivery_radius,omitempty"`
	MinOrderAmount   decimal.Decimal `json:"min_order_amount" gorm:"type:numeric(12,2);not null;default:0"`
	Specializations  pq.StringArray  `json:"specializations" gorm:"type:text[]"`
	TotalOrders      int             `json:"total_orders" gorm:"default:0"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewLazySupplier builds the record created the first time a supplier adds a product
func NewLazySupplier(profileID uuid.UUID, category Category) *Supplier {
	return &Supplier{
		ProfileID:        profileID,
		Description:      DefaultSupplierDescription,
		DeliveryTimeDays: DefaultDeliveryTimeDays,
		MinOrderAmount:   decimal.Zero,
		Rating:           decimal.Zero,
		Specializations:  pq.StringArray{string(category)},
	}
}

// SearchText is the lower-cased text a directory search matches against
func (s *Supplier) SearchText() string {
	var parts []string
	if s.Profile != nil {
		parts = append(parts, s.Profile.DisplayName(), s.Profile.City, s.Profile.State)
	}
	parts = append(parts, strings.Join(s.Specializations, " "))
	return strings.ToLower(strings.Join(parts, " "))
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	s.EnsureID()
	return nil
}

// EnsureID assigns a new id when none is set
func (s *Supplier) EnsureID() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
}
