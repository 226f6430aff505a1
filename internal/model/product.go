package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category is the fixed set of product categories
type Category string

const (
	CategoryVegetables Category = "Vegetables"
	CategoryFruits     Category = "Fruits"
	CategorySpices     Category = "Spices"
	CategoryGrains     Category = "Grains"
	CategoryPulses     Category = "Pulses"
	CategoryDairy      Category = "Dairy"
	CategoryMeat       Category = "Meat"
	CategoryPoultry    Category = "Poultry"
	CategorySeafood    Category = "Seafood"
	CategoryOilGhee    Category = "Oil & Ghee"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryVegetables, CategoryFruits, CategorySpices, CategoryGrains, CategoryPulses,
	CategoryDairy, CategoryMeat, CategoryPoultry, CategorySeafood, CategoryOilGhee,
}

// Valid reports whether the category belongs to the fixed set
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Unit is the fixed set of selling units
type Unit string

const (
	UnitKg      Unit = "kg"
	UnitGram    Unit = "gram"
	UnitLiter   Unit = "liter"
	UnitPiece   Unit = "piece"
	UnitDozen   Unit = "dozen"
	UnitQuintal Unit = "quintal"
)

// Units lists every unit in display order
var Units = []Unit{UnitKg, UnitGram, UnitLiter, UnitPiece, UnitDozen, UnitQuintal}

// Valid reports whether the unit belongs to the fixed set
func (u Unit) Valid() bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Product is a catalog entry owned by exactly one supplier. Products are
// never hard-deleted; IsActive hides them from vendors.
type Product struct {
	ID                   uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SupplierID           uuid.UUID       `json:"supplier_id" gorm:"type:uuid;index;not null"`
	Supplier             *Supplier       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Name                 string          `json:"name" gorm:"type:varchar(255);index;not null"`
	NameHindi            string          `json:"name_hindi,omitempty" gorm:"type:varchar(255)"`
	Description          string          `json:"description,omitempty" gorm:"type:text"`
	DescriptionHindi     string          `json:"description_hindi,omitempty" gorm:"type:text"`
	Category             Category        `json:"category" gorm:"type:varchar(50);index;not null"`
	Unit                 Unit            `json:"unit" gorm:"type:varchar(20);not null"`
	PricePerUnit         decimal.Decimal `json:"price_per_unit" gorm:"type:numeric(12,2);not null"`
	MinimumOrderQuantity int             `json:"minimum_order_quantity" gorm:"not null;default:1"`
	AvailableQuantity    *int            `json:"available_quantity,omitempty"`
	ImageURLs            pq.StringArray  `json:"image_urls" gorm:"column:image_urls;type:text[]"`
	IsActive             bool            `json:"is_active" gorm:"index;default:true"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	p.EnsureID()
	return nil
}

// EnsureID assigns a new id when none is set
func (p *Product) EnsureID() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
}
