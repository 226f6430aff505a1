package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserType tags a profile as buyer or seller
type UserType string

const (
	UserTypeVendor   UserType = "vendor"
	UserTypeSupplier UserType = "supplier"
)

// Valid reports whether the user type is known
func (t UserType) Valid() bool {
	return t == UserTypeVendor || t == UserTypeSupplier
}

// Profile is the identity-linked record common to vendors and suppliers
type Profile struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       string    `json:"user_id" gorm:"type:varchar(64);uniqueIndex;not null;comment:'Identity this profile belongs to'"`
	FullName     string    `json:"full_name" gorm:"type:varchar(255);not null"`
	BusinessName string    `json:"business_name,omitempty" gorm:"type:varchar(255)"`
	Phone        string    `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Address      string    `json:"address,omitempty" gorm:"type:text"`
	City         string    `json:"city,omitempty" gorm:"type:varchar(100)"`
	State        string    `json:"state,omitempty" gorm:"type:varchar(100)"`
	Pincode      string    `json:"pincode,omitempty" gorm:"type:varchar(12)"`
	AvatarURL    string    `json:"avatar_url,omitempty" gorm:"type:text"`
	UserType     UserType  `json:"user_type" gorm:"type:varchar(20);index;not null"`
	IsVerified   bool      `json:"is_verified" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName prefers the business name the way supplier listings show it
func (p *Profile) DisplayName() string {
	if p.BusinessName != "" {
		return p.BusinessName
	}
	return p.FullName
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	p.EnsureID()
	return nil
}

// EnsureID assigns a new id when none is set
func (p *Profile) EnsureID() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
}
