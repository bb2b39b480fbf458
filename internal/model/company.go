package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CompanyTypeClient     = "CLIENT"
	CompanyTypeContractor = "CONTRACTOR"
	CompanyTypeInternal   = "INTERNAL"
)

type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Type      string    `gorm:"type:varchar(20);not null;default:'CLIENT'" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// CompanyMembership drives the LIMITED scoping policy: a limited user only
// sees the companies they belong to.
type CompanyMembership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_member" json:"user_id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_member;index" json:"company_id"`
	Company   Company   `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *CompanyMembership) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
