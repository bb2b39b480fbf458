package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RateTypeHourly  = "HOURLY"
	RateTypeDaily   = "DAILY"
	RateTypeMonthly = "MONTHLY"
)

// Rate is a pay rate valid over [ValidFrom, ValidTo]. A nil ValidTo is open-ended.
type Rate struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string          `gorm:"type:varchar(20);not null" json:"type"`
	Value     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	Currency  string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	ValidFrom time.Time       `gorm:"not null" json:"valid_from"`
	ValidTo   *time.Time      `json:"valid_to"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *Rate) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
