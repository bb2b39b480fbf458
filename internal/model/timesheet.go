package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timesheet is a user's Monday-to-Sunday week. Entries are not owned; they
// are re-read by date range whenever the sheet is viewed. TotalMinutes and
// TotalHours are the snapshot taken at creation.
type Timesheet struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_timesheet_user_week" json:"user_id"`
	User          *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WeekStartDate time.Time  `gorm:"not null;uniqueIndex:idx_timesheet_user_week" json:"week_start_date"`
	WeekEndDate   time.Time  `gorm:"not null" json:"week_end_date"`
	Status        string     `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	TotalMinutes  int        `gorm:"not null;default:0" json:"total_minutes"`
	TotalHours    float64    `gorm:"not null;default:0" json:"total_hours"`
	ReviewedBy    *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t *Timesheet) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
