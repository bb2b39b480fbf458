package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status values shared by time entries and timesheets
const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
)

// Statuses lists the lifecycle values in workflow order.
var Statuses = []string{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}

const (
	SourceManual = "MANUAL"
	SourceTimer  = "TIMER"
)

// TimeEntry is one recorded work interval. An entry with Source TIMER, a
// start and no end is the user's running timer; the partial unique index
// allows at most one per user.
type TimeEntry struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_time_entries_user_date,priority:1;uniqueIndex:idx_time_entries_open_timer,where:end_at IS NULL AND source = 'TIMER'" json:"user_id"`
	User            *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CompanyID       *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Company         *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Date            time.Time  `gorm:"not null;index:idx_time_entries_user_date,priority:2" json:"date"`
	StartAt         *time.Time `json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	BreakMinutes    int        `gorm:"not null;default:0" json:"break_minutes"`
	DurationMinutes int        `gorm:"not null;default:0" json:"duration_minutes"`
	Status          string     `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Source          string     `gorm:"type:varchar(20);not null;default:'MANUAL'" json:"source"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (e *TimeEntry) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

// IsOpenTimer reports whether the entry is a running timer.
func (e *TimeEntry) IsOpenTimer() bool {
	return e.Source == SourceTimer && e.StartAt != nil && e.EndAt == nil
}
