package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Schedule is a user's weekly working pattern. At most one per user is the
// default, which is what the time-entry bounds check consults.
type Schedule struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string        `gorm:"type:varchar(255);not null" json:"name"`
	Timezone  string        `gorm:"type:varchar(64);not null" json:"timezone"`
	IsDefault bool          `gorm:"default:false" json:"is_default"`
	Days      []ScheduleDay `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"days"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (s *Schedule) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// ScheduleDay holds HH:MM bounds for one ISO weekday (1=Monday, 7=Sunday).
type ScheduleDay struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ScheduleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_weekday" json:"-"`
	Weekday    int       `gorm:"not null;uniqueIndex:idx_schedule_weekday" json:"weekday"`
	WorkStart  *string   `gorm:"type:varchar(5)" json:"work_start"`
	WorkEnd    *string   `gorm:"type:varchar(5)" json:"work_end"`
	LunchStart *string   `gorm:"type:varchar(5)" json:"lunch_start"`
	LunchEnd   *string   `gorm:"type:varchar(5)" json:"lunch_end"`
	IsDayOff   bool      `gorm:"default:false" json:"is_day_off"`
}

func (d *ScheduleDay) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
