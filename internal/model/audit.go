package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionApproveTimeEntry   = "APPROVE_TIME_ENTRY"
	ActionRejectTimeEntry    = "REJECT_TIME_ENTRY"
	ActionSubmitTimesheet    = "SUBMIT_TIMESHEET"
	ActionApproveTimesheet   = "APPROVE_TIMESHEET"
	ActionRejectTimesheet    = "REJECT_TIMESHEET"
	ActionUpdateRoleGrants   = "UPDATE_ROLE_PERMISSIONS"
	ActionAssignUserRoles    = "ASSIGN_USER_ROLES"
	ActionCancelTimer        = "CANCEL_TIMER"
	ActionDeleteTimeEntry    = "DELETE_TIME_ENTRY"
	ActionReplaceScheduleDay = "REPLACE_SCHEDULE_DAYS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
