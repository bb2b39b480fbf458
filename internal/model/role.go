package model

import (
	"time"

	"hrms/internal/rbac"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role groups permission grants. System roles are seeded and immutable.
type Role struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	IsSystem    bool             `gorm:"default:false" json:"is_system"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"permissions"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// Grants flattens the role's links into a key -> level table.
// Permissions.Permission must be preloaded.
func (r *Role) Grants() rbac.Grants {
	g := make(rbac.Grants, len(r.Permissions))
	for _, rp := range r.Permissions {
		g[rp.Permission.Key] = rp.Level
	}
	return g
}

// Permission is a "resource:action" key that roles can be granted.
type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"key"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Permission) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// RolePermission is the only place a level is stored. A role without a link
// to a permission is implicitly FORBIDDEN for it.
type RolePermission struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_permission" json:"role_id"`
	PermissionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_permission" json:"permission_id"`
	Level        rbac.Level `gorm:"type:varchar(20);not null" json:"level"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (rp *RolePermission) BeforeCreate(*gorm.DB) error {
	assignID(&rp.ID)
	return nil
}

// UserRole links a user to a role. Levels come from the role.
type UserRole struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_role" json:"user_id"`
	RoleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_role;index" json:"role_id"`
	Role      Role      `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (ur *UserRole) BeforeCreate(*gorm.DB) error {
	assignID(&ur.ID)
	return nil
}
