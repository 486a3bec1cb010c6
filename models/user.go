package models

import (
	"gorm.io/gorm"
)

// Role is the organization-level role of a user. It is a separate
// vocabulary from ProjectRole even though both contain "member".
type Role string

const (
	RoleSuperAdmin        Role = "super_admin"
	RoleDepartmentManager Role = "department_manager"
	RoleProjectManager    Role = "project_manager"
	RoleMember            Role = "member"
)

// Valid reports whether r is one of the known organization roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleDepartmentManager, RoleProjectManager, RoleMember:
		return true
	}
	return false
}

// Organization is the tenant boundary. Nothing crosses it.
type Organization struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// User represents an account inside one organization
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	Name     string `gorm:"not null" json:"name"`
	Timezone string `gorm:"default:'UTC'" json:"timezone"`

	// Tenancy: OrganizationID is fixed at creation, DepartmentID is the
	// "active department" and may be switched under the resolver rules.
	OrganizationID uint  `gorm:"not null;index" json:"organization_id"`
	DepartmentID   *uint `gorm:"index" json:"department_id,omitempty"`

	Role Role `gorm:"type:varchar(32);not null;default:'member'" json:"role"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Organization Organization    `json:"-"`
	Memberships  []ProjectMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// IsDepartmentManager is true for both super admins and department
// managers. Several checks intentionally union these two roles.
func (u *User) IsDepartmentManager() bool {
	return u.Role == RoleSuperAdmin || u.Role == RoleDepartmentManager
}
