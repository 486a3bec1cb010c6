package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectRole is the project-scoped role on a membership row. Distinct
// from the organization Role type.
type ProjectRole string

const (
	ProjectRoleMember  ProjectRole = "member"
	ProjectRoleManager ProjectRole = "manager"
	ProjectRoleAdmin   ProjectRole = "admin"
)

// Valid reports whether r is one of the known project roles.
func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleMember, ProjectRoleManager, ProjectRoleAdmin:
		return true
	}
	return false
}

// Project belongs to exactly one department; the department never
// changes after creation. ManagerID defaults to the creator.
type Project struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	Description  string `json:"description"`
	DepartmentID uint   `gorm:"not null;index" json:"department_id"`
	ManagerID    uint   `gorm:"not null;index" json:"manager_id"`

	// Relations
	Department Department      `json:"-"`
	Members    []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks      []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

// ProjectMember links a user to a project with a project-scoped role.
// The (project, user) pair is unique; inserts go through
// MembershipSync.EnsureMember so repeats never duplicate the row.
// Removal is a hard delete: a soft-deleted tombstone would collide
// with the unique index when the user is re-added later.
type ProjectMember struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_project_user" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(16);not null;default:'member'" json:"role"`

	// Relations
	Project Project `json:"-"`
	User    User    `json:"-"`
}
