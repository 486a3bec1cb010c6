package models

import "gorm.io/gorm"

// Department groups projects inside one organization. The manager is a
// user of the same organization; the first department is created as part
// of organization registration.
type Department struct {
	gorm.Model
	Name           string `gorm:"not null" json:"name"`
	Description    string `json:"description"`
	OrganizationID uint   `gorm:"not null;index" json:"organization_id"`
	ManagerID      *uint  `gorm:"index" json:"manager_id,omitempty"`

	// Relations
	Organization Organization `json:"-"`
	Projects     []Project    `gorm:"foreignKey:DepartmentID" json:"projects,omitempty"`
}
