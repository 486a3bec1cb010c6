package models

import "gorm.io/gorm"

// Activity action codes recorded by the emitter.
const (
	ActionOrganizationCreated = "organization.created"
	ActionDepartmentCreated   = "department.created"
	ActionDepartmentSwitched  = "department.switched"
	ActionProjectCreated      = "project.created"
	ActionProjectUpdated      = "project.updated"
	ActionMembersChanged      = "project.members_changed"
	ActionTaskCreated         = "task.created"
	ActionTaskUpdated         = "task.updated"
	ActionCommentAdded        = "task.comment_added"
	ActionUserUpdated         = "user.updated"
	ActionUserDeleted         = "user.deleted"
)

// Notification types consumed by the client poller.
const (
	NotificationTaskAssigned = "task_assigned"
	NotificationMention      = "mention"
	NotificationMemberAdded  = "member_added"
)

// ActivityLog is an append-only audit entry. Rows are never updated.
type ActivityLog struct {
	gorm.Model
	ActorID        uint   `gorm:"not null;index" json:"actor_id"`
	Action         string `gorm:"not null" json:"action"`
	Description    string `json:"description"`
	OrganizationID uint   `gorm:"not null;index" json:"organization_id"`
	DepartmentID   *uint  `json:"department_id,omitempty"`
	ProjectID      *uint  `json:"project_id,omitempty"`
}

// Notification is polled by clients; only the Read flag ever changes
// after insert.
type Notification struct {
	gorm.Model
	UserID          uint   `gorm:"not null;index" json:"user_id"`
	Type            string `gorm:"not null" json:"type"`
	Message         string `gorm:"not null" json:"message"`
	Link            string `json:"link"`
	RelatedEntityID *uint  `json:"related_entity_id,omitempty"`
	Read            bool   `gorm:"default:false" json:"read"`
}
