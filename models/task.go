package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus has four states; every transition between them is legal.
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusInReview   TaskStatus = "in_review"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone:
		return true
	}
	return false
}

// UnassignedName is the AssignedTo sentinel used when a task has no
// assignee, including after the assignee's account is deleted.
const UnassignedName = "Unassigned"

// Task belongs to exactly one project. AssignedTo is a denormalized
// snapshot of the assignee's username, refreshed on every write that
// touches assignment; historical copies elsewhere are not rewritten.
type Task struct {
	gorm.Model
	ProjectID   uint   `gorm:"not null;index" json:"project_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	AssignedToID *uint  `gorm:"index" json:"assigned_to_id,omitempty"`
	AssignedTo   string `gorm:"default:'Unassigned'" json:"assigned_to"`

	Status   TaskStatus `gorm:"type:varchar(16);not null;default:'todo'" json:"status"`
	Progress int        `gorm:"default:0" json:"progress"`

	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedByID uint       `gorm:"not null" json:"created_by_id"`

	// Relations
	Project  Project   `json:"-"`
	Comments []Comment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

// Comment is a note on a task. @username tokens in the body trigger
// mention notifications for same-organization users.
type Comment struct {
	gorm.Model
	TaskID   uint   `gorm:"not null;index" json:"task_id"`
	AuthorID uint   `gorm:"not null" json:"author_id"`
	Body     string `gorm:"type:text;not null" json:"body"`

	// Relations
	Task   Task `json:"-"`
	Author User `json:"-"`
}
