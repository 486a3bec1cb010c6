package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
)

// MembershipSync keeps the Project↔User relation and the derived task
// fields consistent. All methods run synchronously inside the request
// that triggered them; the caller does not return until they complete.
type MembershipSync struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewMembershipSync(db *gorm.DB, logger *logrus.Logger) *MembershipSync {
	return &MembershipSync{DB: db, Logger: logger}
}

// EnsureMember inserts a membership row if none exists. Repeated calls
// for the same (project, user) pair are no-ops; an existing row keeps
// its role, it is never downgraded by a later default insert.
func (m *MembershipSync) EnsureMember(projectID, userID uint, role models.ProjectRole) error {
	if role == "" {
		role = models.ProjectRoleMember
	}
	var existing models.ProjectMember
	err := m.DB.Where("project_id = ? AND user_id = ?", projectID, userID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	member := models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}
	return m.DB.Create(&member).Error
}

// SyncAssigneeName recomputes the denormalized username snapshot from
// the referenced user row. Called on every task write that touches
// assignment, not only creation.
func (m *MembershipSync) SyncAssigneeName(task *models.Task) error {
	if task.AssignedToID == nil {
		task.AssignedTo = models.UnassignedName
		return nil
	}
	var user models.User
	if err := m.DB.First(&user, *task.AssignedToID).Error; err != nil {
		return fmt.Errorf("assignee %d not found: %w", *task.AssignedToID, err)
	}
	task.AssignedTo = user.Name
	return nil
}

// OnTaskAssigned applies the auto-membership rule: assigning work to a
// user grants them project access, then refreshes the name snapshot.
func (m *MembershipSync) OnTaskAssigned(task *models.Task, newAssigneeID uint) error {
	if err := m.EnsureMember(task.ProjectID, newAssigneeID, models.ProjectRoleMember); err != nil {
		return err
	}
	task.AssignedToID = &newAssigneeID
	return m.SyncAssigneeName(task)
}

// ReplaceMembers swaps a project's member set for the submitted one.
// Current rows for users missing from memberIDs are removed, new users
// are added, and every survivor gets its role from roleMap (defaulting
// to member). The project manager's row is replaced like any other.
func (m *MembershipSync) ReplaceMembers(projectID uint, memberIDs []uint, roleMap map[uint]models.ProjectRole) error {
	keep := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		keep[id] = true
	}

	var current []models.ProjectMember
	if err := m.DB.Where("project_id = ?", projectID).Find(&current).Error; err != nil {
		return err
	}

	for _, row := range current {
		if !keep[row.UserID] {
			if err := m.DB.Delete(&models.ProjectMember{}, row.ID).Error; err != nil {
				return err
			}
		}
	}

	for _, userID := range memberIDs {
		role := roleMap[userID]
		if !role.Valid() {
			role = models.ProjectRoleMember
		}
		if err := m.EnsureMember(projectID, userID, role); err != nil {
			return err
		}
		if err := m.DB.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, userID).
			Update("role", role).Error; err != nil {
			return err
		}
	}

	return nil
}

// OnUserDeleted unassigns every task referencing the user. Tasks are
// never deleted and the user's membership rows stay as history.
func (m *MembershipSync) OnUserDeleted(userID uint) error {
	return m.DB.Model(&models.Task{}).
		Where("assigned_to_id = ?", userID).
		Updates(map[string]interface{}{
			"assigned_to_id": nil,
			"assigned_to":    models.UnassignedName,
		}).Error
}

// ApplyStatus sets the task status and clamps progress: done forces
// 100, todo forces 0, the in-between states leave progress untouched.
// No transition is ever rejected.
func (m *MembershipSync) ApplyStatus(task *models.Task, status models.TaskStatus) {
	task.Status = status
	switch status {
	case models.TaskStatusDone:
		task.Progress = 100
	case models.TaskStatusToDo:
		task.Progress = 0
	}
}
