package utils

import (
	"fmt"
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"worknest/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seedUser(t *testing.T, db *gorm.DB, orgID uint, name string, role models.Role) *models.User {
	t.Helper()
	user := models.User{
		Name:           name,
		Email:          name + "@example.com",
		PasswordHash:   "x",
		OrganizationID: orgID,
		Role:           role,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedHierarchy(t *testing.T, db *gorm.DB) (*models.Organization, *models.Department, *models.Project) {
	t.Helper()
	org := models.Organization{Name: "org-" + t.Name()}
	require.NoError(t, db.Create(&org).Error)
	dept := models.Department{Name: "Engineering", OrganizationID: org.ID}
	require.NoError(t, db.Create(&dept).Error)
	project := models.Project{Name: "Apollo", DepartmentID: dept.ID, ManagerID: 1}
	require.NoError(t, db.Create(&project).Error)
	return &org, &dept, &project
}

func membershipCount(t *testing.T, db *gorm.DB, projectID, userID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error)
	return count
}

func TestEnsureMemberIdempotent(t *testing.T) {
	db := newTestDB(t)
	sync := NewMembershipSync(db, quietLogger())
	org, _, project := seedHierarchy(t, db)
	user := seedUser(t, db, org.ID, "dana", models.RoleMember)

	require.NoError(t, sync.EnsureMember(project.ID, user.ID, models.ProjectRoleMember))
	require.NoError(t, sync.EnsureMember(project.ID, user.ID, models.ProjectRoleMember))
	require.NoError(t, sync.EnsureMember(project.ID, user.ID, ""))

	assert.EqualValues(t, 1, membershipCount(t, db, project.ID, user.ID))
}

func TestEnsureMemberKeepsExistingRole(t *testing.T) {
	db := newTestDB(t)
	sync := NewMembershipSync(db, quietLogger())
	org, _, project := seedHierarchy(t, db)
	user := seedUser(t, db, org.ID, "dana", models.RoleMember)

	require.NoError(t, sync.EnsureMember(project.ID, user.ID, models.ProjectRoleManager))
	// A later default insert must not downgrade the manager
	require.NoError(t, sync.EnsureMember(project.ID, user.ID, models.ProjectRoleMember))

	var row models.ProjectMember
	require.NoError(t, db.Where("project_id = ? AND user_id = ?", project.ID, user.ID).First(&row).Error)
	assert.Equal(t, models.ProjectRoleManager, row.Role)
}

func TestSyncAssigneeName(t *testing.T) {
	db := newTestDB(t)
	sync := NewMembershipSync(db, quietLogger())
	org, _, project := seedHierarchy(t, db)
	user := seedUser(t, db, org.ID, "dana", models.RoleMember)

	task := models.Task{ProjectID: project.ID, Title: "Ship it", CreatedByID: user.ID}
	task.AssignedToID = &user.ID
	require.NoError(t, sync.SyncAssigneeName(&task))
	assert.Equal(t, "dana", task.AssignedTo)

	task.AssignedToID = nil
	require.NoError(t, sync.SyncAssigneeName(&task))
	assert.Equal(t, models.UnassignedName, task.AssignedTo)
}

func TestOnTaskAssignedGrantsMembership(t *testing.T) {
	db := newTestDB(t)
	sync := NewMembershipSync(db, quietLogger())
	org, _, project := seedHierarchy(t, db)
	user := seedUser(t, db, org.ID, "dana", models.RoleMember)

	task := models.Task{ProjectID: project.ID, Title: "Ship it", CreatedByID: user.ID}
	require.NoError(t, sync.OnTaskAssigned(&task, user.ID))
	require.NoError(t, sync.OnTaskAssigned(&task, user.ID))

	assert.EqualValues(t, 1, membershipCount(t, db, project.ID, user.ID))
	assert.Equal(t, "dana", task.AssignedTo)

	var row models.ProjectMember
	require.NoError(t, db.Where("project_id = ? AND user_id = ?", project.ID, user.ID).First(&row).Error)
	assert.Equal(t, models.ProjectRoleMember, row.Role)
}

func TestReplaceMembersRemovesStale(t *testing.T) {
	db := newTestDB(t)
	sync := NewMembershipSync(db, quietLogger())
	org, _, project := seedHierarchy(t, db)
	alice := seedUser(t, db, org.ID, "alice", models.RoleMember)
	bob := seedUser(t, db, org.ID, "bob", models.RoleMember)
	carol := seedUser(t, db, org.ID, "carol", models.RoleMember)

	require.NoError(t, sync.EnsureMember(project.ID, alice.ID, models.ProjectRoleManager))
	require.NoError(t, sync.EnsureMember(project.ID, bob.ID, models.ProjectRoleMember))

	roles := map[uint]models.ProjectRole{carol.ID: models.ProjectRoleAdmin}
	require.NoError(t, sync.ReplaceMembers(project.ID, []uint{bob.ID, carol.ID}, roles))

	assert.EqualValues(t, 0, membershipCount(t, db, project.ID, alice.ID))
	assert.EqualValues(t, 1, membershipCount(t, db, project.ID, bob.ID))
	assert.EqualValues(t, 1, membershipCount(t, db, project.ID, carol.ID))

	var row models.ProjectMember
	require.NoError(t, db.Where("project_id = ? AND user_id = ?", project.ID, carol.ID).First(&row).Error)
	assert.Equal(t, models.ProjectRoleAdmin, row.Role)

	row = models.ProjectMember{}
	require.NoError(t, db.Where("project_id = ? AND user_id = ?", project.ID, bob.ID).First(&row).Error)
	assert.Equal(t, models.ProjectRoleMember, row.Role)

	// Removed members can come back without tripping the unique index
	require.NoError(t, sync.EnsureMember(project.ID, alice.ID, models.ProjectRoleMember))
	assert.EqualValues(t, 1, membershipCount(t, db, project.ID, alice.ID))
}

func TestOnUserDeletedUnassignsButKeepsEverything(t *testing.T) {
	db := newTestDB(t)
	sync := NewMembershipSync(db, quietLogger())
	org, _, project := seedHierarchy(t, db)
	user := seedUser(t, db, org.ID, "dana", models.RoleMember)

	task := models.Task{ProjectID: project.ID, Title: "Ship it", CreatedByID: user.ID}
	require.NoError(t, sync.OnTaskAssigned(&task, user.ID))
	require.NoError(t, db.Create(&task).Error)

	require.NoError(t, sync.OnUserDeleted(user.ID))

	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, task.ID).Error)
	assert.Nil(t, reloaded.AssignedToID)
	assert.Equal(t, models.UnassignedName, reloaded.AssignedTo)

	// Historical membership survives the deletion
	assert.EqualValues(t, 1, membershipCount(t, db, project.ID, user.ID))
}

func TestApplyStatusProgressClamp(t *testing.T) {
	sync := NewMembershipSync(nil, quietLogger())
	task := models.Task{Progress: 40, Status: models.TaskStatusInProgress}

	sync.ApplyStatus(&task, models.TaskStatusInReview)
	assert.Equal(t, 40, task.Progress)

	sync.ApplyStatus(&task, models.TaskStatusDone)
	assert.Equal(t, 100, task.Progress)

	sync.ApplyStatus(&task, models.TaskStatusInProgress)
	assert.Equal(t, 100, task.Progress)

	sync.ApplyStatus(&task, models.TaskStatusToDo)
	assert.Equal(t, 0, task.Progress)
}

func TestAssigneeSnapshotGoesStaleAfterRename(t *testing.T) {
	db := newTestDB(t)
	sync := NewMembershipSync(db, quietLogger())
	org, _, project := seedHierarchy(t, db)
	user := seedUser(t, db, org.ID, "dana", models.RoleMember)

	task := models.Task{ProjectID: project.ID, Title: "Ship it", CreatedByID: user.ID}
	require.NoError(t, sync.OnTaskAssigned(&task, user.ID))
	require.NoError(t, db.Create(&task).Error)

	require.NoError(t, db.Model(user).Update("name", "dana-renamed").Error)

	// The stored snapshot is not rewritten by the rename
	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, task.ID).Error)
	assert.Equal(t, "dana", reloaded.AssignedTo)

	// It converges on the next write that re-derives the snapshot
	require.NoError(t, sync.SyncAssigneeName(&reloaded))
	require.NoError(t, db.Save(&reloaded).Error)
	assert.Equal(t, "dana-renamed", reloaded.AssignedTo)
}
