package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worknest/models"
)

func TestVisibleProjectHidesOtherTenants(t *testing.T) {
	db := newTestDB(t)
	authz := NewAuthorizer(db)

	orgA := models.Organization{Name: "acme"}
	require.NoError(t, db.Create(&orgA).Error)
	orgB := models.Organization{Name: "globex"}
	require.NoError(t, db.Create(&orgB).Error)

	deptB := models.Department{Name: "Sales", OrganizationID: orgB.ID}
	require.NoError(t, db.Create(&deptB).Error)
	projectB := models.Project{Name: "Secret", DepartmentID: deptB.ID, ManagerID: 99}
	require.NoError(t, db.Create(&projectB).Error)

	intruder := seedUser(t, db, orgA.ID, "eve", models.RoleSuperAdmin)

	// Even a super admin of another org gets "not found", never "forbidden"
	_, _, err := authz.VisibleProject(intruder, projectB.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = authz.VisibleDepartment(intruder, deptB.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDepartmentManagerScopedToManagedDepartments(t *testing.T) {
	db := newTestDB(t)
	authz := NewAuthorizer(db)

	org := models.Organization{Name: "acme"}
	require.NoError(t, db.Create(&org).Error)

	manager := seedUser(t, db, org.ID, "dmgr", models.RoleDepartmentManager)
	other := seedUser(t, db, org.ID, "other", models.RoleDepartmentManager)

	managed := models.Department{Name: "Eng", OrganizationID: org.ID, ManagerID: &manager.ID}
	require.NoError(t, db.Create(&managed).Error)
	foreign := models.Department{Name: "Sales", OrganizationID: org.ID, ManagerID: &other.ID}
	require.NoError(t, db.Create(&foreign).Error)

	inScope := models.Project{Name: "P1", DepartmentID: managed.ID, ManagerID: other.ID}
	require.NoError(t, db.Create(&inScope).Error)
	outOfScope := models.Project{Name: "P2", DepartmentID: foreign.ID, ManagerID: other.ID}
	require.NoError(t, db.Create(&outOfScope).Error)

	assert.True(t, authz.CanManageProject(manager, &inScope, &managed))
	assert.False(t, authz.CanManageProject(manager, &outOfScope, &foreign))

	var visible []models.Project
	require.NoError(t, authz.ScopedProjects(manager).Find(&visible).Error)
	require.Len(t, visible, 1)
	assert.Equal(t, "P1", visible[0].Name)
}

func TestProjectManagerAuthorityIsPerProject(t *testing.T) {
	db := newTestDB(t)
	authz := NewAuthorizer(db)

	org := models.Organization{Name: "acme"}
	require.NoError(t, db.Create(&org).Error)
	dept := models.Department{Name: "Eng", OrganizationID: org.ID}
	require.NoError(t, db.Create(&dept).Error)

	pmA := seedUser(t, db, org.ID, "pm-a", models.RoleProjectManager)
	pmB := seedUser(t, db, org.ID, "pm-b", models.RoleProjectManager)

	p1 := models.Project{Name: "P1", DepartmentID: dept.ID, ManagerID: pmA.ID}
	require.NoError(t, db.Create(&p1).Error)
	p2 := models.Project{Name: "P2", DepartmentID: dept.ID, ManagerID: pmB.ID}
	require.NoError(t, db.Create(&p2).Error)

	assert.True(t, authz.CanManageProject(pmA, &p1, &dept))
	assert.False(t, authz.CanManageProject(pmA, &p2, &dept))
	assert.False(t, authz.CanViewProject(pmA, &p2, &dept))
}

func TestMembershipRoleManagerGrantsAuthority(t *testing.T) {
	db := newTestDB(t)
	authz := NewAuthorizer(db)

	org := models.Organization{Name: "acme"}
	require.NoError(t, db.Create(&org).Error)
	dept := models.Department{Name: "Eng", OrganizationID: org.ID}
	require.NoError(t, db.Create(&dept).Error)

	owner := seedUser(t, db, org.ID, "owner", models.RoleProjectManager)
	helper := seedUser(t, db, org.ID, "helper", models.RoleMember)

	project := models.Project{Name: "P1", DepartmentID: dept.ID, ManagerID: owner.ID}
	require.NoError(t, db.Create(&project).Error)

	assert.False(t, authz.CanManageProject(helper, &project, &dept))

	member := models.ProjectMember{ProjectID: project.ID, UserID: helper.ID, Role: models.ProjectRoleManager}
	require.NoError(t, db.Create(&member).Error)

	assert.True(t, authz.CanManageProject(helper, &project, &dept))
}

func TestMemberSeesOnlyTheirProjects(t *testing.T) {
	db := newTestDB(t)
	authz := NewAuthorizer(db)

	org := models.Organization{Name: "acme"}
	require.NoError(t, db.Create(&org).Error)
	dept := models.Department{Name: "Eng", OrganizationID: org.ID}
	require.NoError(t, db.Create(&dept).Error)

	boss := seedUser(t, db, org.ID, "boss", models.RoleProjectManager)
	member := seedUser(t, db, org.ID, "worker", models.RoleMember)

	joined := models.Project{Name: "Joined", DepartmentID: dept.ID, ManagerID: boss.ID}
	require.NoError(t, db.Create(&joined).Error)
	assigned := models.Project{Name: "Assigned", DepartmentID: dept.ID, ManagerID: boss.ID}
	require.NoError(t, db.Create(&assigned).Error)
	hidden := models.Project{Name: "Hidden", DepartmentID: dept.ID, ManagerID: boss.ID}
	require.NoError(t, db.Create(&hidden).Error)

	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: joined.ID, UserID: member.ID, Role: models.ProjectRoleMember,
	}).Error)
	require.NoError(t, db.Create(&models.Task{
		ProjectID: assigned.ID, Title: "t", CreatedByID: boss.ID,
		AssignedToID: &member.ID, AssignedTo: member.Name,
	}).Error)

	var visible []models.Project
	require.NoError(t, authz.ScopedProjects(member).Order("name").Find(&visible).Error)
	require.Len(t, visible, 2)
	assert.Equal(t, "Assigned", visible[0].Name)
	assert.Equal(t, "Joined", visible[1].Name)
}

func TestCanSwitchDepartmentRules(t *testing.T) {
	db := newTestDB(t)
	authz := NewAuthorizer(db)

	org := models.Organization{Name: "acme"}
	require.NoError(t, db.Create(&org).Error)

	admin := seedUser(t, db, org.ID, "admin", models.RoleSuperAdmin)
	dmgr := seedUser(t, db, org.ID, "dmgr", models.RoleDepartmentManager)
	worker := seedUser(t, db, org.ID, "worker", models.RoleMember)

	managed := models.Department{Name: "Eng", OrganizationID: org.ID, ManagerID: &dmgr.ID}
	require.NoError(t, db.Create(&managed).Error)
	unmanaged := models.Department{Name: "Sales", OrganizationID: org.ID, ManagerID: &admin.ID}
	require.NoError(t, db.Create(&unmanaged).Error)

	assert.NoError(t, authz.CanSwitchDepartment(admin, &managed))
	assert.NoError(t, authz.CanSwitchDepartment(admin, &unmanaged))

	assert.NoError(t, authz.CanSwitchDepartment(dmgr, &managed))
	assert.ErrorIs(t, authz.CanSwitchDepartment(dmgr, &unmanaged), ErrForbidden)

	assert.ErrorIs(t, authz.CanSwitchDepartment(worker, &managed), ErrForbidden)
}

func TestIsDepartmentManagerUnion(t *testing.T) {
	admin := &models.User{Role: models.RoleSuperAdmin}
	dmgr := &models.User{Role: models.RoleDepartmentManager}
	pm := &models.User{Role: models.RoleProjectManager}

	assert.True(t, admin.IsDepartmentManager())
	assert.True(t, dmgr.IsDepartmentManager())
	assert.False(t, pm.IsDepartmentManager())
}
