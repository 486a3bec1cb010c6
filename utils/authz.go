package utils

import (
	"errors"

	"gorm.io/gorm"

	"worknest/models"
)

// Authorization sentinels. Controllers map ErrForbidden to 403 and
// ErrNotFound to 404. Cross-tenant targets always surface ErrNotFound
// so tenant boundaries never leak through status codes.
var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("not found")
)

// Authorizer resolves what a principal may see or mutate. It reads the
// hierarchy store directly; nothing is cached between calls.
type Authorizer struct {
	DB *gorm.DB
}

func NewAuthorizer(db *gorm.DB) *Authorizer {
	return &Authorizer{DB: db}
}

// VisibleDepartment loads a department the user is allowed to know
// exists. Departments of other organizations are reported as missing.
func (a *Authorizer) VisibleDepartment(user *models.User, departmentID uint) (*models.Department, error) {
	var dept models.Department
	if err := a.DB.First(&dept, departmentID).Error; err != nil {
		return nil, ErrNotFound
	}
	if dept.OrganizationID != user.OrganizationID {
		return nil, ErrNotFound
	}
	return &dept, nil
}

// VisibleProject loads a project and its department, resolving the
// organization transitively through the department.
func (a *Authorizer) VisibleProject(user *models.User, projectID uint) (*models.Project, *models.Department, error) {
	var project models.Project
	if err := a.DB.First(&project, projectID).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	var dept models.Department
	if err := a.DB.First(&dept, project.DepartmentID).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	if dept.OrganizationID != user.OrganizationID {
		return nil, nil, ErrNotFound
	}
	return &project, &dept, nil
}

// VisibleTask loads a task together with its project, applying the
// same tenancy fence as VisibleProject.
func (a *Authorizer) VisibleTask(user *models.User, taskID uint) (*models.Task, *models.Project, error) {
	var task models.Task
	if err := a.DB.First(&task, taskID).Error; err != nil {
		return nil, nil, ErrNotFound
	}
	project, _, err := a.VisibleProject(user, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return &task, project, nil
}

// CanManageDepartment: super admins manage every in-org department,
// department managers only the ones they own.
func (a *Authorizer) CanManageDepartment(user *models.User, dept *models.Department) bool {
	if dept.OrganizationID != user.OrganizationID {
		return false
	}
	if user.Role == models.RoleSuperAdmin {
		return true
	}
	if user.Role == models.RoleDepartmentManager {
		return dept.ManagerID != nil && *dept.ManagerID == user.ID
	}
	return false
}

func (a *Authorizer) hasProjectRole(projectID, userID uint, roles ...models.ProjectRole) bool {
	var count int64
	a.DB.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ? AND role IN ?", projectID, userID, roles).
		Count(&count)
	return count > 0
}

// IsMember reports whether the user has any membership row on the project.
func (a *Authorizer) IsMember(projectID, userID uint) bool {
	var count int64
	a.DB.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count)
	return count > 0
}

// CanManageProject grants full project authority to super admins, to
// the manager of the owning department, to the project manager, and to
// members whose project-scoped role is manager or admin.
func (a *Authorizer) CanManageProject(user *models.User, project *models.Project, dept *models.Department) bool {
	if a.CanManageDepartment(user, dept) {
		return true
	}
	if project.ManagerID == user.ID {
		return true
	}
	return a.hasProjectRole(project.ID, user.ID, models.ProjectRoleManager, models.ProjectRoleAdmin)
}

// CanViewProject additionally admits plain members and task assignees.
func (a *Authorizer) CanViewProject(user *models.User, project *models.Project, dept *models.Department) bool {
	if a.CanManageProject(user, project, dept) {
		return true
	}
	if a.IsMember(project.ID, user.ID) {
		return true
	}
	var count int64
	a.DB.Model(&models.Task{}).
		Where("project_id = ? AND assigned_to_id = ?", project.ID, user.ID).
		Count(&count)
	return count > 0
}

// CanWriteTask: project authority, project membership, or being the
// assignee each permit task writes. Plain members get this limited
// write surface, nothing more.
func (a *Authorizer) CanWriteTask(user *models.User, task *models.Task, project *models.Project, dept *models.Department) bool {
	if a.CanManageProject(user, project, dept) {
		return true
	}
	if a.IsMember(project.ID, user.ID) {
		return true
	}
	return task.AssignedToID != nil && *task.AssignedToID == user.ID
}

// CanCreateProject is restricted to the three managerial roles.
func (a *Authorizer) CanCreateProject(user *models.User) bool {
	switch user.Role {
	case models.RoleSuperAdmin, models.RoleDepartmentManager, models.RoleProjectManager:
		return true
	}
	return false
}

// ScopedProjects returns the list predicate for GET /projects. Every
// branch is fenced to the user's organization first.
func (a *Authorizer) ScopedProjects(user *models.User) *gorm.DB {
	orgDepts := a.DB.Model(&models.Department{}).
		Select("id").
		Where("organization_id = ?", user.OrganizationID)

	query := a.DB.Model(&models.Project{}).Where("department_id IN (?)", orgDepts)

	switch user.Role {
	case models.RoleSuperAdmin:
		return query
	case models.RoleDepartmentManager:
		managed := a.DB.Model(&models.Department{}).
			Select("id").
			Where("organization_id = ? AND manager_id = ?", user.OrganizationID, user.ID)
		memberOf := a.DB.Model(&models.ProjectMember{}).
			Select("project_id").
			Where("user_id = ?", user.ID)
		return query.Where(
			"department_id IN (?) OR manager_id = ? OR id IN (?)",
			managed, user.ID, memberOf,
		)
	default:
		memberOf := a.DB.Model(&models.ProjectMember{}).
			Select("project_id").
			Where("user_id = ?", user.ID)
		assignedIn := a.DB.Model(&models.Task{}).
			Select("project_id").
			Where("assigned_to_id = ?", user.ID)
		return query.Where(
			"manager_id = ? OR id IN (?) OR id IN (?)",
			user.ID, memberOf, assignedIn,
		)
	}
}

// ScopedDepartments: the department-manager union sees every in-org
// department, everyone else only their active one.
func (a *Authorizer) ScopedDepartments(user *models.User) *gorm.DB {
	query := a.DB.Model(&models.Department{}).
		Where("organization_id = ?", user.OrganizationID)
	if user.IsDepartmentManager() {
		return query
	}
	if user.DepartmentID != nil {
		return query.Where("id = ?", *user.DepartmentID)
	}
	return query.Where("1 = 0")
}

// CanSwitchDepartment implements switchActiveDepartment's rules: super
// admins may switch to any in-org department, department managers only
// to departments they manage, other roles never.
func (a *Authorizer) CanSwitchDepartment(user *models.User, dept *models.Department) error {
	switch user.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleDepartmentManager:
		if dept.ManagerID != nil && *dept.ManagerID == user.ID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
