package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
	"worknest/utils"
)

type CreateProjectRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"omitempty,max=2000"`
	DepartmentID *uint  `json:"department_id"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ManagerID   *uint   `json:"manager_id"`
}

type AddMemberRequest struct {
	UserID uint               `json:"user_id" validate:"required"`
	Role   models.ProjectRole `json:"role" validate:"omitempty,oneof=member manager admin"`
}

type ReplaceMembersRequest struct {
	MemberIDs []uint                      `json:"member_ids" validate:"required"`
	Roles     map[uint]models.ProjectRole `json:"roles"`
}

type ProjectController struct {
	DB      *gorm.DB
	Logger  *logrus.Logger
	Authz   *utils.Authorizer
	Sync    *utils.MembershipSync
	Emitter *utils.Emitter
	Cache   *utils.Cache
}

func NewProjectController(db *gorm.DB, logger *logrus.Logger, authz *utils.Authorizer,
	sync *utils.MembershipSync, emitter *utils.Emitter, cache *utils.Cache) *ProjectController {
	return &ProjectController{DB: db, Logger: logger, Authz: authz, Sync: sync, Emitter: emitter, Cache: cache}
}

// CreateProject creates a project inside the caller's active
// department (or an explicit in-org department they manage). The
// creator becomes project manager and gets a manager membership row.
func (pc *ProjectController) CreateProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if !pc.Authz.CanCreateProject(user) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	departmentID := req.DepartmentID
	if departmentID == nil {
		departmentID = user.DepartmentID
	}
	if departmentID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No active department; switch into one first",
		})
	}

	dept, err := pc.Authz.VisibleDepartment(user, *departmentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Department does not belong to your organization",
		})
	}

	project := models.Project{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: dept.ID,
		ManagerID:    user.ID,
	}
	if err := pc.DB.Create(&project).Error; err != nil {
		pc.Logger.WithError(err).Error("failed to create project")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}

	if err := pc.Sync.EnsureMember(project.ID, user.ID, models.ProjectRoleManager); err != nil {
		pc.Logger.WithError(err).Error("failed to add creator membership")
	}

	pc.Cache.InvalidatePrefix(c.Context(), utils.ProjectCachePrefix)
	pc.Emitter.Record(user.ID, models.ActionProjectCreated,
		"Project "+project.Name+" created", user.OrganizationID, &dept.ID, &project.ID)

	return c.Status(fiber.StatusCreated).JSON(project)
}

// ListProjects returns the caller's visibility scope, read through the
// optional cache.
func (pc *ProjectController) ListProjects(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	cacheKey := utils.ProjectListKey(user.OrganizationID, user.ID)
	var projects []models.Project
	if pc.Cache.GetJSON(c.Context(), cacheKey, &projects) {
		return c.JSON(projects)
	}

	if err := pc.Authz.ScopedProjects(user).Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list projects",
		})
	}

	pc.Cache.SetJSON(c.Context(), cacheKey, projects)
	return c.JSON(projects)
}

func (pc *ProjectController) GetProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	project, dept, err := pc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !pc.Authz.CanViewProject(user, project, dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	return c.JSON(project)
}

func (pc *ProjectController) UpdateProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	project, dept, err := pc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !pc.Authz.CanManageProject(user, project, dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.ManagerID != nil {
		var manager models.User
		if err := pc.DB.First(&manager, *req.ManagerID).Error; err != nil ||
			manager.OrganizationID != user.OrganizationID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Manager must belong to your organization",
			})
		}
		project.ManagerID = *req.ManagerID
	}

	if err := pc.DB.Save(project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update project",
		})
	}

	pc.Cache.InvalidatePrefix(c.Context(), utils.ProjectCachePrefix)
	pc.Emitter.Record(user.ID, models.ActionProjectUpdated,
		"Project "+project.Name+" updated", user.OrganizationID, &dept.ID, &project.ID)

	return c.JSON(project)
}

func (pc *ProjectController) ListMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	project, dept, err := pc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !pc.Authz.CanViewProject(user, project, dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var members []models.ProjectMember
	if err := pc.DB.Where("project_id = ?", project.ID).Find(&members).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list members",
		})
	}
	return c.JSON(members)
}

// AddMember adds one user to the project, idempotently.
func (pc *ProjectController) AddMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	project, dept, err := pc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !pc.Authz.CanManageProject(user, project, dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var target models.User
	if err := pc.DB.First(&target, req.UserID).Error; err != nil ||
		target.OrganizationID != user.OrganizationID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User must belong to your organization",
		})
	}

	if err := pc.Sync.EnsureMember(project.ID, target.ID, req.Role); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	pc.Cache.InvalidatePrefix(c.Context(), utils.ProjectCachePrefix)
	pc.Emitter.Record(user.ID, models.ActionMembersChanged,
		target.Name+" added to "+project.Name, user.OrganizationID, &dept.ID, &project.ID)
	pc.Emitter.Notify(target.ID, models.NotificationMemberAdded,
		"You were added to project "+project.Name, "/projects/"+c.Params("id"), &project.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "added"})
}

// ReplaceMembers applies full-replacement semantics: the submitted
// list becomes the member set, stale rows are removed.
func (pc *ProjectController) ReplaceMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	project, dept, err := pc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !pc.Authz.CanManageProject(user, project, dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req ReplaceMembersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Every submitted member must be an in-org user
	for _, id := range req.MemberIDs {
		var target models.User
		if err := pc.DB.First(&target, id).Error; err != nil ||
			target.OrganizationID != user.OrganizationID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "All members must belong to your organization",
			})
		}
	}

	if err := pc.Sync.ReplaceMembers(project.ID, req.MemberIDs, req.Roles); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to replace members",
		})
	}

	pc.Cache.InvalidatePrefix(c.Context(), utils.ProjectCachePrefix)
	pc.Emitter.Record(user.ID, models.ActionMembersChanged,
		"Member set replaced on "+project.Name, user.OrganizationID, &dept.ID, &project.ID)

	return c.JSON(fiber.Map{"status": "replaced"})
}

func (pc *ProjectController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}
	memberID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	project, dept, err := pc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !pc.Authz.CanManageProject(user, project, dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	if err := pc.DB.Where("project_id = ? AND user_id = ?", project.ID, memberID).
		Delete(&models.ProjectMember{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove member",
		})
	}

	pc.Cache.InvalidatePrefix(c.Context(), utils.ProjectCachePrefix)
	pc.Emitter.Record(user.ID, models.ActionMembersChanged,
		"Member removed from "+project.Name, user.OrganizationID, &dept.ID, &project.ID)

	return c.JSON(fiber.Map{"status": "removed"})
}
