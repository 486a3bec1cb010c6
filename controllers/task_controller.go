package controller

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
	"worknest/utils"
)

type CreateTaskRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description" validate:"omitempty,max=5000"`
	AssignedToID *uint      `json:"assigned_to_id"`
	Status       string     `json:"status" validate:"omitempty,oneof=todo in_progress in_review done"`
	DueDate      *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title         *string    `json:"title" validate:"omitempty,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=5000"`
	AssignedToID  *uint      `json:"assigned_to_id"`
	ClearAssignee bool       `json:"clear_assignee"`
	Status        *string    `json:"status" validate:"omitempty,oneof=todo in_progress in_review done"`
	Progress      *int       `json:"progress" validate:"omitempty,gte=0,lte=100"`
	DueDate       *time.Time `json:"due_date"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type TaskController struct {
	DB      *gorm.DB
	Logger  *logrus.Logger
	Authz   *utils.Authorizer
	Sync    *utils.MembershipSync
	Emitter *utils.Emitter
	Cache   *utils.Cache
}

func NewTaskController(db *gorm.DB, logger *logrus.Logger, authz *utils.Authorizer,
	sync *utils.MembershipSync, emitter *utils.Emitter, cache *utils.Cache) *TaskController {
	return &TaskController{DB: db, Logger: logger, Authz: authz, Sync: sync, Emitter: emitter, Cache: cache}
}

// CreateTask adds a task to a project. Assigning it to a non-member
// silently grants that user a member row before the task persists, as
// part of the same request.
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	project, dept, err := tc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !tc.Authz.CanManageProject(user, project, dept) && !tc.Authz.IsMember(project.ID, user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req CreateTaskRequest
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

	task := models.Task{
		ProjectID:   project.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusToDo,
		AssignedTo:  models.UnassignedName,
		DueDate:     req.DueDate,
		CreatedByID: user.ID,
	}
	if req.Status != "" {
		tc.Sync.ApplyStatus(&task, models.TaskStatus(req.Status))
	}

	if req.AssignedToID != nil {
		var assignee models.User
		if err := tc.DB.First(&assignee, *req.AssignedToID).Error; err != nil ||
			assignee.OrganizationID != user.OrganizationID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Assignee must belong to your organization",
			})
		}
		if err := tc.Sync.OnTaskAssigned(&task, assignee.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to assign task",
			})
		}
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		tc.Logger.WithError(err).Error("failed to create task")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}

	tc.Cache.InvalidatePrefix(c.Context(), utils.ProjectCachePrefix)
	tc.Emitter.Record(user.ID, models.ActionTaskCreated,
		"Task "+task.Title+" created", user.OrganizationID, &dept.ID, &project.ID)
	if task.AssignedToID != nil && *task.AssignedToID != user.ID {
		tc.Emitter.Notify(*task.AssignedToID, models.NotificationTaskAssigned,
			fmt.Sprintf("%s assigned you task %q", user.Name, task.Title),
			fmt.Sprintf("/projects/%d/tasks/%d", project.ID, task.ID), &task.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

func (tc *TaskController) ListTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	projectID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	project, dept, err := tc.Authz.VisibleProject(user, uint(projectID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !tc.Authz.CanViewProject(user, project, dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var tasks []models.Task
	if err := tc.DB.Where("project_id = ?", project.ID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tasks",
		})
	}
	return c.JSON(tasks)
}

// UpdateTask mutates a task. Any status is settable from any other;
// the only status side effect is the progress clamp. Assignment
// changes run the membership synchronizer before the row is saved.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	task, project, err := tc.Authz.VisibleTask(user, uint(taskID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	var dept models.Department
	if err := tc.DB.First(&dept, project.DepartmentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	if !tc.Authz.CanWriteTask(user, task, project, &dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req UpdateTaskRequest
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

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Progress != nil {
		task.Progress = *req.Progress
	}
	if req.Status != nil {
		tc.Sync.ApplyStatus(task, models.TaskStatus(*req.Status))
	}

	assigneeChanged := false
	switch {
	case req.ClearAssignee:
		task.AssignedToID = nil
		assigneeChanged = true
	case req.AssignedToID != nil:
		var assignee models.User
		if err := tc.DB.First(&assignee, *req.AssignedToID).Error; err != nil ||
			assignee.OrganizationID != user.OrganizationID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Assignee must belong to your organization",
			})
		}
		if err := tc.Sync.OnTaskAssigned(task, assignee.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to assign task",
			})
		}
		assigneeChanged = true
	}

	// The snapshot is re-derived on every write, not only when the
	// assignee changed, so a renamed user converges on the next save.
	if err := tc.Sync.SyncAssigneeName(task); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sync assignee",
		})
	}

	if err := tc.DB.Save(task).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update task",
		})
	}

	tc.Cache.InvalidatePrefix(c.Context(), utils.ProjectCachePrefix)
	tc.Emitter.Record(user.ID, models.ActionTaskUpdated,
		"Task "+task.Title+" updated", user.OrganizationID, &dept.ID, &project.ID)
	if assigneeChanged && task.AssignedToID != nil && *task.AssignedToID != user.ID {
		tc.Emitter.Notify(*task.AssignedToID, models.NotificationTaskAssigned,
			fmt.Sprintf("%s assigned you task %q", user.Name, task.Title),
			fmt.Sprintf("/projects/%d/tasks/%d", project.ID, task.ID), &task.ID)
	}

	return c.JSON(task)
}

// CreateComment records a comment and fires mention notifications for
// every @username occurrence that resolves in the organization.
func (tc *TaskController) CreateComment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	task, project, err := tc.Authz.VisibleTask(user, uint(taskID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	var dept models.Department
	if err := tc.DB.First(&dept, project.DepartmentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	if !tc.Authz.CanWriteTask(user, task, project, &dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req CreateCommentRequest
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

	comment := models.Comment{
		TaskID:   task.ID,
		AuthorID: user.ID,
		Body:     req.Body,
	}
	if err := tc.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create comment",
		})
	}

	link := fmt.Sprintf("/projects/%d/tasks/%d", project.ID, task.ID)
	tc.Emitter.Record(user.ID, models.ActionCommentAdded,
		"Comment added on "+task.Title, user.OrganizationID, &dept.ID, &project.ID)
	tc.Emitter.NotifyMentions(user, req.Body, link, &task.ID)

	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (tc *TaskController) ListComments(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
	}

	task, project, err := tc.Authz.VisibleTask(user, uint(taskID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	var dept models.Department
	if err := tc.DB.First(&dept, project.DepartmentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Task not found",
		})
	}
	if !tc.Authz.CanViewProject(user, project, &dept) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var comments []models.Comment
	if err := tc.DB.Where("task_id = ?", task.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list comments",
		})
	}
	return c.JSON(comments)
}
