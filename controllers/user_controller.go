package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
	"worknest/utils"
)

type AdminUpdateUserRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	Role         *string `json:"role" validate:"omitempty,oneof=super_admin department_manager project_manager member"`
	DepartmentID *uint   `json:"department_id"`
	IsActive     *bool   `json:"is_active"`
}

type UserController struct {
	DB      *gorm.DB
	Logger  *logrus.Logger
	Authz   *utils.Authorizer
	Sync    *utils.MembershipSync
	Emitter *utils.Emitter
}

func NewUserController(db *gorm.DB, logger *logrus.Logger, authz *utils.Authorizer,
	sync *utils.MembershipSync, emitter *utils.Emitter) *UserController {
	return &UserController{DB: db, Logger: logger, Authz: authz, Sync: sync, Emitter: emitter}
}

// ListUsers returns every user of the caller's organization.
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var users []models.User
	if err := uc.DB.Where("organization_id = ?", user.OrganizationID).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}
	return c.JSON(users)
}

// AdminUpdateUser lets a super admin edit an in-org account. Renaming
// a user does not rewrite existing task snapshots; those refresh on
// the next write that touches the task.
func (uc *UserController) AdminUpdateUser(c *fiber.Ctx) error {
	admin := c.Locals("user").(*models.User)

	userID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var target models.User
	if err := uc.DB.First(&target, userID).Error; err != nil ||
		target.OrganizationID != admin.OrganizationID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req AdminUpdateUserRequest
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
		target.Name = *req.Name
	}
	if req.Role != nil {
		target.Role = models.Role(*req.Role)
	}
	if req.IsActive != nil {
		target.IsActive = *req.IsActive
	}
	if req.DepartmentID != nil {
		dept, err := uc.Authz.VisibleDepartment(admin, *req.DepartmentID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Department does not belong to your organization",
			})
		}
		target.DepartmentID = &dept.ID
	}

	if err := uc.DB.Save(&target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	uc.Emitter.Record(admin.ID, models.ActionUserUpdated,
		"User "+target.Name+" updated", admin.OrganizationID, nil, nil)

	return c.JSON(target)
}

// AdminDeleteUser removes an account. Every task referencing the user
// is unassigned first; no task is deleted and historical membership
// rows stay in place.
func (uc *UserController) AdminDeleteUser(c *fiber.Ctx) error {
	admin := c.Locals("user").(*models.User)

	userID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var target models.User
	if err := uc.DB.First(&target, userID).Error; err != nil ||
		target.OrganizationID != admin.OrganizationID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if target.ID == admin.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot delete your own account",
		})
	}

	if err := uc.Sync.OnUserDeleted(target.ID); err != nil {
		uc.Logger.WithError(err).Error("failed to unassign tasks for deleted user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}

	if err := uc.DB.Delete(&target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}

	uc.Emitter.Record(admin.ID, models.ActionUserDeleted,
		"User "+target.Name+" deleted", admin.OrganizationID, nil, nil)

	return c.JSON(fiber.Map{"status": "deleted"})
}
