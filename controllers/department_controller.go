package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
	"worknest/utils"
)

type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	ManagerID   *uint  `json:"manager_id"`
}

type DepartmentController struct {
	DB      *gorm.DB
	Logger  *logrus.Logger
	Authz   *utils.Authorizer
	Emitter *utils.Emitter
}

func NewDepartmentController(db *gorm.DB, logger *logrus.Logger, authz *utils.Authorizer, emitter *utils.Emitter) *DepartmentController {
	return &DepartmentController{DB: db, Logger: logger, Authz: authz, Emitter: emitter}
}

// CreateDepartment adds a department to the caller's organization.
// Only super admins may create departments; the manager, if given,
// must belong to the same organization.
func (dc *DepartmentController) CreateDepartment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if user.Role != models.RoleSuperAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req CreateDepartmentRequest
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

	managerID := req.ManagerID
	if managerID != nil {
		var manager models.User
		if err := dc.DB.First(&manager, *managerID).Error; err != nil ||
			manager.OrganizationID != user.OrganizationID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Manager must belong to your organization",
			})
		}
	} else {
		managerID = &user.ID
	}

	dept := models.Department{
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: user.OrganizationID,
		ManagerID:      managerID,
	}
	if err := dc.DB.Create(&dept).Error; err != nil {
		dc.Logger.WithError(err).Error("failed to create department")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create department",
		})
	}

	dc.Emitter.Record(user.ID, models.ActionDepartmentCreated,
		"Department "+dept.Name+" created", user.OrganizationID, &dept.ID, nil)

	return c.Status(fiber.StatusCreated).JSON(dept)
}

// ListDepartments is role-scoped: the department-manager union sees
// every in-org department, everyone else only their active one.
func (dc *DepartmentController) ListDepartments(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var departments []models.Department
	if err := dc.Authz.ScopedDepartments(user).Find(&departments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list departments",
		})
	}
	return c.JSON(departments)
}

// SwitchDepartment changes only the caller's active department. It
// never moves projects or tasks between departments.
func (dc *DepartmentController) SwitchDepartment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	departmentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid department id",
		})
	}

	dept, err := dc.Authz.VisibleDepartment(user, uint(departmentID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Department not found",
		})
	}

	if err := dc.Authz.CanSwitchDepartment(user, dept); err != nil {
		if errors.Is(err, utils.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Department not found",
		})
	}

	if err := dc.DB.Model(user).Update("department_id", dept.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to switch department",
		})
	}

	dc.Emitter.Record(user.ID, models.ActionDepartmentSwitched,
		"Switched active department to "+dept.Name, user.OrganizationID, &dept.ID, nil)

	return c.JSON(fiber.Map{
		"department": dept,
	})
}
