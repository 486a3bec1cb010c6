package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
)

type ActivityController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewActivityController(db *gorm.DB, logger *logrus.Logger) *ActivityController {
	return &ActivityController{DB: db, Logger: logger}
}

// ListActivity returns the organization's audit trail, newest first.
// Mounted behind RequireSuperAdmin.
func (ac *ActivityController) ListActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var entries []models.ActivityLog
	if err := ac.DB.Where("organization_id = ?", user.OrganizationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list activity",
		})
	}
	return c.JSON(entries)
}
