package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
)

type NotificationController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewNotificationController(db *gorm.DB, logger *logrus.Logger) *NotificationController {
	return &NotificationController{DB: db, Logger: logger}
}

// ListNotifications returns the caller's newest notifications, capped
// at 20. Clients poll this endpoint; there is no push channel.
func (nc *NotificationController) ListNotifications(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var notifications []models.Notification
	if err := nc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(20).
		Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list notifications",
		})
	}
	return c.JSON(notifications)
}

// MarkRead flips the read flag, the only mutable field on a
// notification row.
func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	notificationID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid notification id",
		})
	}

	var notification models.Notification
	if err := nc.DB.First(&notification, notificationID).Error; err != nil ||
		notification.UserID != user.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	if err := nc.DB.Model(&notification).Update("read", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notification read",
		})
	}

	return c.JSON(fiber.Map{"status": "read"})
}
