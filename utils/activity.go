package utils

import (
	"fmt"
	"regexp"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"worknest/models"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Emitter records audit entries and queues notifications. Everything
// here is best effort: a failed write is logged and captured, never
// returned, so the primary mutation cannot be aborted by its audit
// trail.
type Emitter struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Mailer *Mailer
}

func NewEmitter(db *gorm.DB, logger *logrus.Logger, mailer *Mailer) *Emitter {
	return &Emitter{DB: db, Logger: logger, Mailer: mailer}
}

func (e *Emitter) swallow(op string, err error) {
	if err == nil {
		return
	}
	e.Logger.WithError(err).WithField("op", op).Warn("side effect failed")
	sentry.CaptureException(fmt.Errorf("%s: %w", op, err))
}

// Record appends an immutable activity entry.
func (e *Emitter) Record(actorID uint, action, description string, organizationID uint, departmentID, projectID *uint) {
	entry := models.ActivityLog{
		ActorID:        actorID,
		Action:         action,
		Description:    description,
		OrganizationID: organizationID,
		DepartmentID:   departmentID,
		ProjectID:      projectID,
	}
	e.swallow("activity.record", e.DB.Create(&entry).Error)
}

// Notify persists a notification row for client polling and, when SMTP
// is configured, sends a best-effort email copy.
func (e *Emitter) Notify(userID uint, notifType, message, link string, relatedEntityID *uint) {
	notification := models.Notification{
		UserID:          userID,
		Type:            notifType,
		Message:         message,
		Link:            link,
		RelatedEntityID: relatedEntityID,
	}
	e.swallow("notification.create", e.DB.Create(&notification).Error)

	if e.Mailer != nil {
		var user models.User
		if err := e.DB.First(&user, userID).Error; err == nil {
			e.swallow("notification.email", e.Mailer.SendNotificationEmail(user.Email, message, link))
		}
	}
}

// NotifyMentions scans a comment body for @username tokens and fires
// one notification per textual occurrence. Mentioning the same user
// twice notifies twice; self-mentions are skipped. Only users of the
// actor's organization resolve.
func (e *Emitter) NotifyMentions(actor *models.User, body, link string, relatedEntityID *uint) {
	for _, match := range mentionPattern.FindAllStringSubmatch(body, -1) {
		username := match[1]
		var mentioned models.User
		err := e.DB.Where("name = ? AND organization_id = ?", username, actor.OrganizationID).
			First(&mentioned).Error
		if err != nil {
			continue
		}
		if mentioned.ID == actor.ID {
			continue
		}
		message := fmt.Sprintf("%s mentioned you in a comment", actor.Name)
		e.Notify(mentioned.ID, models.NotificationMention, message, link, relatedEntityID)
	}
}
