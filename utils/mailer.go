package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"worknest/config"
)

// Mailer sends notification copies over SMTP. It is optional: when no
// SMTP host is configured NewMailer returns nil and callers skip it.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{cfg: cfg}
}

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>You have a new notification</h2>
    </div>

    <div class="content">
        <p>{{.Message}}</p>
        {{if .Link}}
        <p style="text-align: center;">
            <a href="{{.Link}}" class="button">Open in Worknest</a>
        </p>
        {{end}}
    </div>

    <div class="footer">
        <p>© {{.Year}} Worknest. All rights reserved.</p>
    </div>
</body>
</html>`))

// SendNotificationEmail delivers a single notification message.
func (m *Mailer) SendNotificationEmail(to, message, link string) error {
	var body bytes.Buffer
	data := struct {
		Message string
		Link    string
		Year    int
	}{
		Message: message,
		Link:    link,
		Year:    time.Now().Year(),
	}
	if err := notificationTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "New notification")
	msg.SetBody("text/html", body.String())

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}
