package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"assetwatch/internal/config"
	"assetwatch/internal/models"
)

// SMTPNotifier sends alert emails through a plain SMTP relay
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

// NewSMTPNotifier creates an email notifier from SMTP configuration
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// SendAlertEmail formats and sends one alert notification email
func (n *SMTPNotifier) SendAlertEmail(ctx context.Context, alert *models.Alert, recipient string) error {
	if n.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	from := n.cfg.From
	if from == "" {
		from = n.cfg.User
	}

	msg := buildAlertMessage(alert, from, recipient)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, from, []string{recipient}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send alert email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildAlertMessage(alert *models.Alert, from, to string) []byte {
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Title)

	description := alert.Description
	if description == "" {
		description = "No description"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	b.WriteString("<h2>Alert Notification</h2>")
	fmt.Fprintf(&b, "<p><strong>Title:</strong> %s</p>", alert.Title)
	fmt.Fprintf(&b, "<p><strong>Severity:</strong> %s</p>", alert.Severity)
	fmt.Fprintf(&b, "<p><strong>Description:</strong> %s</p>", description)
	if alert.AssetID != "" {
		fmt.Fprintf(&b, "<p><strong>Asset:</strong> %s</p>", alert.AssetID)
	}
	fmt.Fprintf(&b, "<p><strong>Time:</strong> %s</p>", alert.CreatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("<p>Please log in to the monitoring platform to view and manage this alert.</p>")
	b.WriteString("</body></html>")

	return []byte(b.String())
}
