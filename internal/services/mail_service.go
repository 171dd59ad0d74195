package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/safewaters/backend/internal/config"
)

// MailService sends transactional mail via SMTP. Only the password reset
// flow uses it today.
type MailService struct {
	cfg config.Config
}

// NewMailService creates a new mail service instance.
func NewMailService(cfg config.Config) *MailService {
	return &MailService{cfg: cfg}
}

// IsConfigured returns true if SMTP is properly configured.
func (s *MailService) IsConfigured() bool {
	return s.cfg.SMTPHost != "" && s.cfg.SMTPFrom != ""
}

var resetMailTemplate = template.Must(template.New("reset").Parse(`<html>
<body>
<p>Hello {{.Name}},</p>
<p>A password reset was requested for your SafeWaters account.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>The link expires in 30 minutes. If you did not request this, ignore this mail.</p>
</body>
</html>`))

// SendPasswordReset mails a reset link containing the token.
func (s *MailService) SendPasswordReset(email, name, token string) error {
	if !s.IsConfigured() {
		return errors.New("smtp not configured")
	}

	var body bytes.Buffer
	err := resetMailTemplate.Execute(&body, map[string]string{
		"Name": name,
		"Link": fmt.Sprintf("%s?token=%s", s.cfg.ResetBaseURL, token),
	})
	if err != nil {
		return fmt.Errorf("render reset mail: %w", err)
	}

	msg := bytes.Buffer{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.cfg.SMTPFrom))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", email))
	msg.WriteString("Subject: SafeWaters password reset\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{email}, msg.Bytes()); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}
