package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
)

// Mailer delivers auth-related notifications. Delivery is always
// best-effort: callers log failures and move on, a bounced reset mail never
// fails the request that triggered it.
type Mailer interface {
	// SendPasswordReset delivers a password reset token to the user
	SendPasswordReset(ctx context.Context, to, token string) error

	// SendPasswordChanged notifies the user their password was changed
	SendPasswordChanged(ctx context.Context, to string) error
}

// SMTPMailer sends mail through a plain SMTP relay
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer creates a mailer for the given relay address ("host:port")
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	subject := "Password reset request"
	body := fmt.Sprintf("A password reset was requested for your account.\r\n\r\n"+
		"Reset token: %s\r\n\r\n"+
		"The token expires in one hour. If you did not request this, ignore this message.\r\n", token)
	return m.send(to, subject, body)
}

func (m *SMTPMailer) SendPasswordChanged(ctx context.Context, to string) error {
	subject := "Your password was changed"
	body := "Your account password was just changed.\r\n\r\n" +
		"If this was not you, request a password reset immediately.\r\n"
	return m.send(to, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body))
	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes mail to the log instead of delivering it. Used in
// development and wherever no SMTP relay is configured.
type LogMailer struct {
	log *logrus.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(log *logrus.Logger) *LogMailer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	m.log.WithFields(logrus.Fields{
		"to":    to,
		"token": token,
	}).Info("password reset mail (log-only delivery)")
	return nil
}

func (m *LogMailer) SendPasswordChanged(ctx context.Context, to string) error {
	m.log.WithField("to", to).Info("password changed mail (log-only delivery)")
	return nil
}
