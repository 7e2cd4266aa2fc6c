package email

import (
	"fmt"

	"taskpilot/internal/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP not configured, outgoing mail will be logged and dropped")
		return &LogMailer{logger: logger}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.MailFrom,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer stands in when no SMTP server is configured, which keeps
// local development working without a mail relay.
type LogMailer struct {
	logger *zap.Logger
}

func (m *LogMailer) Send(to, subject, htmlBody string) error {
	m.logger.Info("mail suppressed",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
