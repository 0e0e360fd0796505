// Package mailer sends transactional email over SMTP and builds the
// message bodies for account verification and password reset flows.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message with both plain-text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g. "TaskCamp <no-reply@taskcamp.example>"
}

// Sender delivers email. Implementations must be safe for concurrent use.
type Sender interface {
	Send(e Email) error
}

// SMTPSender sends mail through a single SMTP relay.
type SMTPSender struct {
	cfg Config
	log *zap.Logger
}

// NewSMTPSender constructs a sender for the given relay.
func NewSMTPSender(cfg Config, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: logger}
}

// Send delivers the message as a multipart/alternative MIME email.
func (s *SMTPSender) Send(e Email) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := buildMIME(s.cfg.From, e)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{e.To}, msg); err != nil {
		if s.log != nil {
			s.log.Error("email send failed",
				zap.String("to", e.To),
				zap.String("subject", e.Subject),
				zap.Error(err))
		}
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	if s.log != nil {
		s.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	}
	return nil
}

const mimeBoundary = "taskcamp-alt-boundary"

func buildMIME(from string, e Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + e.To + "\r\n")
	b.WriteString("Subject: " + e.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + mimeBoundary + "\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(e.HTMLBody)
	b.WriteString("\r\n")

	b.WriteString("--" + mimeBoundary + "--\r\n")
	return []byte(b.String())
}

// LogSender logs messages instead of delivering them. It is the development
// fallback when no SMTP relay is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) Send(e Email) error {
	if s.Log != nil {
		s.Log.Info("email (log only, SMTP not configured)",
			zap.String("to", e.To),
			zap.String("subject", e.Subject),
			zap.String("body", e.TextBody))
	}
	return nil
}
