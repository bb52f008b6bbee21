package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// EmailService delivers appointment reminders and billing notices over the
// clinic's SMTP account.
type EmailService struct {
	host       string
	port       string
	user       string
	password   string
	from       string
	senderName string
}

func NewEmailService() *EmailService {
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}
	senderName := os.Getenv("EMAIL_SENDER_NAME")
	if senderName == "" {
		senderName = "Clinic Billing"
	}
	return &EmailService{
		host:       os.Getenv("SMTP_HOST"),
		port:       os.Getenv("SMTP_PORT"),
		user:       os.Getenv("SMTP_USER"),
		password:   os.Getenv("SMTP_PASS"),
		from:       from,
		senderName: senderName,
	}
}

// SendEmail sends a plain-text message to every listed recipient
func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients given")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	message := buildEmailMessage(s.senderName, s.from, to, subject, body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildEmailMessage assembles the RFC 5322 message with all recipients on
// the To header
func buildEmailMessage(senderName, from string, to []string, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", senderName, from),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body + "\r\n")
}
