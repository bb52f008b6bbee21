package services

import (
	"strings"
	"testing"
)

func TestBuildEmailMessage(t *testing.T) {
	msg := string(buildEmailMessage(
		"Clinic Billing",
		"billing@clinic.example",
		[]string{"patient@example.com", "guardian@example.com"},
		"Appointment reminder",
		"See you tomorrow at 09:30.",
	))

	headerChecks := []string{
		"From: Clinic Billing <billing@clinic.example>",
		"To: patient@example.com, guardian@example.com",
		"Subject: Appointment reminder",
		"Content-Type: text/plain; charset=utf-8",
	}
	for _, want := range headerChecks {
		if !strings.Contains(msg, want+"\r\n") {
			t.Errorf("message missing header %q:\n%s", want, msg)
		}
	}

	if !strings.Contains(msg, "\r\n\r\nSee you tomorrow at 09:30.\r\n") {
		t.Errorf("body not separated from headers by a blank line:\n%s", msg)
	}
}
