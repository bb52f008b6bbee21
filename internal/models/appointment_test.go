package models

import (
	"testing"
	"time"
)

func TestNextOccurrenceOneOff(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	appt := Appointment{ScheduledAt: scheduled}

	if got := appt.NextOccurrence(); !got.Equal(scheduled) {
		t.Errorf("NextOccurrence() = %v, expected booked time %v", got, scheduled)
	}
}

func TestNextOccurrenceWeeklyRecurring(t *testing.T) {
	start := time.Now().Add(-30 * 24 * time.Hour).Truncate(time.Second)
	rule := "FREQ=WEEKLY"
	appt := Appointment{ScheduledAt: start, RecurrenceRule: &rule}

	next := appt.NextOccurrence()
	if !next.After(time.Now().Add(-time.Minute)) {
		t.Errorf("NextOccurrence() = %v, expected a time at or after now", next)
	}
	if next.After(time.Now().Add(7 * 24 * time.Hour)) {
		t.Errorf("NextOccurrence() = %v, expected within the next week", next)
	}
}

func TestNextOccurrenceInvalidRuleFallsBack(t *testing.T) {
	scheduled := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	rule := "not an rrule"
	appt := Appointment{ScheduledAt: scheduled, RecurrenceRule: &rule}

	if got := appt.NextOccurrence(); !got.Equal(scheduled) {
		t.Errorf("NextOccurrence() = %v, expected fallback to booked time %v", got, scheduled)
	}
}
