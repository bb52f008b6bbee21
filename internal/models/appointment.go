package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// AppointmentStatus represents the state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Appointment represents a patient visit booking
type Appointment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PatientID      uint `gorm:"index" json:"patient_id"`
	ServiceItemID  uint `gorm:"index" json:"service_item_id"`
	PractitionerID uint `gorm:"index" json:"practitioner_id"`

	ScheduledAt     time.Time         `gorm:"index" json:"scheduled_at"`
	DurationMinutes int               `gorm:"default:30" json:"duration_minutes"`
	Status          AppointmentStatus `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	Notes           string            `gorm:"type:text" json:"notes"`

	// RecurrenceRule is an RFC 5545 RRULE string for repeating visits
	// (e.g. weekly therapy sessions); nil for one-off appointments.
	RecurrenceRule *string `gorm:"type:text" json:"recurrence_rule"`

	ReminderTaskID *uint          `json:"reminder_task_id"`
	ReminderTask   *ScheduledTask `gorm:"foreignKey:ReminderTaskID" json:"reminder_task,omitempty"`

	// Relationships
	Patient      Patient     `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	ServiceItem  ServiceItem `gorm:"foreignKey:ServiceItemID" json:"service_item,omitempty"`
	Practitioner User        `gorm:"foreignKey:PractitionerID" json:"practitioner,omitempty"`
}

// NextOccurrence calculates the next visit time for the appointment
func (a Appointment) NextOccurrence() time.Time {
	if a.RecurrenceRule == nil || *a.RecurrenceRule == "" {
		return a.ScheduledAt
	}

	rule, err := rrule.StrToRRule(*a.RecurrenceRule)
	if err == nil {
		rule.DTStart(a.ScheduledAt)
		next := rule.After(time.Now(), true)
		if !next.IsZero() {
			return next
		}
	}
	// Fallback to the booked time if parsing fails or no future date found
	return a.ScheduledAt
}
