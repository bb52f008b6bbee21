package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// handleAppointmentReminder notifies a patient about an upcoming visit.
// Arguments: appointment_id. Scheduled by the appointment handlers a day
// before the visit.
func handleAppointmentReminder(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	appointmentID, ok := argUint(task.Arguments, "appointment_id")
	if !ok {
		return nil, fmt.Errorf("task %d is missing appointment_id", task.ID)
	}

	var appt models.Appointment
	err := db.WithContext(ctx).
		Preload("Patient").Preload("ServiceItem").Preload("Practitioner").
		First(&appt, appointmentID).Error
	if err != nil {
		return nil, fmt.Errorf("load appointment %d: %w", appointmentID, err)
	}

	// Nothing to remind about when the visit no longer happens
	if appt.Status == models.AppointmentStatusCancelled || appt.Status == models.AppointmentStatusCompleted {
		return map[string]interface{}{"skipped": string(appt.Status)}, nil
	}

	when := appt.NextOccurrence()
	subject := "Appointment reminder"
	message := fmt.Sprintf(
		"Hello %s, this is a reminder of your %s appointment with %s on %s.",
		appt.Patient.FullName(),
		appt.ServiceItem.Name,
		appt.Practitioner.Name,
		when.Format("Monday, 2 January 2006 at 15:04"),
	)

	if err := notifyPatient(db, appt.Patient, subject, message); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"appointment_id": appointmentID,
		"scheduled_at":   when.Format(time.RFC3339),
	}, nil
}

// handleOverdueInvoiceNotice finds unpaid invoices past their due date and
// notifies the patients. Runs as a recurring task; a delivery failure for one
// patient does not stop the rest.
func handleOverdueInvoiceNotice(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var invoices []models.Invoice
	err := db.WithContext(ctx).
		Preload("Patient").
		Where("status IN ? AND due_date IS NOT NULL AND due_date < ?",
			[]models.InvoiceStatus{models.InvoiceStatusPending, models.InvoiceStatusPartial},
			time.Now()).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	notified := 0
	failed := 0
	for _, inv := range invoices {
		outstanding := inv.PendingAmount
		if inv.Status == models.InvoiceStatusPending {
			outstanding = inv.TotalOwed()
		}
		message := fmt.Sprintf(
			"Hello %s, invoice %s with an outstanding balance of %s was due on %s. Please settle it at your earliest convenience.",
			inv.Patient.FullName(),
			inv.Number,
			outstanding.StringFixed(2),
			inv.DueDate.Format("2 January 2006"),
		)
		if err := notifyPatient(db, inv.Patient, "Outstanding invoice", message); err != nil {
			log.Printf("overdue notice for invoice %s failed: %v", inv.Number, err)
			failed++
			continue
		}
		notified++
	}

	result := map[string]interface{}{
		"overdue":  len(invoices),
		"notified": notified,
		"failed":   failed,
	}
	if failed > 0 && notified == 0 && len(invoices) > 0 {
		return result, fmt.Errorf("all %d overdue notices failed", failed)
	}
	return result, nil
}
