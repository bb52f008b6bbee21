package tasks

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

// notifyPatient delivers a message to a patient over their preferred channel.
// Patients without a preference row default to email when they have an
// address; "none" silently drops the message.
func notifyPatient(db *gorm.DB, patient models.Patient, subject, message string) error {
	var pref models.PatientNotifPreference
	err := db.Where("patient_id = ?", patient.ID).First(&pref).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		pref.Channel = models.NotificationChannelEmail
	}

	switch pref.Channel {
	case models.NotificationChannelNone:
		return nil
	case models.NotificationChannelEmail:
		if patient.Email == "" {
			return fmt.Errorf("patient %d has no email address", patient.ID)
		}
		return services.NewEmailService().SendEmail([]string{patient.Email}, subject, message)
	case models.NotificationChannelWhatsapp:
		target := patient.Phone
		if pref.WhatsappTargetType == models.WhatsappTargetTypeGroup && pref.WhatsappGroupID != "" {
			target = pref.WhatsappGroupID
		}
		if target == "" {
			return fmt.Errorf("patient %d has no whatsapp target", patient.ID)
		}
		return services.NewWahaService().SendMessage(target, fmt.Sprintf("*%s*\n\n%s", subject, message))
	}
	return fmt.Errorf("unknown notification channel %q", pref.Channel)
}

// handleSendNotification sends an ad-hoc message to one patient.
// Arguments: patient_id, subject, message.
func handleSendNotification(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	patientID, ok := argUint(task.Arguments, "patient_id")
	if !ok {
		return nil, fmt.Errorf("task %d is missing patient_id", task.ID)
	}

	var patient models.Patient
	if err := db.WithContext(ctx).First(&patient, patientID).Error; err != nil {
		return nil, fmt.Errorf("load patient %d: %w", patientID, err)
	}

	subject := argString(task.Arguments, "subject")
	message := argString(task.Arguments, "message")
	if err := notifyPatient(db, patient, subject, message); err != nil {
		return nil, err
	}

	return map[string]interface{}{"patient_id": patientID, "delivered": true}, nil
}
