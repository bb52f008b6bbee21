package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/tasks"
)

// reminderLead is how long before the visit the reminder goes out
const reminderLead = 24 * time.Hour

type AppointmentHandler struct {
	db *gorm.DB
}

func NewAppointmentHandler(db *gorm.DB) *AppointmentHandler {
	return &AppointmentHandler{db: db}
}

func (h *AppointmentHandler) ListAppointments(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := h.db.Model(&models.Appointment{})
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if practitionerID := c.QueryParam("practitioner_id"); practitionerID != "" {
		query = query.Where("practitioner_id = ?", practitionerID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("scheduled_at >= ?", t)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("scheduled_at < ?", t)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var appointments []models.Appointment
	if err := query.Preload("Patient").Preload("ServiceItem").Preload("Practitioner").
		Order("scheduled_at asc").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&appointments).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PagedResponse{
		Items:      appointments,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	})
}

func (h *AppointmentHandler) GetAppointment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var appt models.Appointment
	err = h.db.Preload("Patient").Preload("ServiceItem").Preload("Practitioner").Preload("ReminderTask").
		First(&appt, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "appointment", Key: c.Param("id")}
		}
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) CreateAppointment(c echo.Context) error {
	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.RecurrenceRule != nil && *req.RecurrenceRule != "" {
		if _, err := rrule.StrToRRule(*req.RecurrenceRule); err != nil {
			return &services.ValidationError{Field: "recurrence_rule", Reason: "is not a valid RRULE"}
		}
	}

	var patient models.Patient
	if err := h.db.First(&patient, req.PatientID).Error; err != nil {
		return &services.NotFoundError{Resource: "patient", Key: strconv.Itoa(int(req.PatientID))}
	}
	var svc models.ServiceItem
	if err := h.db.First(&svc, req.ServiceItemID).Error; err != nil {
		return &services.NotFoundError{Resource: "service", Key: strconv.Itoa(int(req.ServiceItemID))}
	}
	var practitioner models.User
	if err := h.db.Where("id = ? AND is_active = ?", req.PractitionerID, true).First(&practitioner).Error; err != nil {
		return &services.NotFoundError{Resource: "practitioner", Key: strconv.Itoa(int(req.PractitionerID))}
	}

	appt := models.Appointment{
		PatientID:       req.PatientID,
		ServiceItemID:   req.ServiceItemID,
		PractitionerID:  req.PractitionerID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          models.AppointmentStatusScheduled,
		Notes:           req.Notes,
		RecurrenceRule:  req.RecurrenceRule,
	}
	if appt.DurationMinutes == 0 {
		appt.DurationMinutes = 30
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&appt).Error; err != nil {
			return err
		}
		return h.scheduleReminder(tx, &appt)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, appt)
}

// scheduleReminder creates (or recreates) the reminder task for the
// appointment's next occurrence. Recurring appointments get a recurring task
// following the same RRULE shifted a day earlier.
func (h *AppointmentHandler) scheduleReminder(tx *gorm.DB, appt *models.Appointment) error {
	if appt.ReminderTaskID != nil {
		if err := tx.Delete(&models.ScheduledTask{}, *appt.ReminderTaskID).Error; err != nil {
			return err
		}
		appt.ReminderTaskID = nil
	}

	due := appt.NextOccurrence().Add(-reminderLead)
	if due.Before(time.Now()) {
		// Too late to remind; leave the appointment without a task
		return tx.Model(appt).Update("reminder_task_id", nil).Error
	}

	args := map[string]interface{}{"appointment_id": appt.ID}
	var task models.ScheduledTask
	if appt.RecurrenceRule != nil && *appt.RecurrenceRule != "" {
		task = tasks.BuildRecurringTask(tasks.TaskAppointmentReminder, args, due, *appt.RecurrenceRule)
	} else {
		task = tasks.BuildScheduledTask(tasks.TaskAppointmentReminder, args, due)
	}
	if err := tx.Create(&task).Error; err != nil {
		return err
	}

	appt.ReminderTaskID = &task.ID
	return tx.Model(appt).Update("reminder_task_id", task.ID).Error
}

func (h *AppointmentHandler) UpdateAppointment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var appt models.Appointment
	if err := h.db.First(&appt, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "appointment", Key: c.Param("id")}
		}
		return err
	}
	if appt.Status != models.AppointmentStatusScheduled {
		return echo.NewHTTPError(http.StatusConflict, "only scheduled appointments can be edited")
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.RecurrenceRule != nil && *req.RecurrenceRule != "" {
		if _, err := rrule.StrToRRule(*req.RecurrenceRule); err != nil {
			return &services.ValidationError{Field: "recurrence_rule", Reason: "is not a valid RRULE"}
		}
	}

	appt.ScheduledAt = req.ScheduledAt
	appt.Notes = req.Notes
	appt.RecurrenceRule = req.RecurrenceRule
	if req.DurationMinutes > 0 {
		appt.DurationMinutes = req.DurationMinutes
	}
	if req.PractitionerID != 0 {
		appt.PractitionerID = req.PractitionerID
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&appt).Error; err != nil {
			return err
		}
		return h.scheduleReminder(tx, &appt)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

type appointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required,oneof=completed cancelled no_show"`
}

// SetAppointmentStatus completes, cancels or no-shows an appointment and
// drops any pending reminder
func (h *AppointmentHandler) SetAppointmentStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var req appointmentStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var appt models.Appointment
	if err := h.db.First(&appt, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "appointment", Key: c.Param("id")}
		}
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&appt).Update("status", req.Status).Error; err != nil {
			return err
		}
		if appt.ReminderTaskID != nil {
			return tx.Model(&models.ScheduledTask{}).
				Where("id = ?", *appt.ReminderTaskID).
				Update("status", models.ScheduledTaskStatusDisabled).Error
		}
		return nil
	})
	if err != nil {
		return err
	}

	appt.Status = req.Status
	return c.JSON(http.StatusOK, appt)
}
