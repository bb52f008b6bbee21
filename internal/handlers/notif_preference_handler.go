package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

type NotifPreferenceHandler struct {
	db *gorm.DB
}

func NewNotifPreferenceHandler(db *gorm.DB) *NotifPreferenceHandler {
	return &NotifPreferenceHandler{db: db}
}

// GetPreference returns the patient's notification preference, falling back
// to the email default when none was ever set
func (h *NotifPreferenceHandler) GetPreference(c echo.Context) error {
	patientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var pref models.PatientNotifPreference
	err = h.db.Where("patient_id = ?", patientID).First(&pref).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		pref = models.PatientNotifPreference{
			PatientID:          uint(patientID),
			Channel:            models.NotificationChannelEmail,
			WhatsappTargetType: models.WhatsappTargetTypePersonal,
		}
	}
	return c.JSON(http.StatusOK, pref)
}

// UpsertPreference sets how reminders and payment notices reach the patient
func (h *NotifPreferenceHandler) UpsertPreference(c echo.Context) error {
	patientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var req NotifPreferenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.WhatsappTargetType == models.WhatsappTargetTypeGroup && req.WhatsappGroupID == "" {
		return &services.ValidationError{Field: "whatsapp_group_id", Reason: "is required for group targets"}
	}

	var patient models.Patient
	if err := h.db.First(&patient, patientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "patient", Key: c.Param("id")}
		}
		return err
	}

	pref := models.PatientNotifPreference{
		PatientID:          uint(patientID),
		Channel:            models.NotificationChannel(req.Channel),
		WhatsappTargetType: req.WhatsappTargetType,
		WhatsappGroupID:    req.WhatsappGroupID,
	}
	if pref.WhatsappTargetType == "" {
		pref.WhatsappTargetType = models.WhatsappTargetTypePersonal
	}

	err = h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel", "whatsapp_target_type", "whatsapp_group_id", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pref)
}
