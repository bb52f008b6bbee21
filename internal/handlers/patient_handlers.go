package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

type PatientHandler struct {
	db *gorm.DB
}

func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{db: db}
}

// ListPatients supports search over name, record number and phone plus
// standard pagination
func (h *PatientHandler) ListPatients(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := h.db.Model(&models.Patient{})
	if search := c.QueryParam("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR record_number ILIKE ? OR phone ILIKE ?",
			like, like, like, like,
		)
	}
	if planID := c.QueryParam("insurance_plan_id"); planID != "" {
		query = query.Where("insurance_plan_id = ?", planID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var patients []models.Patient
	if err := query.Preload("InsurancePlan").
		Order("last_name asc, first_name asc").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&patients).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PagedResponse{
		Items:      patients,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	})
}

func (h *PatientHandler) GetPatient(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var patient models.Patient
	if err := h.db.Preload("InsurancePlan").First(&patient, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "patient", Key: c.Param("id")}
		}
		return err
	}
	return c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) CreatePatient(c echo.Context) error {
	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.InsurancePlanID != nil {
		var plan models.InsurancePlan
		if err := h.db.First(&plan, *req.InsurancePlanID).Error; err != nil {
			return &services.NotFoundError{Resource: "insurance plan", Key: strconv.Itoa(int(*req.InsurancePlanID))}
		}
	}

	patient := models.Patient{
		RecordNumber:    req.RecordNumber,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Sex:             req.Sex,
		DateOfBirth:     req.DateOfBirth,
		Phone:           req.Phone,
		Email:           req.Email,
		Address:         req.Address,
		Notes:           req.Notes,
		InsurancePlanID: req.InsurancePlanID,
		InsuranceCode:   req.InsuranceCode,
	}

	if patient.RecordNumber == "" {
		number, err := services.NextRecordNumber(h.db)
		if err != nil {
			return err
		}
		patient.RecordNumber = number
	}

	if err := h.db.Create(&patient).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, patient)
}

func (h *PatientHandler) UpdatePatient(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var patient models.Patient
	if err := h.db.First(&patient, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "patient", Key: c.Param("id")}
		}
		return err
	}

	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.InsurancePlanID != nil {
		var plan models.InsurancePlan
		if err := h.db.First(&plan, *req.InsurancePlanID).Error; err != nil {
			return &services.NotFoundError{Resource: "insurance plan", Key: strconv.Itoa(int(*req.InsurancePlanID))}
		}
	}

	patient.FirstName = req.FirstName
	patient.LastName = req.LastName
	patient.Sex = req.Sex
	patient.DateOfBirth = req.DateOfBirth
	patient.Phone = req.Phone
	patient.Email = req.Email
	patient.Address = req.Address
	patient.Notes = req.Notes
	patient.InsurancePlanID = req.InsurancePlanID
	patient.InsuranceCode = req.InsuranceCode
	if req.RecordNumber != "" {
		patient.RecordNumber = req.RecordNumber
	}

	if err := h.db.Save(&patient).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) DeletePatient(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	// Refuse deletion while open invoices exist; history must stay auditable
	var open int64
	if err := h.db.Model(&models.Invoice{}).
		Where("patient_id = ? AND status IN ?", id, []models.InvoiceStatus{models.InvoiceStatusPending, models.InvoiceStatusPartial}).
		Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return echo.NewHTTPError(http.StatusConflict, "patient has open invoices")
	}

	result := h.db.Delete(&models.Patient{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &services.NotFoundError{Resource: "patient", Key: c.Param("id")}
	}
	return c.NoContent(http.StatusNoContent)
}
