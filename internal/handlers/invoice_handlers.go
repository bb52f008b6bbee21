package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

type InvoiceHandler struct {
	db          *gorm.DB
	billing     *services.BillingService
	exoneration *services.ExonerationService
}

func NewInvoiceHandler(db *gorm.DB, billing *services.BillingService, exoneration *services.ExonerationService) *InvoiceHandler {
	return &InvoiceHandler{db: db, billing: billing, exoneration: exoneration}
}

// invoiceSortFields whitelists the sortable columns
var invoiceSortFields = map[string]string{
	"created_at":     "created_at",
	"number":         "number",
	"due_date":       "due_date",
	"total_amount":   "total_amount",
	"pending_amount": "pending_amount",
	"status":         "status",
}

// ListInvoices supports filtering by patient and status, optional inclusion
// of cancelled invoices, whitelisted sorting and pagination
func (h *InvoiceHandler) ListInvoices(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := h.db.Model(&models.Invoice{})
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if status := c.QueryParam("status"); status != "" {
		if !models.InvoiceStatus(status).Valid() {
			return &services.ValidationError{Field: "status", Reason: "is not a valid invoice status"}
		}
		query = query.Where("status = ?", status)
	} else if c.QueryParam("show_cancelled") != "true" {
		query = query.Where("status <> ?", models.InvoiceStatusCancelled)
	}
	if number := c.QueryParam("number"); number != "" {
		query = query.Where("number ILIKE ?", "%"+number+"%")
	}

	sort := "created_at"
	if requested := c.QueryParam("sort"); requested != "" {
		col, ok := invoiceSortFields[requested]
		if !ok {
			return &services.ValidationError{Field: "sort", Reason: "is not a sortable field"}
		}
		sort = col
	}
	direction := "desc"
	if c.QueryParam("order") == "asc" {
		direction = "asc"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var invoices []models.Invoice
	if err := query.Preload("Patient").Preload("Exoneration").
		Order(sort + " " + direction).
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&invoices).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PagedResponse{
		Items:      invoices,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	})
}

func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var invoice models.Invoice
	err = h.db.
		Preload("Patient.InsurancePlan").
		Preload("LineItems.ServiceItem").
		Preload("Payments").
		Preload("Exoneration").
		Preload("CreatedBy").
		First(&invoice, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "invoice", Key: c.Param("id")}
		}
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) CreateInvoice(c echo.Context) error {
	var req CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lines := make([]services.InvoiceLineInput, 0, len(req.LineItems))
	for _, line := range req.LineItems {
		lines = append(lines, services.InvoiceLineInput{
			ServiceCode: line.ServiceCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	invoice, err := h.billing.CreateInvoice(c.Request().Context(), services.CreateInvoiceInput{
		PatientID:   req.PatientID,
		Lines:       lines,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
		CreatedByID: currentUserID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) RecordPayment(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	payment, err := h.billing.RecordPayment(c.Request().Context(), uint(id), services.RecordPaymentInput{
		Amount:       req.Amount,
		Method:       models.PaymentMethod(req.Method),
		Reference:    req.Reference,
		Notes:        req.Notes,
		RecordedByID: currentUserID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *InvoiceHandler) CancelInvoice(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	invoice, err := h.billing.CancelInvoice(c.Request().Context(), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) RecalculateCoverage(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	invoice, err := h.billing.RecalculateCoverage(c.Request().Context(), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) Exonerate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var req ExonerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	authorizedBy := currentUserID(c)
	if authorizedBy == nil {
		return echo.NewHTTPError(http.StatusForbidden, "no staff account linked to this login")
	}

	exo, err := h.exoneration.Exonerate(c.Request().Context(), uint(id), services.ExonerateInput{
		Reason:            req.Reason,
		AuthorizedByID:    *authorizedBy,
		Amount:            req.ExoneratedAmount,
		AuthorizationCode: req.AuthorizationCode,
		Notes:             req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, exo)
}

// MarkExonerationPrinted flags the waiver document of the invoice as printed
func (h *InvoiceHandler) MarkExonerationPrinted(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var exo models.Exoneration
	if err := h.db.Where("invoice_id = ?", id).First(&exo).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "exoneration", Key: c.Param("id")}
		}
		return err
	}

	updated, err := h.exoneration.MarkPrinted(c.Request().Context(), exo.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *InvoiceHandler) ListPayments(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var invoice models.Invoice
	if err := h.db.First(&invoice, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &services.NotFoundError{Resource: "invoice", Key: c.Param("id")}
		}
		return err
	}

	var payments []models.Payment
	if err := h.db.Preload("RecordedBy").
		Where("invoice_id = ?", id).
		Order("paid_at asc").
		Find(&payments).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}
