package handlers

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// Request DTOs. Validation tags are enforced by the echo validator bound in
// cmd/server; business rules beyond shape live in the services.

type PatientRequest struct {
	RecordNumber    string     `json:"record_number"`
	FirstName       string     `json:"first_name" validate:"required"`
	LastName        string     `json:"last_name" validate:"required"`
	Sex             string     `json:"sex" validate:"omitempty,oneof=male female other"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email" validate:"omitempty,email"`
	Address         string     `json:"address"`
	Notes           string     `json:"notes"`
	InsurancePlanID *uint      `json:"insurance_plan_id"`
	InsuranceCode   string     `json:"insurance_code"`
}

type ServiceItemRequest struct {
	Code        string          `json:"code" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active"`
}

type InsurancePlanRequest struct {
	InsurerName string `json:"insurer_name" validate:"required"`
	PlanName    string `json:"plan_name" validate:"required"`
	IsActive    *bool  `json:"is_active"`
	Notes       string `json:"notes"`
}

type CoverageRuleRequest struct {
	ServiceItemID   uint            `json:"service_item_id" validate:"required"`
	CoveragePercent decimal.Decimal `json:"coverage_percent"`
}

type AppointmentRequest struct {
	PatientID       uint      `json:"patient_id" validate:"required"`
	ServiceItemID   uint      `json:"service_item_id" validate:"required"`
	PractitionerID  uint      `json:"practitioner_id" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,gt=0"`
	Notes           string    `json:"notes"`
	RecurrenceRule  *string   `json:"recurrence_rule"`
}

type InvoiceLineRequest struct {
	ServiceCode string           `json:"service_code" validate:"required"`
	Quantity    int              `json:"quantity" validate:"gte=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	PatientID uint                 `json:"patient_id" validate:"required"`
	DueDate   *time.Time           `json:"due_date"`
	Notes     string               `json:"notes"`
	LineItems []InvoiceLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"omitempty,oneof=cash card transfer gateway"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

type ExonerateRequest struct {
	Reason            string           `json:"reason" validate:"required"`
	ExoneratedAmount  *decimal.Decimal `json:"exonerated_amount"`
	AuthorizationCode string           `json:"authorization_code"`
	Notes             string           `json:"notes"`
}

type UserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
	Role  string `json:"role" validate:"omitempty,oneof=admin billing reception"`
}

type NotifPreferenceRequest struct {
	Channel            string `json:"channel" validate:"required,oneof=none email whatsapp"`
	WhatsappTargetType string `json:"whatsapp_target_type" validate:"omitempty,oneof=personal group"`
	WhatsappGroupID    string `json:"whatsapp_group_id"`
}

// PagedResponse wraps list responses with pagination metadata
type PagedResponse struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalCount int64       `json:"total_count"`
	TotalPages int         `json:"total_pages"`
}

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

func getUintFromContext(c echo.Context, key string) uint {
	val := c.Get(key)
	if val == nil {
		return 0
	}
	uintVal, ok := val.(uint)
	if !ok {
		return 0
	}
	return uintVal
}

// currentUserID returns the staff account id from the request context, or nil
// when the login has no linked account
func currentUserID(c echo.Context) *uint {
	id := getUintFromContext(c, "userID")
	if id == 0 {
		return nil
	}
	return &id
}

func currentUserRole(c echo.Context) models.UserRole {
	role, _ := c.Get("userRole").(models.UserRole)
	return role
}
