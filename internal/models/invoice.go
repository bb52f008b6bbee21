package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the financial state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "PENDING"
	InvoiceStatusPartial    InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid       InvoiceStatus = "PAID"
	InvoiceStatusCancelled  InvoiceStatus = "CANCELLED"
	InvoiceStatusExonerated InvoiceStatus = "EXONERATED"
)

// IsTerminal reports whether the status forbids further payment-driven transitions
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCancelled || s == InvoiceStatusExonerated
}

// Valid reports whether s is a known invoice status
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid,
		InvoiceStatusCancelled, InvoiceStatusExonerated:
		return true
	}
	return false
}

// Invoice represents a patient bill. The monetary fields PaidAmount,
// PendingAmount and Status are derived from payments and exoneration and are
// only written through the ledger recompute.
type Invoice struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Number string `gorm:"type:varchar(20);uniqueIndex" json:"number"` // INV-00000001
	UUID   string `gorm:"type:varchar(36);index" json:"uuid"`         // public payment-link token

	PatientID   uint    `gorm:"index" json:"patient_id"`
	CreatedByID *uint   `gorm:"index" json:"created_by_id"`
	Patient     Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	CreatedBy   *User   `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	// TotalAmount is the pre-insurance sum of line totals.
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(12,2)" json:"paid_amount"`
	PendingAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"pending_amount"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);index;default:'PENDING'" json:"status"`

	DueDate *time.Time `json:"due_date"`
	Notes   string     `gorm:"type:text" json:"notes"`

	// InsuranceCalculation is the coverage snapshot taken at creation time.
	// It is not recomputed when coverage rules change later.
	InsuranceCalculation *InsuranceCalculation `gorm:"serializer:json;type:jsonb" json:"insurance_calculation,omitempty"`

	CancelledAt *time.Time `json:"cancelled_at"`

	// Relationships
	LineItems   []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
	Payments    []Payment         `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	Exoneration *Exoneration      `gorm:"foreignKey:InvoiceID" json:"exoneration,omitempty"`
}

// TotalOwed returns the amount the patient must pay: the insurance-adjusted
// patient share when a coverage snapshot exists, the raw total otherwise.
func (i Invoice) TotalOwed() decimal.Decimal {
	if i.InsuranceCalculation != nil {
		return i.InsuranceCalculation.TotalPatientPays
	}
	return i.TotalAmount
}

// InvoiceLineItem is one billed service on an invoice. Lines are created
// together with the invoice and never edited; corrections happen by voiding
// the invoice and issuing a new one.
type InvoiceLineItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID     uint   `gorm:"index" json:"invoice_id"`
	ServiceItemID uint   `gorm:"index" json:"service_item_id"`
	Description   string `gorm:"type:varchar(255)" json:"description"`

	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2)" json:"line_total"`

	// Relationships
	ServiceItem ServiceItem `gorm:"foreignKey:ServiceItemID" json:"service_item,omitempty"`
}

// InsuranceCalculation is the per-invoice coverage breakdown, stored as a
// jsonb snapshot on the invoice row.
type InsuranceCalculation struct {
	InsurancePlanID  uint            `json:"insurance_plan_id"`
	InsurerName      string          `json:"insurer_name"`
	CalculatedAt     time.Time       `json:"calculated_at"`
	Lines            []CoverageLine  `json:"lines"`
	TotalBase        decimal.Decimal `json:"total_base"`
	TotalCovered     decimal.Decimal `json:"total_covered"`
	TotalPatientPays decimal.Decimal `json:"total_patient_pays"`
}

// CoverageLine is the insurer/patient split for a single line item
type CoverageLine struct {
	ServiceItemID   uint            `json:"service_item_id"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CoveragePercent decimal.Decimal `json:"coverage_percent"`
	InsurerCovered  decimal.Decimal `json:"insurer_covered"`
	PatientPays     decimal.Decimal `json:"patient_pays"`
}
