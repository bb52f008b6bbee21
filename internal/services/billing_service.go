package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// BillingService owns invoice creation and every mutation of ledger state.
// All writes happen inside a transaction holding a FOR UPDATE lock on the
// invoice row, so concurrent payments against the same invoice serialize
// instead of overwriting each other's recompute.
type BillingService struct {
	db *gorm.DB
}

func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

// InvoiceLineInput describes one billed service on a new invoice
type InvoiceLineInput struct {
	ServiceCode string
	Quantity    int
	// UnitPrice overrides the catalog price when set (negotiated rates)
	UnitPrice *decimal.Decimal
}

// CreateInvoiceInput carries everything needed to open an invoice
type CreateInvoiceInput struct {
	PatientID   uint
	Lines       []InvoiceLineInput
	DueDate     *time.Time
	Notes       string
	CreatedByID *uint
}

// CreateInvoice builds the line items from the service catalog, runs the
// coverage calculation against the patient's active insurance plan, and
// persists invoice, lines and snapshot atomically with a freshly allocated
// invoice number. The snapshot is taken once here and not recomputed when
// coverage rules change later.
func (s *BillingService) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, &ValidationError{Field: "line_items", Reason: "at least one line item is required"}
	}
	for _, line := range input.Lines {
		if line.Quantity < 0 {
			return nil, &ValidationError{Field: "quantity", Reason: "cannot be negative"}
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return nil, &ValidationError{Field: "unit_price", Reason: "cannot be negative"}
		}
	}

	var patient models.Patient
	err := s.db.WithContext(ctx).Preload("InsurancePlan").First(&patient, input.PatientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "patient", Key: fmt.Sprint(input.PatientID)}
		}
		return nil, err
	}

	lineItems, err := s.buildLineItems(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	serviceIDs := make([]uint, 0, len(lineItems))
	for _, item := range lineItems {
		total = total.Add(item.LineTotal)
		serviceIDs = append(serviceIDs, item.ServiceItemID)
	}

	var snapshot *models.InsuranceCalculation
	if patient.HasActiveInsurance() {
		var rules []models.CoverageRule
		if err := s.db.WithContext(ctx).
			Where("insurance_plan_id = ? AND service_item_id IN ?", *patient.InsurancePlanID, serviceIDs).
			Find(&rules).Error; err != nil {
			return nil, err
		}
		calc := CalculateCoverage(patient.InsurancePlan, rules, lineItems)
		snapshot = &calc
	}

	invoice := models.Invoice{
		UUID:                 uuid.New().String(),
		PatientID:            patient.ID,
		CreatedByID:          input.CreatedByID,
		TotalAmount:          total.Round(moneyPlaces),
		Status:               models.InvoiceStatusPending,
		DueDate:              input.DueDate,
		Notes:                input.Notes,
		InsuranceCalculation: snapshot,
		LineItems:            lineItems,
	}
	RecomputeLedger(&invoice)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := NextInvoiceNumber(tx)
		if err != nil {
			return err
		}
		invoice.Number = number
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// buildLineItems resolves service codes against the catalog and prices the lines
func (s *BillingService) buildLineItems(ctx context.Context, lines []InvoiceLineInput) ([]models.InvoiceLineItem, error) {
	items := make([]models.InvoiceLineItem, 0, len(lines))
	for _, line := range lines {
		code := strings.TrimSpace(line.ServiceCode)
		if code == "" {
			return nil, &ValidationError{Field: "service_code", Reason: "is required"}
		}

		var svc models.ServiceItem
		err := s.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&svc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &NotFoundError{Resource: "service", Key: code}
			}
			return nil, err
		}

		unit := svc.Price
		if line.UnitPrice != nil {
			unit = *line.UnitPrice
		}
		qty := decimal.NewFromInt(int64(line.Quantity))

		items = append(items, models.InvoiceLineItem{
			ServiceItemID: svc.ID,
			Description:   svc.Name,
			Quantity:      line.Quantity,
			UnitPrice:     unit.Round(moneyPlaces),
			LineTotal:     unit.Mul(qty).Round(moneyPlaces),
		})
	}
	return items, nil
}

// RecordPaymentInput carries the details of a received payment
type RecordPaymentInput struct {
	Amount       decimal.Decimal
	Method       models.PaymentMethod
	Reference    string
	Notes        string
	RecordedByID *uint
}

// RecordPayment appends an immutable payment to the invoice and recomputes
// the ledger in the same transaction. Payments against CANCELLED or
// EXONERATED invoices are rejected. Overpayment is accepted; the pending
// amount floors at zero and the invoice settles as PAID.
func (s *BillingService) RecordPayment(ctx context.Context, invoiceID uint, input RecordPaymentInput) (*models.Payment, error) {
	if input.Amount.Sign() <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if input.Method == "" {
		input.Method = models.PaymentMethodCash
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status.IsTerminal() {
			return &InvalidStateError{InvoiceNumber: invoice.Number, Status: invoice.Status, Operation: "record payment against"}
		}

		payment = models.Payment{
			InvoiceID:    invoice.ID,
			Amount:       input.Amount.Round(moneyPlaces),
			Method:       input.Method,
			Reference:    input.Reference,
			Notes:        input.Notes,
			RecordedByID: input.RecordedByID,
			PaidAt:       time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		invoice.Payments = append(invoice.Payments, payment)
		RecomputeLedger(invoice)
		return saveLedger(tx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CancelInvoice voids an invoice. Allowed from any non-terminal state;
// cancellation freezes all further ledger mutation.
func (s *BillingService) CancelInvoice(ctx context.Context, invoiceID uint) (*models.Invoice, error) {
	var cancelled *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status.IsTerminal() {
			return &InvalidStateError{InvoiceNumber: invoice.Number, Status: invoice.Status, Operation: "cancel"}
		}

		now := time.Now()
		invoice.Status = models.InvoiceStatusCancelled
		invoice.CancelledAt = &now
		RecomputeLedger(invoice)
		if err := tx.Model(invoice).Select("status", "cancelled_at", "paid_amount", "pending_amount").
			Updates(map[string]interface{}{
				"status":         invoice.Status,
				"cancelled_at":   invoice.CancelledAt,
				"paid_amount":    invoice.PaidAmount,
				"pending_amount": invoice.PendingAmount,
			}).Error; err != nil {
			return err
		}
		cancelled = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// RecalculateCoverage rewrites the insurance snapshot from the current
// coverage rules. Only permitted while the invoice is still PENDING with no
// payments recorded; anything later keeps the snapshot taken at creation.
func (s *BillingService) RecalculateCoverage(ctx context.Context, invoiceID uint) (*models.Invoice, error) {
	var updated *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != models.InvoiceStatusPending || invoice.PaidAmount.Sign() > 0 {
			return &InvalidStateError{InvoiceNumber: invoice.Number, Status: invoice.Status, Operation: "recalculate coverage for"}
		}

		if err := tx.Where("invoice_id = ?", invoice.ID).Find(&invoice.LineItems).Error; err != nil {
			return err
		}

		var patient models.Patient
		if err := tx.Preload("InsurancePlan").First(&patient, invoice.PatientID).Error; err != nil {
			return err
		}

		invoice.InsuranceCalculation = nil
		if patient.HasActiveInsurance() {
			serviceIDs := make([]uint, 0, len(invoice.LineItems))
			for _, item := range invoice.LineItems {
				serviceIDs = append(serviceIDs, item.ServiceItemID)
			}
			var rules []models.CoverageRule
			if err := tx.Where("insurance_plan_id = ? AND service_item_id IN ?", *patient.InsurancePlanID, serviceIDs).
				Find(&rules).Error; err != nil {
				return err
			}
			calc := CalculateCoverage(patient.InsurancePlan, rules, invoice.LineItems)
			invoice.InsuranceCalculation = &calc
		}

		RecomputeLedger(invoice)
		if err := tx.Model(invoice).Select("insurance_calculation", "paid_amount", "pending_amount", "status").
			Updates(map[string]interface{}{
				"insurance_calculation": invoice.InsuranceCalculation,
				"paid_amount":           invoice.PaidAmount,
				"pending_amount":        invoice.PendingAmount,
				"status":                invoice.Status,
			}).Error; err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// lockInvoice reads the invoice row FOR UPDATE and then loads the payment and
// exoneration children the ledger recompute needs. Children are loaded after
// the lock is held so the recompute always sees the latest committed state.
func lockInvoice(tx *gorm.DB, invoiceID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "invoice", Key: fmt.Sprint(invoiceID)}
		}
		return nil, err
	}

	if err := tx.Where("invoice_id = ?", invoice.ID).Find(&invoice.Payments).Error; err != nil {
		return nil, err
	}

	var exo models.Exoneration
	err = tx.Where("invoice_id = ?", invoice.ID).First(&exo).Error
	switch {
	case err == nil:
		invoice.Exoneration = &exo
	case errors.Is(err, gorm.ErrRecordNotFound):
		invoice.Exoneration = nil
	default:
		return nil, err
	}

	return &invoice, nil
}

// saveLedger persists the derived ledger fields of an invoice
func saveLedger(tx *gorm.DB, invoice *models.Invoice) error {
	return tx.Model(invoice).Select("paid_amount", "pending_amount", "status").
		Updates(map[string]interface{}{
			"paid_amount":    invoice.PaidAmount,
			"pending_amount": invoice.PendingAmount,
			"status":         invoice.Status,
		}).Error
}
