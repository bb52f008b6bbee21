package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// ExonerationService grants fee waivers. Exoneration is a terminal override:
// once granted the invoice exits normal payment tracking for good.
type ExonerationService struct {
	db *gorm.DB
}

func NewExonerationService(db *gorm.DB) *ExonerationService {
	return &ExonerationService{db: db}
}

// ExonerateInput carries the waiver request
type ExonerateInput struct {
	Reason         string
	AuthorizedByID uint
	// Amount is the waived amount; nil waives the full currently-owed balance
	Amount            *decimal.Decimal
	AuthorizationCode string
	Notes             string
}

// Exonerate waives some or all of the invoice's owed balance. Only PENDING
// and PARTIAL invoices qualify: a settled invoice has nothing left to waive
// and terminal invoices stay terminal. One-shot: a second call on the same
// invoice fails with AlreadyExoneratedError and leaves the original record
// untouched. The invoice transitions to EXONERATED even for partial waivers.
func (s *ExonerationService) Exonerate(ctx context.Context, invoiceID uint, input ExonerateInput) (*models.Exoneration, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Reason: "is required"}
	}
	if input.AuthorizedByID == 0 {
		return nil, &ValidationError{Field: "authorized_by", Reason: "is required"}
	}

	var exoneration *models.Exoneration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Exoneration != nil {
			return &AlreadyExoneratedError{InvoiceNumber: invoice.Number}
		}
		if invoice.Status == models.InvoiceStatusCancelled || invoice.Status == models.InvoiceStatusPaid {
			return &InvalidStateError{InvoiceNumber: invoice.Number, Status: invoice.Status, Operation: "exonerate"}
		}

		exo, err := buildExoneration(invoice, input)
		if err != nil {
			return err
		}
		if err := tx.Create(exo).Error; err != nil {
			return err
		}

		invoice.Exoneration = exo
		RecomputeLedger(invoice)
		if err := saveLedger(tx, invoice); err != nil {
			return err
		}
		exoneration = exo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exoneration, nil
}

// buildExoneration derives the waiver amounts from the invoice's current
// owed balance. OriginalAmount records the pre-waiver balance; the waived
// amount defaults to all of it and may not exceed it. A zero or negative
// balance means there is nothing to waive.
func buildExoneration(invoice *models.Invoice, input ExonerateInput) (*models.Exoneration, error) {
	owed := invoice.TotalOwed().Sub(invoice.PaidAmount).Round(moneyPlaces)
	if owed.Sign() <= 0 {
		return nil, &InvalidStateError{InvoiceNumber: invoice.Number, Status: invoice.Status, Operation: "exonerate"}
	}

	amount := owed
	if input.Amount != nil {
		amount = input.Amount.Round(moneyPlaces)
		if amount.Sign() <= 0 {
			return nil, &ValidationError{Field: "exonerated_amount", Reason: "must be greater than zero"}
		}
		if amount.GreaterThan(owed) {
			return nil, &ValidationError{Field: "exonerated_amount", Reason: "cannot exceed the owed balance"}
		}
	}

	return &models.Exoneration{
		InvoiceID:         invoice.ID,
		OriginalAmount:    owed,
		ExoneratedAmount:  amount,
		Reason:            strings.TrimSpace(input.Reason),
		AuthorizationCode: strings.TrimSpace(input.AuthorizationCode),
		Notes:             input.Notes,
		AuthorizedByID:    input.AuthorizedByID,
	}, nil
}

// MarkPrinted flags the exoneration document as printed. Idempotent under
// concurrency: the flag is set with a conditional update, so only the first
// call stamps PrintedAt and later calls return the record unchanged.
func (s *ExonerationService) MarkPrinted(ctx context.Context, exonerationID uint) (*models.Exoneration, error) {
	now := time.Now()
	if err := markPrintedUpdate(s.db.WithContext(ctx), exonerationID, &now).Error; err != nil {
		return nil, err
	}

	var exo models.Exoneration
	if err := s.db.WithContext(ctx).First(&exo, exonerationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "exoneration", Key: fmt.Sprint(exonerationID)}
		}
		return nil, err
	}
	return &exo, nil
}

// markPrintedUpdate writes the print flag only while it is still unset; a
// racing second caller matches zero rows and cannot overwrite PrintedAt
func markPrintedUpdate(db *gorm.DB, exonerationID uint, printedAt *time.Time) *gorm.DB {
	return db.Model(&models.Exoneration{}).
		Where("id = ? AND is_printed = ?", exonerationID, false).
		Updates(map[string]interface{}{"is_printed": true, "printed_at": printedAt})
}
