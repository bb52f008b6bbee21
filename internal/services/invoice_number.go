package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

const (
	invoiceSequenceName = "invoice"
	patientSequenceName = "patient_record"
)

// NextInvoiceNumber allocates the next invoice number inside tx. The sequence
// row is read FOR UPDATE so two concurrent creations can never share a value;
// numbers are assigned once and never reused.
func NextInvoiceNumber(tx *gorm.DB) (string, error) {
	value, err := nextSequenceValue(tx, invoiceSequenceName)
	if err != nil {
		return "", err
	}
	return FormatInvoiceNumber(value), nil
}

// NextRecordNumber allocates a patient record number when none was supplied
// at registration
func NextRecordNumber(db *gorm.DB) (string, error) {
	var number string
	err := db.Transaction(func(tx *gorm.DB) error {
		value, err := nextSequenceValue(tx, patientSequenceName)
		if err != nil {
			return err
		}
		number = fmt.Sprintf("P-%06d", value)
		return nil
	})
	return number, err
}

func nextSequenceValue(tx *gorm.DB, name string) (int64, error) {
	var seq models.NumberSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&seq).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		seq = models.NumberSequence{Name: name}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, err
		}
	}

	seq.LastValue++
	if err := tx.Model(&models.NumberSequence{}).
		Where("id = ?", seq.ID).
		Update("last_value", seq.LastValue).Error; err != nil {
		return 0, err
	}

	return seq.LastValue, nil
}

// FormatInvoiceNumber renders a sequence value as INV- followed by an 8-digit
// zero-padded number, e.g. INV-00000042
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("INV-%08d", n)
}
