package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

func newInvoice(total string) *models.Invoice {
	return &models.Invoice{
		Number:      "INV-00000001",
		TotalAmount: d(total),
		Status:      models.InvoiceStatusPending,
	}
}

func pay(inv *models.Invoice, amount string) {
	inv.Payments = append(inv.Payments, models.Payment{Amount: d(amount)})
}

func TestRecomputeLedgerPaymentFlow(t *testing.T) {
	inv := newInvoice("1000.00")
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	assert.True(t, inv.PendingAmount.Equal(d("1000.00")))

	pay(inv, "400.00")
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.PaidAmount.Equal(d("400.00")))
	assert.True(t, inv.PendingAmount.Equal(d("600.00")))

	pay(inv, "600.00")
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.PaidAmount.Equal(d("1000.00")))
	assert.True(t, inv.PendingAmount.IsZero())
}

func TestRecomputeLedgerPaidPlusPendingEqualsOwed(t *testing.T) {
	inv := newInvoice("780.00")
	pay(inv, "120.50")
	pay(inv, "59.50")
	RecomputeLedger(inv)

	sum := inv.PaidAmount.Add(inv.PendingAmount)
	assert.True(t, sum.Sub(inv.TotalOwed()).Abs().LessThanOrEqual(d("0.01")),
		"paid %s + pending %s should equal owed %s", inv.PaidAmount, inv.PendingAmount, inv.TotalOwed())
}

func TestRecomputeLedgerUsesInsuranceSnapshot(t *testing.T) {
	inv := newInvoice("1000.00")
	inv.InsuranceCalculation = &models.InsuranceCalculation{
		TotalBase:        d("1000.00"),
		TotalCovered:     d("600.00"),
		TotalPatientPays: d("400.00"),
	}

	RecomputeLedger(inv)
	assert.True(t, inv.PendingAmount.Equal(d("400.00")))

	pay(inv, "400.00")
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
}

func TestRecomputeLedgerToleranceSettles(t *testing.T) {
	inv := newInvoice("100.00")
	pay(inv, "99.99")
	RecomputeLedger(inv)

	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.PendingAmount.IsZero())
}

func TestRecomputeLedgerOverpaymentFloorsAtZero(t *testing.T) {
	inv := newInvoice("100.00")
	pay(inv, "150.00")
	RecomputeLedger(inv)

	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.PendingAmount.IsZero())
	assert.True(t, inv.PaidAmount.Equal(d("150.00")))
}

func TestRecomputeLedgerZeroOwedSettlesImmediately(t *testing.T) {
	inv := newInvoice("0.00")
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.PendingAmount.IsZero())
}

func TestRecomputeLedgerFullExoneration(t *testing.T) {
	inv := newInvoice("780.00")
	inv.Exoneration = &models.Exoneration{
		OriginalAmount:   d("780.00"),
		ExoneratedAmount: d("780.00"),
	}
	RecomputeLedger(inv)

	assert.Equal(t, models.InvoiceStatusExonerated, inv.Status)
	assert.True(t, inv.PendingAmount.IsZero())
}

func TestRecomputeLedgerPartialExonerationAfterPayment(t *testing.T) {
	inv := newInvoice("500.00")
	pay(inv, "200.00")
	inv.Exoneration = &models.Exoneration{
		OriginalAmount:   d("300.00"),
		ExoneratedAmount: d("300.00"),
	}
	RecomputeLedger(inv)

	assert.Equal(t, models.InvoiceStatusExonerated, inv.Status)
	assert.True(t, inv.PaidAmount.Equal(d("200.00")))
	assert.True(t, inv.PendingAmount.IsZero())
}

func TestRecomputeLedgerCancelledIsSticky(t *testing.T) {
	inv := newInvoice("100.00")
	inv.Status = models.InvoiceStatusCancelled
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusCancelled, inv.Status)

	// Even a covering payment sum does not flip a cancelled invoice
	pay(inv, "100.00")
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusCancelled, inv.Status)
}

func TestRecomputeLedgerExonerationOutranksCancelled(t *testing.T) {
	inv := newInvoice("100.00")
	inv.Status = models.InvoiceStatusCancelled
	inv.Exoneration = &models.Exoneration{ExoneratedAmount: d("100.00")}
	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusExonerated, inv.Status)
}

func TestRecomputeLedgerSkipsDeletedPayments(t *testing.T) {
	inv := newInvoice("100.00")
	deleted := models.Payment{Amount: d("100.00")}
	deleted.DeletedAt.Valid = true
	inv.Payments = append(inv.Payments, deleted)

	RecomputeLedger(inv)
	assert.Equal(t, models.InvoiceStatusPending, inv.Status)
	assert.True(t, inv.PaidAmount.IsZero())
}

func TestRecomputeLedgerIdempotent(t *testing.T) {
	inv := newInvoice("333.33")
	pay(inv, "111.11")
	RecomputeLedger(inv)

	paid, pending, status := inv.PaidAmount, inv.PendingAmount, inv.Status
	RecomputeLedger(inv)

	assert.True(t, inv.PaidAmount.Equal(paid))
	assert.True(t, inv.PendingAmount.Equal(pending))
	assert.Equal(t, status, inv.Status)
}

func TestRecomputeLedgerPaidAmountMonotonic(t *testing.T) {
	inv := newInvoice("1000.00")
	previous := decimal.Zero
	for _, amount := range []string{"100.00", "250.00", "0.01", "649.99"} {
		pay(inv, amount)
		RecomputeLedger(inv)
		assert.True(t, inv.PaidAmount.GreaterThanOrEqual(previous),
			"paid amount shrank from %s to %s", previous, inv.PaidAmount)
		previous = inv.PaidAmount
	}
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
}
