package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

func TestSummarizeOutstandingNoDoubleCounting(t *testing.T) {
	invoices := []models.Invoice{
		{Status: models.InvoiceStatusPending, TotalAmount: d("200.00"), PendingAmount: d("200.00")},
		{Status: models.InvoiceStatusPartial, TotalAmount: d("200.00"), PaidAmount: d("150.00"), PendingAmount: d("50.00")},
		{Status: models.InvoiceStatusPaid, TotalAmount: d("300.00"), PaidAmount: d("300.00")},
	}

	summary := SummarizeOutstanding(invoices)

	// 200 still owed on the pending one plus the 50 remainder; the partial
	// invoice's full total must not be added on top of its pending amount
	assert.True(t, summary.OutstandingTotal.Equal(d("250.00")), "outstanding = %s", summary.OutstandingTotal)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 1, summary.PartialCount)
	assert.Equal(t, 1, summary.PaidCount)
	assert.True(t, summary.PaidTotal.Equal(d("300.00")))
}

func TestSummarizeOutstandingUsesPatientShareForPending(t *testing.T) {
	invoices := []models.Invoice{
		{
			Status:      models.InvoiceStatusPending,
			TotalAmount: d("1000.00"),
			InsuranceCalculation: &models.InsuranceCalculation{
				TotalPatientPays: d("400.00"),
			},
		},
	}

	summary := SummarizeOutstanding(invoices)
	assert.True(t, summary.OutstandingTotal.Equal(d("400.00")))
}

func TestSummarizeOutstandingIgnoresTerminalInvoices(t *testing.T) {
	invoices := []models.Invoice{
		{Status: models.InvoiceStatusCancelled, TotalAmount: d("900.00"), PendingAmount: d("900.00")},
		{Status: models.InvoiceStatusExonerated, TotalAmount: d("400.00")},
	}

	summary := SummarizeOutstanding(invoices)
	assert.True(t, summary.OutstandingTotal.IsZero())
	assert.Equal(t, 0, summary.PendingCount+summary.PartialCount+summary.PaidCount)
}

func TestSummarizeExonerations(t *testing.T) {
	invoices := []models.Invoice{
		{Exoneration: &models.Exoneration{ExoneratedAmount: d("300.00"), IsPrinted: true}},
		{Exoneration: &models.Exoneration{ExoneratedAmount: d("150.50")}},
		{Status: models.InvoiceStatusPaid}, // no exoneration
	}

	summary := SummarizeExonerations(invoices)

	assert.Equal(t, 2, summary.Count)
	assert.True(t, summary.TotalExonerated.Equal(d("450.50")))
	assert.Equal(t, 1, summary.PrintedCount)
	assert.Equal(t, 1, summary.PendingPrintCount)
}

func TestCountByStatus(t *testing.T) {
	invoices := []models.Invoice{
		{Status: models.InvoiceStatusPending},
		{Status: models.InvoiceStatusPending},
		{Status: models.InvoiceStatusPaid},
	}

	counts := CountByStatus(invoices)
	assert.Equal(t, 2, counts[models.InvoiceStatusPending])
	assert.Equal(t, 1, counts[models.InvoiceStatusPaid])
	assert.Equal(t, 0, counts[models.InvoiceStatusCancelled])
}
