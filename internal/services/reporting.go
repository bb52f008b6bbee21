package services

import (
	"github.com/shopspring/decimal"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// Reporting works on invoice collections already fetched by the caller
// (with Exoneration preloaded where relevant); it performs no I/O itself.

// ExonerationSummary aggregates waiver activity over a set of invoices
type ExonerationSummary struct {
	TotalExonerated   decimal.Decimal `json:"total_exonerated"`
	Count             int             `json:"count"`
	PrintedCount      int             `json:"printed_count"`
	PendingPrintCount int             `json:"pending_print_count"`
}

// SummarizeExonerations folds the exoneration records of the given invoices
func SummarizeExonerations(invoices []models.Invoice) ExonerationSummary {
	var summary ExonerationSummary
	for _, inv := range invoices {
		if inv.Exoneration == nil {
			continue
		}
		summary.Count++
		summary.TotalExonerated = summary.TotalExonerated.Add(inv.Exoneration.ExoneratedAmount)
		if inv.Exoneration.IsPrinted {
			summary.PrintedCount++
		} else {
			summary.PendingPrintCount++
		}
	}
	return summary
}

// OutstandingSummary aggregates the money still owed across a mixed
// population of invoices
type OutstandingSummary struct {
	OutstandingTotal decimal.Decimal `json:"outstanding_total"`
	PendingCount     int             `json:"pending_count"`
	PartialCount     int             `json:"partial_count"`
	PaidTotal        decimal.Decimal `json:"paid_total"`
	PaidCount        int             `json:"paid_count"`
}

// SummarizeOutstanding sums what remains to be collected. A PENDING invoice
// contributes its full owed total and a PARTIAL invoice only its remaining
// pending amount, so an invoice is never counted twice.
func SummarizeOutstanding(invoices []models.Invoice) OutstandingSummary {
	var summary OutstandingSummary
	for _, inv := range invoices {
		switch inv.Status {
		case models.InvoiceStatusPending:
			summary.PendingCount++
			summary.OutstandingTotal = summary.OutstandingTotal.Add(inv.TotalOwed())
		case models.InvoiceStatusPartial:
			summary.PartialCount++
			summary.OutstandingTotal = summary.OutstandingTotal.Add(inv.PendingAmount)
		case models.InvoiceStatusPaid:
			summary.PaidCount++
			summary.PaidTotal = summary.PaidTotal.Add(inv.PaidAmount)
		}
	}
	return summary
}

// CountByStatus tallies invoices per status
func CountByStatus(invoices []models.Invoice) map[models.InvoiceStatus]int {
	counts := make(map[models.InvoiceStatus]int)
	for _, inv := range invoices {
		counts[inv.Status]++
	}
	return counts
}
