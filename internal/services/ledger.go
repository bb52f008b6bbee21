package services

import (
	"github.com/shopspring/decimal"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

// paymentTolerance absorbs cent drift when comparing the paid total against
// the owed total: an invoice paid to within 0.01 counts as settled.
var paymentTolerance = decimal.New(1, -moneyPlaces)

// RecomputeLedger derives PaidAmount, PendingAmount and Status on the invoice
// from its payments and exoneration record. The invoice's Payments and
// Exoneration must be loaded. Idempotent: recomputing with the same inputs
// yields the same result, and PaidAmount can only grow because payments are
// append-only.
//
// Status priority: EXONERATED, then CANCELLED, then the paid-derived states.
func RecomputeLedger(inv *models.Invoice) {
	paid := decimal.Zero
	for _, p := range inv.Payments {
		if p.DeletedAt.Valid {
			continue
		}
		paid = paid.Add(p.Amount)
	}
	paid = paid.Round(moneyPlaces)
	owed := inv.TotalOwed().Round(moneyPlaces)

	inv.PaidAmount = paid
	pending := owed.Sub(paid)

	switch {
	case inv.Exoneration != nil:
		inv.Status = models.InvoiceStatusExonerated
		pending = pending.Sub(inv.Exoneration.ExoneratedAmount)
	case inv.Status == models.InvoiceStatusCancelled:
		// manual void is sticky; the remaining balance stays informational
	case owed.Sign() <= 0:
		// degenerate invoice with nothing owed settles immediately
		inv.Status = models.InvoiceStatusPaid
	case pending.LessThanOrEqual(paymentTolerance):
		inv.Status = models.InvoiceStatusPaid
	case paid.Sign() > 0:
		inv.Status = models.InvoiceStatusPartial
	default:
		inv.Status = models.InvoiceStatusPending
	}

	// Overpayment is absorbed: pending floors at zero and a settled invoice
	// reports a clean 0.00 remainder.
	if pending.Sign() < 0 || inv.Status == models.InvoiceStatusPaid {
		pending = decimal.Zero
	}
	inv.PendingAmount = pending.Round(moneyPlaces)
}
