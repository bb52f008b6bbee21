package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestInvoiceStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   InvoiceStatus
		terminal bool
	}{
		{InvoiceStatusPending, false},
		{InvoiceStatusPartial, false},
		{InvoiceStatusPaid, false},
		{InvoiceStatusCancelled, true},
		{InvoiceStatusExonerated, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, expected %v", tt.status, got, tt.terminal)
		}
	}
}

func TestInvoiceStatusValid(t *testing.T) {
	for _, s := range []InvoiceStatus{InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusExonerated} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false, expected true", s)
		}
	}
	for _, s := range []InvoiceStatus{"", "pending", "REFUNDED"} {
		if s.Valid() {
			t.Errorf("%q.Valid() = true, expected false", s)
		}
	}
}

func TestInvoiceTotalOwed(t *testing.T) {
	inv := Invoice{TotalAmount: decimal.RequireFromString("1000.00")}
	if !inv.TotalOwed().Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("TotalOwed() without snapshot = %s, expected the raw total", inv.TotalOwed())
	}

	inv.InsuranceCalculation = &InsuranceCalculation{
		TotalPatientPays: decimal.RequireFromString("400.00"),
	}
	if !inv.TotalOwed().Equal(decimal.RequireFromString("400.00")) {
		t.Errorf("TotalOwed() with snapshot = %s, expected the patient share", inv.TotalOwed())
	}
}
