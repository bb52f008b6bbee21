package services

import "testing"

func TestGatewayChargeAmountCoversBalance(t *testing.T) {
	tests := []struct {
		name     string
		pending  string
		expected int64
	}{
		{name: "whole amount unchanged", pending: "500.00", expected: 500},
		{name: "sub unit residue rounds up", pending: "500.49", expected: 501},
		{name: "large fraction rounds up", pending: "500.51", expected: 501},
		{name: "cent residue still charges a unit", pending: "0.01", expected: 1},
		{name: "zero stays zero", pending: "0.00", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gatewayChargeAmount(d(tt.pending))
			if got != tt.expected {
				t.Errorf("gatewayChargeAmount(%s) = %d, expected %d", tt.pending, got, tt.expected)
			}
		})
	}
}

func TestInvoiceIDFromOrderID(t *testing.T) {
	tests := []struct {
		name      string
		orderID   string
		expected  uint
		expectErr bool
	}{
		{name: "valid order id", orderID: "invoice-42-1735689600", expected: 42},
		{name: "large invoice id", orderID: "invoice-100000-1735689600", expected: 100000},
		{name: "wrong prefix", orderID: "refund-42-1735689600", expectErr: true},
		{name: "missing timestamp", orderID: "invoice-42", expectErr: true},
		{name: "non numeric id", orderID: "invoice-abc-1735689600", expectErr: true},
		{name: "empty string", orderID: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := InvoiceIDFromOrderID(tt.orderID)
			if tt.expectErr {
				if err == nil {
					t.Errorf("InvoiceIDFromOrderID(%q) expected an error, got id %d", tt.orderID, id)
				}
				return
			}
			if err != nil {
				t.Fatalf("InvoiceIDFromOrderID(%q) unexpected error: %v", tt.orderID, err)
			}
			if id != tt.expected {
				t.Errorf("InvoiceIDFromOrderID(%q) = %d, expected %d", tt.orderID, id, tt.expected)
			}
		})
	}
}
