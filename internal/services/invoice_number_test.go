package services

import "testing"

func TestFormatInvoiceNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{name: "first number", input: 1, expected: "INV-00000001"},
		{name: "mid range", input: 42, expected: "INV-00000042"},
		{name: "large value", input: 12345678, expected: "INV-12345678"},
		{name: "beyond padding width", input: 123456789, expected: "INV-123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatInvoiceNumber(tt.input)
			if result != tt.expected {
				t.Errorf("FormatInvoiceNumber(%d) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
