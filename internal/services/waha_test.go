package services

import "testing"

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "group id unchanged", input: "123456789@g.us", expected: "123456789@g.us"},
		{name: "local number gets country code", input: "081234567890", expected: "6281234567890@c.us"},
		{name: "international number gets suffix", input: "6281234567890", expected: "6281234567890@c.us"},
		{name: "existing suffix preserved", input: "6281234567890@c.us", expected: "6281234567890@c.us"},
		{name: "local number with suffix", input: "081234567890@c.us", expected: "6281234567890@c.us"},
		{name: "surrounding whitespace trimmed", input: "  081234567890  ", expected: "6281234567890@c.us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeChatID(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeChatID(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
