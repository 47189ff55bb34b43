package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already international", "+254712345678", "+254712345678"},
		{"international without plus", "254712345678", "+254712345678"},
		{"local with leading zero", "0712345678", "+254712345678"},
		{"bare nine digits", "712345678", "+254712345678"},
		{"formatted with spaces and dashes", "+254 712-345-678", "+254712345678"},
		{"whatsapp wa_id form", "254712345678", "+254712345678"},
		{"non-kenyan number passes through", "14155550123", "+14155550123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizePhoneNumber(tt.input))
		})
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.True(t, ValidatePhoneNumber("+254712345678"))
	assert.True(t, ValidatePhoneNumber("0712345678"))
	assert.True(t, ValidatePhoneNumber("712345678"))

	assert.False(t, ValidatePhoneNumber("+14155550123"))
	assert.False(t, ValidatePhoneNumber("25471234"))
	assert.False(t, ValidatePhoneNumber(""))
}

func TestValidateBusinessInput(t *testing.T) {
	sanitized, ok := ValidateBusinessInput("  I want to start a restaurant  ")
	assert.True(t, ok)
	assert.Equal(t, "I want to start a restaurant", sanitized)

	_, ok = ValidateBusinessInput("hi")
	assert.False(t, ok, "below minimum length")

	_, ok = ValidateBusinessInput(strings.Repeat("a", 1001))
	assert.False(t, ok, "above maximum length")

	_, ok = ValidateBusinessInput("check this <script>alert(1)</script>")
	assert.False(t, ok, "script injection rejected")

	_, ok = ValidateBusinessInput("click javascript:void(0)")
	assert.False(t, ok)

	sanitized, ok = ValidateBusinessInput(strings.Repeat("a", 1000))
	assert.True(t, ok, "exactly at maximum length")
	assert.Len(t, sanitized, 1000)
}
