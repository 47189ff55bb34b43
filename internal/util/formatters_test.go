package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sokolink-advisor/internal/domain/dto"
)

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "KSh 0", FormatCurrency(0, "KES"))
	assert.Equal(t, "KSh 500", FormatCurrency(500, ""))
	assert.Equal(t, "KSh 12,500", FormatCurrency(12500, "KES"))
	assert.Equal(t, "KSh 1,250,000", FormatCurrency(1250000, "KES"))
	assert.Equal(t, "USD 1,000", FormatCurrency(1000, "USD"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "1 day"},
		{1, "1 day"},
		{3, "3 days"},
		{7, "1 week"},
		{10, "1 week and 3 days"},
		{14, "2 weeks"},
		{30, "1 month"},
		{45, "1 month and 15 days"},
		{90, "3 months"},
		{365, "1 year"},
		{400, "1 year and 35 days"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.days), "days=%d", tt.days)
	}
}

func TestFormatAdvisoryMessage(t *testing.T) {
	response := dto.AdvisoryResponse{
		Success:       true,
		BusinessType:  "restaurant",
		BusinessScale: "small",
		Location:      "Nairobi",
		ComplianceSteps: []dto.ComplianceStep{
			{
				StepNumber:        1,
				Title:             "Business Registration",
				Description:       "Register your business name",
				Cost:              1000,
				TimelineDays:      3,
				Authority:         "Registrar of Companies",
				DocumentsRequired: []string{"ID copy", "KRA PIN"},
			},
			{
				StepNumber:   2,
				Title:        "Health Permit",
				Description:  "Obtain a food handling permit",
				Cost:         3000,
				TimelineDays: 14,
				Authority:    "County Health Department",
			},
		},
		TotalEstimatedCost: 4000,
		TotalTimelineDays:  17,
		AdditionalNotes:    "Renew annually.",
	}

	message := FormatAdvisoryMessage(response)

	assert.Contains(t, message, "Sokolink Compliance Advisor")
	assert.Contains(t, message, "*Business Type:* restaurant")
	assert.Contains(t, message, "*Location:* Nairobi")
	assert.Contains(t, message, "Total Cost: KSh 4,000")
	assert.Contains(t, message, "*1. Business Registration*")
	assert.Contains(t, message, "*2. Health Permit*")
	assert.Contains(t, message, "Documents: ID copy, KRA PIN")
	assert.Contains(t, message, "Renew annually.")
	assert.Contains(t, message, "Powered by Sokolink")
}

func TestSplitLongMessageShortPassthrough(t *testing.T) {
	chunks := SplitLongMessage("short message", WhatsAppMaxMessageLength)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short message", chunks[0])
}

func TestSplitLongMessageParagraphs(t *testing.T) {
	para := strings.Repeat("x", 60)
	message := para + "\n\n" + para + "\n\n" + para

	chunks := SplitLongMessage(message, 130)

	require.Len(t, chunks, 2)
	assert.Equal(t, para+"\n\n"+para, chunks[0])
	assert.Equal(t, para, chunks[1])
}

func TestSplitLongMessageHardSplit(t *testing.T) {
	message := strings.Repeat("y", 250)

	chunks := SplitLongMessage(message, 100)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)
	assert.Equal(t, message, strings.Join(chunks, ""))
}

func TestSplitLongMessageNeverExceedsLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("line content ", 10))
		b.WriteString("\n")
		if i%5 == 0 {
			b.WriteString("\n")
		}
	}

	for _, chunk := range SplitLongMessage(b.String(), 300) {
		assert.LessOrEqual(t, len(chunk), 300)
	}
}

func TestFormatErrorMessage(t *testing.T) {
	message := FormatErrorMessage("PROCESSING_ERROR", "Something went wrong.")
	assert.Contains(t, message, "PROCESSING_ERROR")
	assert.Contains(t, message, "Something went wrong.")
}
