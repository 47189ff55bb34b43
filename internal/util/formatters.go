package util

import (
	"fmt"
	"strconv"
	"strings"

	"sokolink-advisor/internal/domain/dto"
)

// WhatsAppMaxMessageLength is the Graph API limit for a single text message.
const WhatsAppMaxMessageLength = 4096

// FormatCurrency renders an amount with thousands grouping, e.g. "KSh 12,500".
func FormatCurrency(amount int, currency string) string {
	if currency == "" || currency == "KES" {
		return "KSh " + groupThousands(amount)
	}
	return currency + " " + groupThousands(amount)
}

func groupThousands(amount int) string {
	s := strconv.Itoa(amount)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// FormatDuration renders a day count as a human-readable phrase
// ("3 days", "2 weeks and 1 day", "1 month").
func FormatDuration(days int) string {
	switch {
	case days <= 1:
		return "1 day"
	case days < 7:
		return fmt.Sprintf("%d days", days)
	case days < 30:
		return formatUnits(days, 7, "week")
	case days < 365:
		return formatUnits(days, 30, "month")
	default:
		return formatUnits(days, 365, "year")
	}
}

func formatUnits(days, unitDays int, unit string) string {
	units := days / unitDays
	remaining := days % unitDays

	out := fmt.Sprintf("%d %s", units, plural(unit, units))
	if remaining > 0 {
		out += fmt.Sprintf(" and %d %s", remaining, plural("day", remaining))
	}
	return out
}

func plural(word string, n int) string {
	if n > 1 {
		return word + "s"
	}
	return word
}

// FormatAdvisoryMessage renders a full advisory as WhatsApp text.
func FormatAdvisoryMessage(response dto.AdvisoryResponse) string {
	var parts []string

	parts = append(parts, "🏢 *Sokolink Compliance Advisor*", "")

	if response.BusinessType != "" {
		parts = append(parts, fmt.Sprintf("📋 *Business Type:* %s", response.BusinessType))
	}
	if response.BusinessScale != "" {
		parts = append(parts, fmt.Sprintf("📏 *Scale:* %s", response.BusinessScale))
	}
	if response.Location != "" {
		parts = append(parts, fmt.Sprintf("📍 *Location:* %s", response.Location))
	}
	parts = append(parts, "")

	parts = append(parts,
		"📊 *Compliance Summary:*",
		fmt.Sprintf("💰 Total Cost: %s", FormatCurrency(response.TotalEstimatedCost, "KES")),
		fmt.Sprintf("⏱️ Total Time: %s", FormatDuration(response.TotalTimelineDays)),
		"",
		"📝 *Required Steps:*",
	)

	for i, step := range response.ComplianceSteps {
		parts = append(parts,
			"",
			fmt.Sprintf("*%d. %s*", i+1, step.Title),
			fmt.Sprintf("   %s", step.Description),
			fmt.Sprintf("   💰 Cost: %s", FormatCurrency(step.Cost, "KES")),
			fmt.Sprintf("   ⏱️ Time: %s", FormatDuration(step.TimelineDays)),
			fmt.Sprintf("   🏛️ Authority: %s", step.Authority),
		)
		if len(step.DocumentsRequired) > 0 {
			parts = append(parts, fmt.Sprintf("   📄 Documents: %s", strings.Join(step.DocumentsRequired, ", ")))
		}
	}

	if response.AdditionalNotes != "" {
		parts = append(parts, "", "💡 *Additional Notes:*", response.AdditionalNotes)
	}

	parts = append(parts,
		"",
		"Need more help? Reply with your questions!",
		"",
		"_Powered by Sokolink & IBM Watsonx_",
	)

	return strings.Join(parts, "\n")
}

// SplitLongMessage splits a message into chunks no longer than maxLength,
// preferring paragraph boundaries, then line boundaries, then a hard split.
func SplitLongMessage(message string, maxLength int) []string {
	if len(message) <= maxLength {
		return []string{message}
	}

	var chunks []string
	current := ""

	for _, paragraph := range strings.Split(message, "\n\n") {
		if len(current)+len(paragraph)+2 <= maxLength {
			if current != "" {
				current += "\n\n" + paragraph
			} else {
				current = paragraph
			}
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}

		if len(paragraph) <= maxLength {
			current = paragraph
			continue
		}

		for _, line := range strings.Split(paragraph, "\n") {
			if len(current)+len(line)+1 <= maxLength {
				if current != "" {
					current += "\n" + line
				} else {
					current = line
				}
				continue
			}

			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}

			for len(line) > maxLength {
				chunks = append(chunks, line[:maxLength])
				line = line[maxLength:]
			}
			current = line
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// FormatErrorMessage renders an apology with an error code.
func FormatErrorMessage(errorCode, errorMessage string) string {
	return fmt.Sprintf("❌ *Error %s*\n\n%s\n\nPlease try again or contact support if the issue persists.",
		errorCode, errorMessage)
}

// FormatWelcomeMessage is sent to users starting a new session.
func FormatWelcomeMessage() string {
	return `🏢 *Welcome to Sokolink Compliance Advisor!*

I'm here to help you navigate Kenya's business compliance requirements.

📝 *How to get started:*
1. Tell me about your business type
2. Share your business location
3. Describe what you want to do

I'll provide you with:
✅ Step-by-step compliance guide
✅ Cost estimates
✅ Timeline information
✅ Contact details for authorities

*Example:* "I want to start a small restaurant in Nairobi"

What business are you planning to start?`
}

// FormatHelpMessage is sent in response to the HELP command.
func FormatHelpMessage() string {
	return `🆘 *Sokolink Help*

*Available Commands:*
• Send any message about your business
• Type 'HELP' for this message
• Type 'START' to begin a new session

*Tips:*
• Be specific about your business type
• Include your location (county/town)
• Mention your business scale (small/medium/large)

*Example Messages:*
• "I want to start a small shop in Mombasa"
• "How do I register a restaurant business?"
• "What permits do I need for a salon?"

Need more help? Just ask! 😊`
}
