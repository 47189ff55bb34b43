package util

import (
	"strings"

	"sokolink-advisor/internal/domain/entities"
)

// Keyword tables for pulling business attributes out of free text. Simple by
// design: the orchestration agent does the real understanding, this only
// seeds the session context. Order matters: the first matching type wins.
var businessTypeKeywords = []struct {
	businessType string
	keywords     []string
}{
	{"restaurant", []string{"restaurant", "food", "cafe", "hotel", "catering"}},
	{"retail", []string{"shop", "store", "retail", "selling", "merchandise"}},
	{"salon", []string{"salon", "beauty", "hair", "spa", "barber"}},
	{"construction", []string{"construction", "building", "contractor", "renovation"}},
	{"transport", []string{"transport", "logistics", "delivery", "truck", "taxi"}},
	{"manufacturing", []string{"manufacturing", "production", "factory", "processing"}},
	{"services", []string{"services", "consulting", "professional", "agency"}},
}

var kenyanCounties = []string{
	"nairobi", "mombasa", "kisumu", "nakuru", "eldoret", "thika", "malindi",
	"kitale", "garissa", "kakamega", "kisii", "meru", "nyeri", "machakos",
}

// ExtractBusinessInfo pulls business_type, business_scale and location
// keywords from a user message into a context patch.
func ExtractBusinessInfo(message string) entities.ContextMap {
	info := entities.ContextMap{}
	lowered := strings.ToLower(message)

	for _, entry := range businessTypeKeywords {
		if containsAny(lowered, entry.keywords...) {
			info["business_type"] = entry.businessType
			break
		}
	}

	switch {
	case containsAny(lowered, "small", "micro", "tiny"):
		info["business_scale"] = "small"
	case containsAny(lowered, "medium", "mid"):
		info["business_scale"] = "medium"
	case containsAny(lowered, "large", "big", "major"):
		info["business_scale"] = "large"
	default:
		info["business_scale"] = "small"
	}

	for _, county := range kenyanCounties {
		if strings.Contains(lowered, county) {
			info["location"] = strings.ToUpper(county[:1]) + county[1:]
			break
		}
	}

	return info
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
