package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBusinessInfo(t *testing.T) {
	info := ExtractBusinessInfo("I want to start a small restaurant in Nairobi")

	assert.Equal(t, "restaurant", info["business_type"])
	assert.Equal(t, "small", info["business_scale"])
	assert.Equal(t, "Nairobi", info["location"])
}

func TestExtractBusinessInfoDefaults(t *testing.T) {
	info := ExtractBusinessInfo("What do I need to get started?")

	assert.NotContains(t, info, "business_type")
	assert.Equal(t, "small", info["business_scale"], "scale defaults to small")
	assert.NotContains(t, info, "location")
}

func TestExtractBusinessInfoFirstTypeWins(t *testing.T) {
	// "restaurant" is checked before "retail", so a message mentioning both
	// resolves deterministically.
	info := ExtractBusinessInfo("a restaurant with a small shop attached")
	assert.Equal(t, "restaurant", info["business_type"])
}

func TestExtractBusinessInfoScales(t *testing.T) {
	assert.Equal(t, "medium", ExtractBusinessInfo("a medium bakery")["business_scale"])
	assert.Equal(t, "large", ExtractBusinessInfo("a big warehouse operation")["business_scale"])
	assert.Equal(t, "small", ExtractBusinessInfo("a micro enterprise")["business_scale"])
}

func TestExtractBusinessInfoLocation(t *testing.T) {
	info := ExtractBusinessInfo("open a salon in MOMBASA town")
	assert.Equal(t, "Mombasa", info["location"])
	assert.Equal(t, "salon", info["business_type"])
}
