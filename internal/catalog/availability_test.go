package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bullion-desk/internal/models"
)

func TestParseAvailabilitySellSwitchWins(t *testing.T) {
	// A disabled sell switch is ASK_OFF no matter what the text says.
	for _, raw := range []string{"Live", "In Stock", "Not Available", "anything", ""} {
		level, recognized := ParseAvailability(false, raw)
		assert.Equal(t, models.AvailabilityAskOff, level, "raw=%q", raw)
		assert.True(t, recognized)
	}
}

func TestParseAvailabilityRecognizedText(t *testing.T) {
	tests := []struct {
		raw  string
		want models.AvailabilityLevel
	}{
		{"Live", models.AvailabilityLive},
		{"in stock", models.AvailabilityLive},
		{"AVAILABLE", models.AvailabilityLive},
		{"Short Delay", models.AvailabilityShort},
		{"ships in 1-3 days", models.AvailabilityShort},
		{"Medium Delay", models.AvailabilityMedium},
		{"4-7 days", models.AvailabilityMedium},
		{"Long Delay", models.AvailabilityLong},
		{"2+ weeks", models.AvailabilityLong},
		{"Limited", models.AvailabilityLimited},
		{"low stock", models.AvailabilityLimited},
		{"Delayed", models.AvailabilityUnknownDelay},
		{"unknown delay", models.AvailabilityUnknownDelay},
		{"Not Available", models.AvailabilityNotAvailable},
		{"sold out", models.AvailabilityNotAvailable},
		{"  live  ", models.AvailabilityLive}, // whitespace tolerated
	}

	for _, tt := range tests {
		level, recognized := ParseAvailability(true, tt.raw)
		assert.Equal(t, tt.want, level, "raw=%q", tt.raw)
		assert.True(t, recognized, "raw=%q", tt.raw)
	}
}

func TestParseAvailabilityUnrecognizedFallsBack(t *testing.T) {
	for _, raw := range []string{"", "back in 2 moons", "call desk", "???"} {
		level, recognized := ParseAvailability(true, raw)
		assert.Equal(t, models.AvailabilityNotAvailable, level, "raw=%q", raw)
		assert.False(t, recognized, "raw=%q", raw)
	}
}

func TestPurchasableLevels(t *testing.T) {
	purchasable := []models.AvailabilityLevel{
		models.AvailabilityLive,
		models.AvailabilityShort,
		models.AvailabilityMedium,
		models.AvailabilityLong,
		models.AvailabilityLimited,
	}
	blocked := []models.AvailabilityLevel{
		models.AvailabilityAskOff,
		models.AvailabilityUnknownDelay,
		models.AvailabilityNotAvailable,
	}

	for _, level := range purchasable {
		assert.True(t, level.Purchasable(), "level=%s", level)
	}
	for _, level := range blocked {
		assert.False(t, level.Purchasable(), "level=%s", level)
	}
}
