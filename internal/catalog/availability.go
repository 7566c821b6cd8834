// Package catalog provides the read-only view of sellable products.
package catalog

import (
	"strings"

	"bullion-desk/internal/models"
)

// ParseAvailability derives the closed availability enumeration from the
// exchange's sell switch and raw availability text. The sell switch always
// wins: a disabled ask is ASK_OFF regardless of the text.
//
// The second return value reports whether the raw text was recognized.
// Unrecognized strings fall back to NOT_AVAILABLE; the caller should log
// the raw text rather than silently absorb it, since it may mask a new
// legitimate state from the exchange.
func ParseAvailability(sellEnabled bool, raw string) (models.AvailabilityLevel, bool) {
	if !sellEnabled {
		return models.AvailabilityAskOff, true
	}

	switch normalize(raw) {
	case "live", "in stock", "available":
		return models.AvailabilityLive, true
	case "short delay", "1-3 days", "ships in 1-3 days":
		return models.AvailabilityShort, true
	case "medium delay", "4-7 days", "ships in 4-7 days":
		return models.AvailabilityMedium, true
	case "long delay", "2+ weeks", "extended delay":
		return models.AvailabilityLong, true
	case "limited", "limited availability", "low stock":
		return models.AvailabilityLimited, true
	case "delayed", "unknown delay", "delay unknown":
		return models.AvailabilityUnknownDelay, true
	case "not available", "unavailable", "out of stock", "sold out":
		return models.AvailabilityNotAvailable, true
	default:
		return models.AvailabilityNotAvailable, false
	}
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
