package cli

import (
	"fmt"
	"time"

	"bullion-desk/internal/models"
)

// FormatUSD formats a dollar amount with thousands separators.
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	whole := int64(amount)
	cents := int64(amount*100+0.5) - whole*100
	if cents >= 100 {
		whole++
		cents -= 100
	}
	s := fmt.Sprintf("%d", whole)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	out := fmt.Sprintf("$%s.%02d", s, cents)
	if negative {
		return "-" + out
	}
	return out
}

// FormatPercent formats a markup percentage, e.g. "3.00%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatCountdown renders a lock countdown like "14s" or "expired".
func FormatCountdown(remaining time.Duration) string {
	if remaining <= 0 {
		return "expired"
	}
	return fmt.Sprintf("%ds", int(remaining.Seconds()+0.999))
}

// FormatTime renders a timestamp in local time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// availabilityBadge picks the display color for an availability badge.
func (o *Output) availabilityBadge(level models.AvailabilityLevel) string {
	badge := level.Badge()
	switch level {
	case models.AvailabilityLive:
		return o.Green(badge)
	case models.AvailabilityShort, models.AvailabilityMedium, models.AvailabilityLong, models.AvailabilityLimited:
		return o.Yellow(badge)
	default:
		return o.Red(badge)
	}
}
