package desk

import "time"

// Remaining returns how much of the lock window is left at now, clamped to
// zero. The display layer polls this on its own tick; the engine never
// consults it for expiry; wall-clock comparison against ExpiresAt is the
// only authority.
func Remaining(now, expiresAt time.Time) time.Duration {
	if now.After(expiresAt) {
		return 0
	}
	return expiresAt.Sub(now)
}
