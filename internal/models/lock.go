package models

import "time"

// LockStatus represents the state of a price-lock session.
type LockStatus string

const (
	LockStatusLocked    LockStatus = "LOCKED"
	LockStatusExpired   LockStatus = "EXPIRED"
	LockStatusExecuting LockStatus = "EXECUTING"
	LockStatusExecuted  LockStatus = "EXECUTED"
	LockStatusCancelled LockStatus = "CANCELLED"
)

// LockedPrice is a per-SKU price confirmed by the exchange at lock time.
// This is the exchange's own ask, not the marked-up retail figure.
type LockedPrice struct {
	SKU       string
	Quantity  int
	UnitPrice float64
	Extended  float64
}

// LockSession is a short-lived price reservation against the exchange.
// At most one active session exists per draft; re-locking after expiry mints
// a new transaction ID and discards the old lock state entirely.
type LockSession struct {
	TransactionID string // client-minted, unique per lock attempt
	LockToken     string // exchange-issued, opaque
	Prices        []LockedPrice
	TotalCost     float64
	Fulfillment   FulfillmentMethod
	ShipTo        *Address
	Status        LockStatus
	LockedAt      time.Time
	ExpiresAt     time.Time
}

// Expired reports whether the lock window has lapsed at now. Wall-clock
// timestamps are authoritative; any display countdown is advisory only.
func (s *LockSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TradeResult is the durable outcome of an executed trade. A non-empty
// Busted list means partial success, not failure: the confirmation still
// covers the remaining items.
type TradeResult struct {
	TransactionID      string
	ConfirmationNumber string
	Status             string // free-text from exchange
	ShippingOption     string
	Busted             []string // SKUs the exchange could not fill
	ExecutedAt         time.Time
}

// Partial reports whether some locked items were busted at execution.
func (r *TradeResult) Partial() bool {
	return len(r.Busted) > 0
}
