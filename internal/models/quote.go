package models

import "time"

// QuoteStatus represents the lifecycle state of a saved quote.
// Once a quote leaves PENDING the state is terminal.
type QuoteStatus string

const (
	QuotePending  QuoteStatus = "PENDING"
	QuoteExecuted QuoteStatus = "EXECUTED"
	QuoteExpired  QuoteStatus = "EXPIRED"
)

// Quote is a saved, deferred offer with its own expiry, independent of the
// short price-lock window. Items are frozen copies of the draft lines: cost
// basis and retail price are fixed at save time.
type Quote struct {
	ID          string
	Reference   string // external, human-shown
	Customer    Customer
	Fulfillment FulfillmentMethod
	ShipTo      *Address
	Items       []LineItem
	Subtotal    float64
	Markup      float64
	Total       float64
	Notes       string
	Status      QuoteStatus
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ExecutedAt  *time.Time
}

// Expired reports whether the quote's offer window has lapsed at now.
// Stored status is not consulted: a time-expired quote may still be
// PENDING in the store.
func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
