package models

import "time"

// TradeRecord is the durable ledger entry for an executed or partially
// executed trade. Only filled lines are counted; busted SKUs are kept for
// manual reconciliation.
type TradeRecord struct {
	TransactionID      string
	ConfirmationNumber string
	Source             string // "desk" or "quote"
	Reference          string
	CustomerName       string
	Fulfillment        FulfillmentMethod
	Filled             []LockedPrice
	Busted             []string
	TotalCost          float64
	ExecutedAt         time.Time
}
