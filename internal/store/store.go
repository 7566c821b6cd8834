// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"bullion-desk/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Quotes
	SaveQuote(ctx context.Context, quote *models.Quote) error
	GetQuote(ctx context.Context, id string) (*models.Quote, error)
	GetQuoteByReference(ctx context.Context, reference string) (*models.Quote, error)
	GetPendingQuotes(ctx context.Context) ([]models.Quote, error)
	MarkQuoteExecuted(ctx context.Context, id, confirmation string, at time.Time) error
	MarkQuoteExpired(ctx context.Context, id string) error

	// Trade ledger
	RecordTrade(ctx context.Context, rec models.TradeRecord) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error)
	GetTradeByTransaction(ctx context.Context, transactionID string) (*models.TradeRecord, error)

	// Customer directory (read-mostly lookup)
	SearchCustomers(ctx context.Context, query string) ([]models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	AddCustomer(ctx context.Context, c *models.Customer) error

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying the trade ledger.
type TradeFilter struct {
	Source    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
