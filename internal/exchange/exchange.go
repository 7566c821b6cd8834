// Package exchange provides wholesale exchange integration interfaces and implementations.
package exchange

import (
	"context"

	"bullion-desk/internal/models"
)

// Exchange defines the interface for wholesale exchange operations.
// The wire contract belongs to the exchange; callers treat it as a black box.
type Exchange interface {
	// Market
	GetMarketStatus(ctx context.Context) (*models.MarketStatus, error)

	// Catalog
	GetProductsByMetal(ctx context.Context, metal models.Metal) ([]models.Product, error)
	GetProductPrice(ctx context.Context, sku string) (*ProductPrice, error)

	// Trading
	LockPrices(ctx context.Context, req LockRequest) (*LockResponse, error)
	ExecuteTrade(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error)
}

// ProductPrice is the current sellability and pricing for a single SKU.
type ProductPrice struct {
	SKU         string
	SellEnabled bool
	AskPrice    float64
	BidPrice    float64
}

// LockItem is a single line of a lock request.
type LockItem struct {
	SKU      string
	Quantity int
	Side     models.OrderSide
}

// LockRequest reserves prices for a set of items under a client-minted
// transaction ID.
type LockRequest struct {
	TransactionID string
	Items         []LockItem
}

// LockResponse is the exchange's confirmation of a price reservation.
// Prices are the exchange's own asks, not retail figures.
type LockResponse struct {
	TransactionID string
	LockToken     string
	Prices        []models.LockedPrice
	TotalCost     float64
}

// ExecuteRequest confirms a previously locked trade.
type ExecuteRequest struct {
	TransactionID   string
	LockToken       string
	ReferenceNumber string
	ShippingOption  string
	DropShip        *models.Address // only for ship-to-customer
}

// ExecuteResponse is the exchange's definitive answer to an execute call.
// A non-empty BustedItems list is a partial fill, not a failure.
type ExecuteResponse struct {
	Status             string
	ConfirmationNumber string
	TransactionID      string
	ShippingOption     string
	BustedItems        []string
}
