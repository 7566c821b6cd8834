// Package exchange provides wholesale exchange integration implementations.
package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

// SimExchange implements the Exchange interface as an in-memory simulation
// for offline use and operator training. Lock/execute semantics mirror the
// live exchange: locks lapse server-side after their TTL and executing a
// lapsed or unknown token is rejected.
type SimExchange struct {
	products map[string]*models.Product
	locks    map[string]*simLock
	open     bool
	message  string

	// BustSKUs lists SKUs the simulator reports as busted on execution.
	bustSKUs map[string]bool

	lockTTL     time.Duration
	lockCounter int
	confCounter int

	mu sync.RWMutex
}

type simLock struct {
	token     string
	prices    []models.LockedPrice
	totalCost float64
	expiresAt time.Time
}

// SimConfig holds configuration for the simulated exchange.
type SimConfig struct {
	LockTTL  time.Duration
	Open     bool
	BustSKUs []string
}

// NewSimExchange creates a simulated exchange seeded with a small bullion book.
func NewSimExchange(cfg SimConfig) *SimExchange {
	ttl := cfg.LockTTL
	if ttl == 0 {
		ttl = 20 * time.Second
	}

	s := &SimExchange{
		products: make(map[string]*models.Product),
		locks:    make(map[string]*simLock),
		bustSKUs: make(map[string]bool),
		open:     cfg.Open,
		message:  "Simulated exchange",
		lockTTL:  ttl,
	}
	for _, sku := range cfg.BustSKUs {
		s.bustSKUs[sku] = true
	}
	s.seed()
	return s
}

func (s *SimExchange) seed() {
	book := []models.Product{
		{Code: "AGE-1OZ", Description: "American Gold Eagle 1 oz", Metal: models.Gold, Weight: 1, WeightUnit: models.WeightOunce, AskPrice: 2412.50, BidPrice: 2380.00, Availability: "live", SellEnabled: true},
		{Code: "AGB-1OZ", Description: "Gold Bar 1 oz", Metal: models.Gold, Weight: 1, WeightUnit: models.WeightOunce, AskPrice: 2398.75, BidPrice: 2370.10, Availability: "short delay", SellEnabled: true},
		{Code: "KRG-1OZ", Description: "Krugerrand 1 oz", Metal: models.Gold, Weight: 1, WeightUnit: models.WeightOunce, AskPrice: 2405.00, BidPrice: 2376.00, Availability: "limited", SellEnabled: true},
		{Code: "ASE-1OZ", Description: "American Silver Eagle 1 oz", Metal: models.Silver, Weight: 1, WeightUnit: models.WeightOunce, AskPrice: 31.45, BidPrice: 29.80, Availability: "live", SellEnabled: true},
		{Code: "SLB-100OZ", Description: "Silver Bar 100 oz", Metal: models.Silver, Weight: 100, WeightUnit: models.WeightOunce, AskPrice: 3020.00, BidPrice: 2950.00, Availability: "medium delay", SellEnabled: true},
		{Code: "PLE-1OZ", Description: "Platinum Eagle 1 oz", Metal: models.Platinum, Weight: 1, WeightUnit: models.WeightOunce, AskPrice: 1015.25, BidPrice: 990.00, Availability: "long delay", SellEnabled: true},
		{Code: "PDB-1OZ", Description: "Palladium Bar 1 oz", Metal: models.Palladium, Weight: 1, WeightUnit: models.WeightOunce, AskPrice: 960.00, BidPrice: 930.00, Availability: "not available", SellEnabled: true},
		{Code: "AGP-1OZ", Description: "Gold Proof Coin 1 oz", Metal: models.Gold, Weight: 1, WeightUnit: models.WeightOunce, AskPrice: 0, BidPrice: 2400.00, Availability: "live", SellEnabled: false},
	}
	for i := range book {
		p := book[i]
		s.products[p.Code] = &p
	}
}

// SetOpen toggles the simulated market gate.
func (s *SimExchange) SetOpen(open bool, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
	s.message = message
}

// SetSellEnabled toggles the sell switch for a SKU.
func (s *SimExchange) SetSellEnabled(sku string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[sku]; ok {
		p.SellEnabled = enabled
	}
}

// GetMarketStatus reports the simulated gate state.
func (s *SimExchange) GetMarketStatus(ctx context.Context) (*models.MarketStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.MarketStatus{
		IsOpen:    s.open,
		Message:   s.message,
		FetchedAt: time.Now(),
	}, nil
}

// GetProductsByMetal returns the seeded book for a metal.
func (s *SimExchange) GetProductsByMetal(ctx context.Context, metal models.Metal) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var products []models.Product
	for _, p := range s.products {
		if p.Metal == metal {
			products = append(products, *p)
		}
	}
	return products, nil
}

// GetProductPrice returns current sellability and pricing for a SKU.
func (s *SimExchange) GetProductPrice(ctx context.Context, sku string) (*ProductPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[sku]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "sku %s", sku)
	}
	return &ProductPrice{
		SKU:         p.Code,
		SellEnabled: p.SellEnabled,
		AskPrice:    p.AskPrice,
		BidPrice:    p.BidPrice,
	}, nil
}

// LockPrices reserves current asks for the requested items.
func (s *SimExchange) LockPrices(ctx context.Context, req LockRequest) (*LockResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, errors.NewExchangeError("LockPrices", "MARKET_CLOSED", "market is closed", errors.ErrMarketClosed)
	}

	var prices []models.LockedPrice
	var total float64
	for _, item := range req.Items {
		p, ok := s.products[item.SKU]
		if !ok {
			return nil, errors.NewExchangeError("LockPrices", "UNKNOWN_SKU", item.SKU, nil)
		}
		if !p.SellEnabled || p.AskPrice <= 0 {
			return nil, errors.NewExchangeError("LockPrices", "NOT_SELLABLE", item.SKU, nil)
		}
		extended := p.AskPrice * float64(item.Quantity)
		prices = append(prices, models.LockedPrice{
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: p.AskPrice,
			Extended:  extended,
		})
		total += extended
	}

	s.lockCounter++
	token := fmt.Sprintf("SIMLOCK-%d-%d", time.Now().Unix(), s.lockCounter)
	s.locks[token] = &simLock{
		token:     token,
		prices:    prices,
		totalCost: total,
		expiresAt: time.Now().Add(s.lockTTL),
	}

	return &LockResponse{
		TransactionID: req.TransactionID,
		LockToken:     token,
		Prices:        prices,
		TotalCost:     total,
	}, nil
}

// ExecuteTrade confirms a lock if its server-side TTL has not lapsed.
func (s *SimExchange) ExecuteTrade(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[req.LockToken]
	if !ok {
		return nil, errors.NewExchangeError("ExecuteTrade", "UNKNOWN_LOCK", req.LockToken, nil)
	}
	if time.Now().After(lock.expiresAt) {
		delete(s.locks, req.LockToken)
		return nil, errors.NewExchangeError("ExecuteTrade", "LOCK_LAPSED", req.LockToken, nil)
	}
	delete(s.locks, req.LockToken)

	var busted []string
	for _, p := range lock.prices {
		if s.bustSKUs[p.SKU] {
			busted = append(busted, p.SKU)
		}
	}

	s.confCounter++
	return &ExecuteResponse{
		Status:             "EXECUTED",
		ConfirmationNumber: fmt.Sprintf("SIM-%06d", s.confCounter),
		TransactionID:      req.TransactionID,
		ShippingOption:     req.ShippingOption,
		BustedItems:        busted,
	}, nil
}
