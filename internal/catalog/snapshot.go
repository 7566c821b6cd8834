package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"bullion-desk/internal/exchange"
	"bullion-desk/internal/models"
)

// Snapshot is an immutable view of the sellable catalog for one metal.
// Refreshed wholesale on demand, never patched field-by-field.
type Snapshot struct {
	Metal     models.Metal
	Products  []models.Product
	FetchedAt time.Time

	byCode map[string]int
}

// Loader fetches catalog snapshots from the exchange and derives the
// availability enumeration at load time.
type Loader struct {
	exchange exchange.Exchange
	logger   zerolog.Logger
}

// NewLoader creates a catalog snapshot loader.
func NewLoader(ex exchange.Exchange, logger zerolog.Logger) *Loader {
	return &Loader{
		exchange: ex,
		logger:   logger,
	}
}

// Load fetches a fresh snapshot for a metal. Each product's availability
// level is derived once here so downstream logic works on a closed enum,
// not raw exchange strings.
func (l *Loader) Load(ctx context.Context, metal models.Metal) (*Snapshot, error) {
	products, err := l.exchange.GetProductsByMetal(ctx, metal)
	if err != nil {
		return nil, err
	}

	for i := range products {
		level, recognized := ParseAvailability(products[i].SellEnabled, products[i].Availability)
		if !recognized {
			l.logger.Warn().
				Str("sku", products[i].Code).
				Str("availability", products[i].Availability).
				Msg("Unrecognized availability text, treating as not available")
		}
		products[i].Level = level
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].Code < products[j].Code
	})

	snap := &Snapshot{
		Metal:     metal,
		Products:  products,
		FetchedAt: time.Now(),
		byCode:    make(map[string]int, len(products)),
	}
	for i, p := range snap.Products {
		snap.byCode[p.Code] = i
	}
	return snap, nil
}

// Lookup returns the product for a SKU, or nil if the snapshot does not
// contain it.
func (s *Snapshot) Lookup(sku string) *models.Product {
	if s == nil {
		return nil
	}
	if i, ok := s.byCode[sku]; ok {
		return &s.Products[i]
	}
	return nil
}

// Purchasable returns the subset of the snapshot that may be added to an
// invoice.
func (s *Snapshot) Purchasable() []models.Product {
	var out []models.Product
	for _, p := range s.Products {
		if p.Level.Purchasable() {
			out = append(out, p)
		}
	}
	return out
}
