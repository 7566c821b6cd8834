package desk

import (
	"context"
	"sync"
	"time"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/exchange"
	"bullion-desk/internal/models"
)

// Gate is the single source of truth for whether the exchange is open to
// trading. Answers are cached for at most maxAge; both the immediate
// execution path and quote execution re-check through the gate at the moment
// of action.
type Gate struct {
	exchange exchange.Exchange
	maxAge   time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cached *models.MarketStatus
}

// NewGate creates a market gate with the given cache tolerance.
func NewGate(ex exchange.Exchange, maxAge time.Duration) *Gate {
	if maxAge <= 0 {
		maxAge = 60 * time.Second
	}
	return &Gate{
		exchange: ex,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Status returns the market status, refreshing from the exchange when the
// cached answer is older than the gate's tolerance.
func (g *Gate) Status(ctx context.Context) (*models.MarketStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cached != nil && g.now().Sub(g.cached.FetchedAt) <= g.maxAge {
		status := *g.cached
		return &status, nil
	}

	status, err := g.exchange.GetMarketStatus(ctx)
	if err != nil {
		return nil, err
	}
	g.cached = status
	out := *status
	return &out, nil
}

// EnsureOpen returns ErrMarketClosed unless the exchange reports open.
func (g *Gate) EnsureOpen(ctx context.Context) error {
	status, err := g.Status(ctx)
	if err != nil {
		return err
	}
	if !status.IsOpen {
		if status.Message != "" {
			return errors.Wrapf(errors.ErrMarketClosed, "%s", status.Message)
		}
		return errors.ErrMarketClosed
	}
	return nil
}
