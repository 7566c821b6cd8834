// Package quotes provides the deferred-quote lifecycle: saving a draft as an
// expiring offer and executing it later against the exchange.
package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bullion-desk/internal/desk"
	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
	"bullion-desk/internal/store"
)

// Service implements the quote store rules over the persistence layer and
// the desk engine's lock+execute primitive.
type Service struct {
	store  store.DataStore
	engine *desk.Engine
	logger zerolog.Logger
	ttl    time.Duration

	// injectable for tests
	now   func() time.Time
	newID func() string
}

// NewService creates a quote service. ttl is the exchange-defined offer
// window for saved quotes.
func NewService(ds store.DataStore, engine *desk.Engine, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Service{
		store:  ds,
		engine: engine,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Save freezes a non-empty draft with an assigned customer into a pending
// quote. Line cost basis and retail prices are fixed at save time. The
// caller owns clearing the draft afterwards.
func (s *Service) Save(ctx context.Context, draft *desk.Draft) (*models.Quote, error) {
	if draft.Empty() {
		return nil, errors.ErrEmptyDraft
	}
	customer := draft.Customer()
	if customer == nil {
		return nil, errors.ErrMissingCustomer
	}

	now := s.now()
	subtotal, markup, total := draft.Totals()

	quote := &models.Quote{
		ID:          s.newID(),
		Reference:   s.reference(now),
		Customer:    *customer,
		Fulfillment: draft.Fulfillment(),
		ShipTo:      draft.ShipTo(),
		Items:       draft.Lines(),
		Subtotal:    subtotal,
		Markup:      markup,
		Total:       total,
		Notes:       draft.Notes(),
		Status:      models.QuotePending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if err := s.store.SaveQuote(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("quote_id", quote.ID).
		Str("reference", quote.Reference).
		Float64("total", quote.Total).
		Time("expires_at", quote.ExpiresAt).
		Msg("Quote saved")

	return quote, nil
}

// Pending returns all pending quotes.
func (s *Service) Pending(ctx context.Context) ([]models.Quote, error) {
	return s.store.GetPendingQuotes(ctx)
}

// Get fetches a quote by ID or external reference.
func (s *Service) Get(ctx context.Context, idOrRef string) (*models.Quote, error) {
	quote, err := s.store.GetQuote(ctx, idOrRef)
	if err == nil {
		return quote, nil
	}
	if errors.Is(err, errors.ErrNotFound) {
		return s.store.GetQuoteByReference(ctx, idOrRef)
	}
	return nil, err
}

// Execute locks and executes a pending quote's frozen items. A quote past
// its expiry fails with ErrQuoteExpired and its stored status is left
// untouched: expiry by time is terminal for execution but the row stays
// PENDING; the operator re-quotes rather than retries. On any exchange
// error the quote likewise remains pending so a deliberate manual retry
// stays possible.
func (s *Service) Execute(ctx context.Context, idOrRef, shippingOption string) (*models.Quote, *models.TradeResult, error) {
	quote, err := s.Get(ctx, idOrRef)
	if err != nil {
		return nil, nil, err
	}
	if quote.Status != models.QuotePending {
		return quote, nil, errors.Wrapf(errors.ErrQuoteNotPending, "quote %s is %s", quote.Reference, quote.Status)
	}
	if quote.Expired(s.now()) {
		return quote, nil, errors.Wrapf(errors.ErrQuoteExpired, "quote %s expired %s", quote.Reference, quote.ExpiresAt.Format(time.RFC3339))
	}

	result, err := s.engine.ExecuteFrozen(ctx, quote, shippingOption)
	if err != nil {
		return quote, nil, err
	}

	if err := s.store.MarkQuoteExecuted(ctx, quote.ID, result.ConfirmationNumber, result.ExecutedAt); err != nil {
		// The trade is confirmed; a bookkeeping failure must not hide that.
		s.logger.Error().
			Str("quote_id", quote.ID).
			Str("confirmation", result.ConfirmationNumber).
			Err(err).
			Msg("Failed to mark quote executed")
	} else {
		quote.Status = models.QuoteExecuted
		executedAt := result.ExecutedAt
		quote.ExecutedAt = &executedAt
	}

	return quote, result, nil
}

func (s *Service) reference(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(s.newID(), "-", ""))
	return fmt.Sprintf("QT-%s-%s", now.Format("20060102"), suffix[:6])
}
