package desk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/exchange"
	"bullion-desk/internal/models"
)

// TradeRecorder receives durable trade records for the ledger. Recording
// failures are logged, never propagated: the trade is already confirmed by
// the exchange at that point.
type TradeRecorder interface {
	RecordTrade(ctx context.Context, rec models.TradeRecord) error
}

// Engine drives the two-phase commit against the exchange: reserve prices
// for a short window, then confirm the trade before the window lapses.
//
// State machine:
//
//	(no session) --Lock--> LOCKED --window lapses--> EXPIRED
//	LOCKED --Execute--> EXECUTING --success--> EXECUTED
//	LOCKED --Execute--> EXECUTING --failure--> LOCKED (error surfaced)
//	EXPIRED --Lock--> LOCKED (new transaction ID)
//	(any) --Cancel--> (no session)
//
// At most one session exists per engine, and each draft owns one engine.
// Expiry is always judged against wall-clock timestamps.
type Engine struct {
	exchange   exchange.Exchange
	gate       *Gate
	recorder   TradeRecorder
	logger     zerolog.Logger
	lockWindow time.Duration

	// injectable for tests
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	session *models.LockSession
	locking bool
}

// EngineConfig holds dependencies for the lock/execute engine.
type EngineConfig struct {
	Exchange   exchange.Exchange
	Gate       *Gate
	Recorder   TradeRecorder
	Logger     zerolog.Logger
	LockWindow time.Duration
}

// NewEngine creates a lock/execute engine.
func NewEngine(cfg EngineConfig) *Engine {
	window := cfg.LockWindow
	if window == 0 {
		window = 20 * time.Second
	}
	return &Engine{
		exchange:   cfg.Exchange,
		gate:       cfg.Gate,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		lockWindow: window,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Lock reserves exchange prices for every line of the draft. Preconditions
// are checked before any network call: the market gate must be open, a
// ship-to-customer draft must carry a complete address, and no lock may
// already be active or in flight. Every line is then re-checked for
// sellability; a single unsellable SKU aborts the whole attempt with no
// partial locks taken.
func (e *Engine) Lock(ctx context.Context, draft *Draft) (*models.LockSession, error) {
	e.mu.Lock()
	if e.locking {
		e.mu.Unlock()
		return nil, errors.ErrLockInFlight
	}
	if e.session != nil {
		switch e.session.Status {
		case models.LockStatusExecuting:
			e.mu.Unlock()
			return nil, errors.ErrLockInFlight
		case models.LockStatusLocked:
			if !e.session.Expired(e.now()) {
				e.mu.Unlock()
				return nil, errors.ErrLockActive
			}
			// lapsed: discard and re-lock under a fresh transaction ID
			e.session = nil
		default:
			e.session = nil
		}
	}
	e.locking = true
	e.mu.Unlock()

	session, err := e.lock(ctx, draft)

	e.mu.Lock()
	e.locking = false
	if err == nil {
		e.session = session
	}
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}
	out := *session
	return &out, nil
}

func (e *Engine) lock(ctx context.Context, draft *Draft) (*models.LockSession, error) {
	if draft.Empty() {
		return nil, errors.ErrEmptyDraft
	}
	if err := e.gate.EnsureOpen(ctx); err != nil {
		return nil, err
	}
	if err := validateShipTo(draft.Fulfillment(), draft.ShipTo()); err != nil {
		return nil, err
	}

	lines := draft.Lines()
	for _, line := range lines {
		price, err := e.exchange.GetProductPrice(ctx, line.SKU)
		if err != nil {
			return nil, errors.Wrapf(err, "checking availability of %s", line.SKU)
		}
		if !price.SellEnabled {
			return nil, errors.NewItemUnavailableError(line.SKU)
		}
	}

	req := exchange.LockRequest{
		TransactionID: e.newID(),
	}
	for _, line := range lines {
		req.Items = append(req.Items, exchange.LockItem{
			SKU:      line.SKU,
			Quantity: line.Quantity,
			Side:     models.OrderSideBuy,
		})
	}

	resp, err := e.exchange.LockPrices(ctx, req)
	if err != nil {
		return nil, err
	}

	now := e.now()
	session := &models.LockSession{
		TransactionID: req.TransactionID,
		LockToken:     resp.LockToken,
		Prices:        resp.Prices,
		TotalCost:     resp.TotalCost,
		Fulfillment:   draft.Fulfillment(),
		ShipTo:        draft.ShipTo(),
		Status:        models.LockStatusLocked,
		LockedAt:      now,
		ExpiresAt:     now.Add(e.lockWindow),
	}

	e.logger.Info().
		Str("transaction_id", session.TransactionID).
		Int("items", len(session.Prices)).
		Float64("total_cost", session.TotalCost).
		Time("expires_at", session.ExpiresAt).
		Msg("Prices locked")

	return session, nil
}

// Execute confirms the active lock session before its window lapses. An
// expired session fails with ErrLockExpired without reaching the network;
// the caller must re-lock, not retry. A timeout with no definitive answer
// from the exchange is surfaced as ErrExecuteUncertain and must be
// reconciled against the ledger before any corrective action; it is never
// retried automatically since a retry could double-submit the trade.
func (e *Engine) Execute(ctx context.Context, reference, shippingOption string) (*models.TradeResult, error) {
	e.mu.Lock()
	session := e.session
	if session == nil {
		e.mu.Unlock()
		return nil, errors.ErrNoActiveLock
	}
	switch session.Status {
	case models.LockStatusExecuting:
		e.mu.Unlock()
		return nil, errors.ErrLockInFlight
	case models.LockStatusExecuted:
		e.mu.Unlock()
		return nil, errors.Wrap(errors.ErrNoActiveLock, "session already executed")
	case models.LockStatusExpired:
		e.mu.Unlock()
		return nil, errors.ErrLockExpired
	}
	if session.Expired(e.now()) {
		session.Status = models.LockStatusExpired
		e.mu.Unlock()
		return nil, errors.ErrLockExpired
	}
	if err := validateShipTo(session.Fulfillment, session.ShipTo); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	session.Status = models.LockStatusExecuting
	e.mu.Unlock()

	resp, err := e.exchange.ExecuteTrade(ctx, exchange.ExecuteRequest{
		TransactionID:   session.TransactionID,
		LockToken:       session.LockToken,
		ReferenceNumber: reference,
		ShippingOption:  shippingOption,
		DropShip:        session.ShipTo,
	})

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		if exchange.IsTimeout(err) {
			// No definitive answer: the trade may or may not have gone
			// through. The session stays in EXECUTING until the operator
			// reconciles against the ledger.
			e.logger.Error().
				Str("transaction_id", session.TransactionID).
				Err(err).
				Msg("Execute timed out with no definitive response")
			return nil, errors.Wrap(errors.ErrExecuteUncertain, session.TransactionID)
		}
		session.Status = models.LockStatusLocked
		return nil, err
	}

	session.Status = models.LockStatusExecuted
	result := &models.TradeResult{
		TransactionID:      resp.TransactionID,
		ConfirmationNumber: resp.ConfirmationNumber,
		Status:             resp.Status,
		ShippingOption:     resp.ShippingOption,
		Busted:             resp.BustedItems,
		ExecutedAt:         e.now(),
	}

	if result.Partial() {
		e.logger.Warn().
			Str("transaction_id", result.TransactionID).
			Str("confirmation", result.ConfirmationNumber).
			Strs("busted", result.Busted).
			Msg("Trade executed with busted items")
	} else {
		e.logger.Info().
			Str("transaction_id", result.TransactionID).
			Str("confirmation", result.ConfirmationNumber).
			Msg("Trade executed")
	}

	e.record(ctx, session, result, "desk", reference, "")
	return result, nil
}

// ExecuteFrozen locks and immediately executes a saved quote's frozen items
// under a fresh transaction ID. It is the primitive behind quote execution
// and does not touch the engine's draft session. Status transitions on the
// quote itself belong to the quote store.
func (e *Engine) ExecuteFrozen(ctx context.Context, q *models.Quote, shippingOption string) (*models.TradeResult, error) {
	if err := e.gate.EnsureOpen(ctx); err != nil {
		return nil, err
	}
	if err := validateShipTo(q.Fulfillment, q.ShipTo); err != nil {
		return nil, err
	}

	req := exchange.LockRequest{
		TransactionID: e.newID(),
	}
	for _, item := range q.Items {
		req.Items = append(req.Items, exchange.LockItem{
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Side:     models.OrderSideBuy,
		})
	}

	lockResp, err := e.exchange.LockPrices(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := e.exchange.ExecuteTrade(ctx, exchange.ExecuteRequest{
		TransactionID:   req.TransactionID,
		LockToken:       lockResp.LockToken,
		ReferenceNumber: q.Reference,
		ShippingOption:  shippingOption,
		DropShip:        q.ShipTo,
	})
	if err != nil {
		if exchange.IsTimeout(err) {
			e.logger.Error().
				Str("transaction_id", req.TransactionID).
				Str("quote_id", q.ID).
				Err(err).
				Msg("Quote execute timed out with no definitive response")
			return nil, errors.Wrap(errors.ErrExecuteUncertain, req.TransactionID)
		}
		return nil, err
	}

	result := &models.TradeResult{
		TransactionID:      resp.TransactionID,
		ConfirmationNumber: resp.ConfirmationNumber,
		Status:             resp.Status,
		ShippingOption:     resp.ShippingOption,
		Busted:             resp.BustedItems,
		ExecutedAt:         e.now(),
	}

	session := &models.LockSession{
		TransactionID: req.TransactionID,
		LockToken:     lockResp.LockToken,
		Prices:        lockResp.Prices,
		TotalCost:     lockResp.TotalCost,
		Fulfillment:   q.Fulfillment,
		ShipTo:        q.ShipTo,
	}
	e.record(ctx, session, result, "quote", q.Reference, q.Customer.Name)
	return result, nil
}

// Cancel discards any session state. It never calls the exchange: no cancel
// primitive exists, the reservation simply lapses server-side at its own
// TTL. Calling it with no session, twice, or after expiry is a no-op.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.logger.Debug().
			Str("transaction_id", e.session.TransactionID).
			Str("status", string(e.session.Status)).
			Msg("Lock session discarded")
	}
	e.session = nil
}

// Session returns a copy of the current session, with a lapsed lock reported
// as EXPIRED. Returns nil when no session exists.
func (e *Engine) Session() *models.LockSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	if e.session.Status == models.LockStatusLocked && e.session.Expired(e.now()) {
		e.session.Status = models.LockStatusExpired
	}
	out := *e.session
	return &out
}

func (e *Engine) record(ctx context.Context, session *models.LockSession, result *models.TradeResult, source, reference, customer string) {
	if e.recorder == nil {
		return
	}

	rec := models.TradeRecord{
		TransactionID:      result.TransactionID,
		ConfirmationNumber: result.ConfirmationNumber,
		Source:             source,
		Reference:          reference,
		CustomerName:       customer,
		Fulfillment:        session.Fulfillment,
		Filled:             FilledLines(session.Prices, result.Busted),
		Busted:             result.Busted,
		ExecutedAt:         result.ExecutedAt,
	}
	for _, p := range rec.Filled {
		rec.TotalCost += p.Extended
	}

	if err := e.recorder.RecordTrade(ctx, rec); err != nil {
		e.logger.Error().
			Str("transaction_id", result.TransactionID).
			Err(err).
			Msg("Failed to record trade in ledger")
	}
}
