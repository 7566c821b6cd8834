package exchange

import (
	"context"
	"testing"
	"time"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

func TestSimLockAndExecute(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: true, LockTTL: 20 * time.Second})
	ctx := context.Background()

	resp, err := sim.LockPrices(ctx, LockRequest{
		TransactionID: "t-1",
		Items: []LockItem{
			{SKU: "AGE-1OZ", Quantity: 2, Side: models.OrderSideBuy},
			{SKU: "ASE-1OZ", Quantity: 10, Side: models.OrderSideBuy},
		},
	})
	if err != nil {
		t.Fatalf("LockPrices failed: %v", err)
	}
	if resp.LockToken == "" {
		t.Fatal("expected a lock token")
	}
	if len(resp.Prices) != 2 {
		t.Fatalf("expected 2 locked prices, got %d", len(resp.Prices))
	}
	wantTotal := 2412.50*2 + 31.45*10
	if resp.TotalCost != wantTotal {
		t.Errorf("expected total %.2f, got %.2f", wantTotal, resp.TotalCost)
	}

	exec, err := sim.ExecuteTrade(ctx, ExecuteRequest{
		TransactionID: "t-1",
		LockToken:     resp.LockToken,
	})
	if err != nil {
		t.Fatalf("ExecuteTrade failed: %v", err)
	}
	if exec.ConfirmationNumber == "" {
		t.Error("expected a confirmation number")
	}
	if len(exec.BustedItems) != 0 {
		t.Errorf("expected no busted items, got %v", exec.BustedItems)
	}
}

func TestSimExecuteUnknownToken(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: true})

	_, err := sim.ExecuteTrade(context.Background(), ExecuteRequest{LockToken: "bogus"})
	var exchangeErr *errors.ExchangeError
	if !errors.As(err, &exchangeErr) || exchangeErr.Code != "UNKNOWN_LOCK" {
		t.Fatalf("expected UNKNOWN_LOCK, got %v", err)
	}
}

func TestSimLockLapsesServerSide(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: true, LockTTL: time.Millisecond})
	ctx := context.Background()

	resp, err := sim.LockPrices(ctx, LockRequest{
		TransactionID: "t-1",
		Items:         []LockItem{{SKU: "AGE-1OZ", Quantity: 1, Side: models.OrderSideBuy}},
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)

	_, err = sim.ExecuteTrade(ctx, ExecuteRequest{LockToken: resp.LockToken})
	var exchangeErr *errors.ExchangeError
	if !errors.As(err, &exchangeErr) || exchangeErr.Code != "LOCK_LAPSED" {
		t.Fatalf("expected LOCK_LAPSED, got %v", err)
	}
}

func TestSimExecuteSameTokenTwice(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: true, LockTTL: 20 * time.Second})
	ctx := context.Background()

	resp, err := sim.LockPrices(ctx, LockRequest{
		TransactionID: "t-1",
		Items:         []LockItem{{SKU: "AGE-1OZ", Quantity: 1, Side: models.OrderSideBuy}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sim.ExecuteTrade(ctx, ExecuteRequest{LockToken: resp.LockToken}); err != nil {
		t.Fatal(err)
	}

	// A lock is consumed by execution.
	_, err = sim.ExecuteTrade(ctx, ExecuteRequest{LockToken: resp.LockToken})
	var exchangeErr *errors.ExchangeError
	if !errors.As(err, &exchangeErr) || exchangeErr.Code != "UNKNOWN_LOCK" {
		t.Fatalf("expected UNKNOWN_LOCK on replay, got %v", err)
	}
}

func TestSimClosedMarketRejectsLocks(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: false})

	_, err := sim.LockPrices(context.Background(), LockRequest{
		TransactionID: "t-1",
		Items:         []LockItem{{SKU: "AGE-1OZ", Quantity: 1, Side: models.OrderSideBuy}},
	})
	if !errors.Is(err, errors.ErrMarketClosed) {
		t.Fatalf("expected ErrMarketClosed, got %v", err)
	}
}

func TestSimRejectsDisabledAsk(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: true})

	// AGP-1OZ is seeded with the sell switch off.
	_, err := sim.LockPrices(context.Background(), LockRequest{
		TransactionID: "t-1",
		Items:         []LockItem{{SKU: "AGP-1OZ", Quantity: 1, Side: models.OrderSideBuy}},
	})
	var exchangeErr *errors.ExchangeError
	if !errors.As(err, &exchangeErr) || exchangeErr.Code != "NOT_SELLABLE" {
		t.Fatalf("expected NOT_SELLABLE, got %v", err)
	}
}

func TestSimBustedSKUs(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: true, LockTTL: 20 * time.Second, BustSKUs: []string{"ASE-1OZ"}})
	ctx := context.Background()

	resp, err := sim.LockPrices(ctx, LockRequest{
		TransactionID: "t-1",
		Items: []LockItem{
			{SKU: "AGE-1OZ", Quantity: 1, Side: models.OrderSideBuy},
			{SKU: "ASE-1OZ", Quantity: 1, Side: models.OrderSideBuy},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	exec, err := sim.ExecuteTrade(ctx, ExecuteRequest{LockToken: resp.LockToken})
	if err != nil {
		t.Fatalf("busted items are a partial success, not an error: %v", err)
	}
	if len(exec.BustedItems) != 1 || exec.BustedItems[0] != "ASE-1OZ" {
		t.Errorf("expected ASE-1OZ busted, got %v", exec.BustedItems)
	}
}

func TestSimSellSwitchToggle(t *testing.T) {
	sim := NewSimExchange(SimConfig{Open: true})
	ctx := context.Background()

	price, err := sim.GetProductPrice(ctx, "AGE-1OZ")
	if err != nil {
		t.Fatal(err)
	}
	if !price.SellEnabled {
		t.Fatal("expected AGE-1OZ sellable")
	}

	sim.SetSellEnabled("AGE-1OZ", false)
	price, err = sim.GetProductPrice(ctx, "AGE-1OZ")
	if err != nil {
		t.Fatal(err)
	}
	if price.SellEnabled {
		t.Error("expected sell switch off after toggle")
	}
}
