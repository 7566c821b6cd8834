package desk

import (
	"testing"

	"bullion-desk/internal/config"
	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
	"bullion-desk/internal/pricing"
)

func goldEagle() *models.Product {
	return &models.Product{
		Code:        "AGE-1OZ",
		Description: "American Gold Eagle 1 oz",
		Metal:       models.Gold,
		Weight:      1,
		WeightUnit:  models.WeightOunce,
		AskPrice:    2000.00,
		SellEnabled: true,
		Level:       models.AvailabilityLive,
	}
}

func silverEagle() *models.Product {
	return &models.Product{
		Code:        "ASE-1OZ",
		Description: "American Silver Eagle 1 oz",
		Metal:       models.Silver,
		Weight:      1,
		WeightUnit:  models.WeightOunce,
		AskPrice:    30.00,
		SellEnabled: true,
		Level:       models.AvailabilityLive,
	}
}

func TestAddLineFreezesAskAndPricesRetail(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())

	if err := draft.AddLine(goldEagle()); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}

	lines := draft.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	line := lines[0]
	if line.ExchangeAsk != 2000.00 {
		t.Errorf("expected frozen ask 2000.00, got %.2f", line.ExchangeAsk)
	}
	if line.RetailUnitPrice != 2060.00 {
		t.Errorf("expected retail 2060.00 at 3%% gold storage markup, got %.2f", line.RetailUnitPrice)
	}
	if line.LineTotal != 2060.00 {
		t.Errorf("expected line total 2060.00, got %.2f", line.LineTotal)
	}
}

func TestAddLineMergesRepeatSKU(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())

	product := goldEagle()
	if err := draft.AddLine(product); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	// Simulate the catalog moving between adds; the frozen first-add price
	// must survive the merge.
	moved := *product
	moved.AskPrice = 2100.00
	if err := draft.AddLine(&moved); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	lines := draft.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", lines[0].Quantity)
	}
	if lines[0].ExchangeAsk != 2000.00 {
		t.Errorf("merge must not re-price: expected ask 2000.00, got %.2f", lines[0].ExchangeAsk)
	}
	if lines[0].LineTotal != 4120.00 {
		t.Errorf("expected line total 4120.00, got %.2f", lines[0].LineTotal)
	}
}

func TestAddLineRejectsNonPurchasable(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())

	for _, level := range []models.AvailabilityLevel{
		models.AvailabilityAskOff,
		models.AvailabilityUnknownDelay,
		models.AvailabilityNotAvailable,
	} {
		product := goldEagle()
		product.Level = level
		if err := draft.AddLine(product); !errors.Is(err, errors.ErrNotPurchasable) {
			t.Errorf("level %s: expected ErrNotPurchasable, got %v", level, err)
		}
	}
	if !draft.Empty() {
		t.Error("rejected adds must leave the draft empty")
	}
}

func TestAddLineRejectsUnpriced(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())

	product := goldEagle()
	product.AskPrice = 0
	if err := draft.AddLine(product); !errors.Is(err, errors.ErrNoPrice) {
		t.Errorf("expected ErrNoPrice, got %v", err)
	}
}

func TestSetQuantityClampsToOne(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())
	if err := draft.AddLine(goldEagle()); err != nil {
		t.Fatalf("AddLine failed: %v", err)
	}

	if err := draft.SetQuantity("AGE-1OZ", 0); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if qty := draft.Lines()[0].Quantity; qty != 1 {
		t.Errorf("expected quantity clamped to 1, got %d", qty)
	}

	if err := draft.SetQuantity("AGE-1OZ", 5); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	line := draft.Lines()[0]
	if line.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", line.Quantity)
	}
	if line.LineTotal != 10300.00 {
		t.Errorf("expected line total 10300.00, got %.2f", line.LineTotal)
	}
}

func TestSetQuantityUnknownSKU(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())
	if err := draft.SetQuantity("NOPE", 2); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveLine(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())
	if err := draft.AddLine(goldEagle()); err != nil {
		t.Fatal(err)
	}
	if err := draft.AddLine(silverEagle()); err != nil {
		t.Fatal(err)
	}

	if err := draft.RemoveLine("AGE-1OZ"); err != nil {
		t.Fatalf("RemoveLine failed: %v", err)
	}
	lines := draft.Lines()
	if len(lines) != 1 || lines[0].SKU != "ASE-1OZ" {
		t.Errorf("expected only ASE-1OZ to remain, got %+v", lines)
	}
}

func TestSetFulfillmentRepricesAllLines(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())
	if err := draft.AddLine(goldEagle()); err != nil {
		t.Fatal(err)
	}
	if err := draft.AddLine(silverEagle()); err != nil {
		t.Fatal(err)
	}
	if err := draft.SetQuantity("AGE-1OZ", 2); err != nil {
		t.Fatal(err)
	}

	if err := draft.SetFulfillment(models.FulfillmentShipToUS); err != nil {
		t.Fatalf("SetFulfillment failed: %v", err)
	}

	lines := draft.Lines()
	// Gold: 3% + 1% ship adjustment = 4% of 2000 = 2080/unit.
	if lines[0].RetailUnitPrice != 2080.00 {
		t.Errorf("expected gold retail 2080.00, got %.2f", lines[0].RetailUnitPrice)
	}
	if lines[0].LineTotal != 4160.00 {
		t.Errorf("expected gold line total 4160.00, got %.2f", lines[0].LineTotal)
	}
	// Silver: 5% + 1% = 6% of 30 = 31.80/unit.
	if lines[1].RetailUnitPrice != 31.80 {
		t.Errorf("expected silver retail 31.80, got %.2f", lines[1].RetailUnitPrice)
	}
	// Cost basis never moves on a fulfillment change.
	if lines[0].ExchangeAsk != 2000.00 || lines[1].ExchangeAsk != 30.00 {
		t.Error("fulfillment change must not touch the frozen ask")
	}
}

func TestSetFulfillmentFailureLeavesDraftUntouched(t *testing.T) {
	// Pricer that knows gold only; the silver line makes re-pricing fail.
	mixed := NewDraft(pricing.DefaultEngine())
	if err := mixed.AddLine(goldEagle()); err != nil {
		t.Fatal(err)
	}
	if err := mixed.AddLine(silverEagle()); err != nil {
		t.Fatal(err)
	}
	before := mixed.Lines()
	beforeMethod := mixed.Fulfillment()

	// Swap in a restricted pricer to force a failure on the silver line.
	mixed.pricer = pricing.NewEngine(configWithGoldOnly())

	err := mixed.SetFulfillment(models.FulfillmentDelivery)
	if err == nil {
		t.Fatal("expected re-pricing failure for silver line")
	}

	after := mixed.Lines()
	if mixed.Fulfillment() != beforeMethod {
		t.Errorf("failed SetFulfillment must keep method %s, got %s", beforeMethod, mixed.Fulfillment())
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("line %d changed despite failure: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestClearResetsEverything(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())
	if err := draft.AddLine(goldEagle()); err != nil {
		t.Fatal(err)
	}
	draft.SetCustomer(models.Customer{Name: "Jane Smith"})
	draft.SetShipTo(models.Address{Name: "Jane Smith", Address1: "1 Main St"})
	draft.SetNotes("hold for pickup")
	if err := draft.SetFulfillment(models.FulfillmentDelivery); err != nil {
		t.Fatal(err)
	}

	draft.Clear()

	if !draft.Empty() {
		t.Error("expected empty draft after Clear")
	}
	if draft.Customer() != nil || draft.ShipTo() != nil || draft.Notes() != "" {
		t.Error("Clear must drop customer, address, and notes")
	}
	if draft.Fulfillment() != models.FulfillmentStorage {
		t.Errorf("Clear must reset fulfillment to storage, got %s", draft.Fulfillment())
	}
}

func TestTotals(t *testing.T) {
	draft := NewDraft(pricing.DefaultEngine())
	if err := draft.AddLine(goldEagle()); err != nil {
		t.Fatal(err)
	}
	if err := draft.SetQuantity("AGE-1OZ", 2); err != nil {
		t.Fatal(err)
	}
	if err := draft.AddLine(silverEagle()); err != nil {
		t.Fatal(err)
	}

	subtotal, markup, total := draft.Totals()
	if subtotal != 4030.00 {
		t.Errorf("expected subtotal 4030.00, got %.2f", subtotal)
	}
	if markup != 121.50 {
		t.Errorf("expected markup 121.50, got %.2f", markup)
	}
	if total != 4151.50 {
		t.Errorf("expected total 4151.50, got %.2f", total)
	}
}

func configWithGoldOnly() config.PricingConfig {
	return config.PricingConfig{
		MetalMarkupPercent: map[string]float64{"GOLD": 3.0},
	}
}
