// Package pricing provides the retail markup schedule over exchange ask prices.
package pricing

import (
	"math"

	"bullion-desk/internal/config"
	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

// Result holds the retail figures computed from a frozen exchange ask.
type Result struct {
	RetailUnitPrice float64
	MarkupPercent   float64
	MarkupAmount    float64
}

// Engine computes retail prices from the published spread schedule.
// Markup is a pure function of (ask, metal, fulfillment); it performs no I/O.
type Engine struct {
	metalPercent      map[models.Metal]float64
	fulfillmentAdjust map[models.FulfillmentMethod]float64
}

// NewEngine creates a pricing engine from configuration.
func NewEngine(cfg config.PricingConfig) *Engine {
	e := &Engine{
		metalPercent:      make(map[models.Metal]float64),
		fulfillmentAdjust: make(map[models.FulfillmentMethod]float64),
	}
	for metal, pct := range cfg.MetalMarkupPercent {
		e.metalPercent[models.Metal(metal)] = pct
	}
	for method, pct := range cfg.FulfillmentAdjust {
		e.fulfillmentAdjust[models.FulfillmentMethod(method)] = pct
	}
	return e
}

// DefaultEngine returns an engine with the published default schedule.
func DefaultEngine() *Engine {
	return &Engine{
		metalPercent: map[models.Metal]float64{
			models.Gold:      3.0,
			models.Silver:    5.0,
			models.Platinum:  4.0,
			models.Palladium: 4.0,
		},
		fulfillmentAdjust: map[models.FulfillmentMethod]float64{
			models.FulfillmentStorage:  0.0,
			models.FulfillmentDelivery: 0.5,
			models.FulfillmentShipToUS: 1.0,
		},
	}
}

// Markup computes the retail unit price for a frozen exchange ask.
// Returns an error for unpriced items or a metal missing from the schedule.
func (e *Engine) Markup(ask float64, metal models.Metal, method models.FulfillmentMethod) (Result, error) {
	if ask <= 0 {
		return Result{}, errors.ErrNoPrice
	}

	pct, ok := e.metalPercent[metal]
	if !ok {
		return Result{}, errors.NewValidationError("metal", string(metal), "no markup schedule for metal")
	}
	pct += e.fulfillmentAdjust[method]

	amount := RoundCents(ask * pct / 100)
	return Result{
		RetailUnitPrice: RoundCents(ask + amount),
		MarkupPercent:   pct,
		MarkupAmount:    amount,
	}, nil
}

// RoundCents rounds a price to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
