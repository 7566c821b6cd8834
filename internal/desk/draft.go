// Package desk provides the trading desk order lifecycle: invoice building,
// the lock/execute state machine, the market gate, and result reporting.
package desk

import (
	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
	"bullion-desk/internal/pricing"
)

// Draft accumulates priced line items into a draft order. It is owned by a
// single staff session and is ephemeral: on submission it becomes a saved
// quote or a lock session, never both. All mutations are synchronous and
// local; access is serialized per draft by the owning session.
type Draft struct {
	pricer *pricing.Engine

	lines       []models.LineItem
	fulfillment models.FulfillmentMethod
	customer    *models.Customer
	shipTo      *models.Address
	notes       string
}

// NewDraft creates an empty draft with storage fulfillment.
func NewDraft(pricer *pricing.Engine) *Draft {
	return &Draft{
		pricer:      pricer,
		fulfillment: models.FulfillmentStorage,
	}
}

// AddLine adds one unit of a catalog product to the draft. Adding a SKU that
// is already present increments its quantity instead of duplicating the line.
// The exchange ask is frozen as the line's cost basis at this moment.
func (d *Draft) AddLine(product *models.Product) error {
	if product == nil {
		return errors.ErrNotFound
	}
	if !product.Level.Purchasable() {
		return errors.Wrapf(errors.ErrNotPurchasable, "%s is %s", product.Code, product.Level.Badge())
	}
	if product.AskPrice <= 0 {
		return errors.Wrapf(errors.ErrNoPrice, "%s", product.Code)
	}

	for i := range d.lines {
		if d.lines[i].SKU == product.Code {
			d.lines[i].Quantity++
			d.lines[i].LineTotal = pricing.RoundCents(d.lines[i].RetailUnitPrice * float64(d.lines[i].Quantity))
			return nil
		}
	}

	result, err := d.pricer.Markup(product.AskPrice, product.Metal, d.fulfillment)
	if err != nil {
		return err
	}

	d.lines = append(d.lines, models.LineItem{
		SKU:             product.Code,
		Description:     product.Description,
		Metal:           product.Metal,
		Weight:          product.Weight,
		WeightUnit:      product.WeightUnit,
		Quantity:        1,
		ExchangeAsk:     product.AskPrice,
		MarkupPercent:   result.MarkupPercent,
		MarkupAmount:    result.MarkupAmount,
		RetailUnitPrice: result.RetailUnitPrice,
		LineTotal:       result.RetailUnitPrice,
	})
	return nil
}

// SetQuantity sets a line's quantity, clamped to a minimum of 1, and
// recomputes its total. Markup fields are unaffected.
func (d *Draft) SetQuantity(sku string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	for i := range d.lines {
		if d.lines[i].SKU == sku {
			d.lines[i].Quantity = qty
			d.lines[i].LineTotal = pricing.RoundCents(d.lines[i].RetailUnitPrice * float64(qty))
			return nil
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "line %s", sku)
}

// RemoveLine drops a line by SKU. No side effects on other lines.
func (d *Draft) RemoveLine(sku string) error {
	for i := range d.lines {
		if d.lines[i].SKU == sku {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "line %s", sku)
}

// SetFulfillment changes the fulfillment method and recomputes the markup of
// every line from its frozen cost basis. The operation is atomic: if any
// line's recompute fails, no line is changed and the method stays as it was.
func (d *Draft) SetFulfillment(method models.FulfillmentMethod) error {
	recomputed := make([]pricing.Result, len(d.lines))
	for i := range d.lines {
		result, err := d.pricer.Markup(d.lines[i].ExchangeAsk, d.lines[i].Metal, method)
		if err != nil {
			return errors.Wrapf(err, "repricing %s for %s", d.lines[i].SKU, method)
		}
		recomputed[i] = result
	}

	for i := range d.lines {
		d.lines[i].MarkupPercent = recomputed[i].MarkupPercent
		d.lines[i].MarkupAmount = recomputed[i].MarkupAmount
		d.lines[i].RetailUnitPrice = recomputed[i].RetailUnitPrice
		d.lines[i].LineTotal = pricing.RoundCents(recomputed[i].RetailUnitPrice * float64(d.lines[i].Quantity))
	}
	d.fulfillment = method
	return nil
}

// SetCustomer attaches a customer identity to the draft.
func (d *Draft) SetCustomer(c models.Customer) {
	d.customer = &c
}

// SetShipTo sets the shipping address used by ship-to-customer fulfillment.
func (d *Draft) SetShipTo(a models.Address) {
	d.shipTo = &a
}

// SetNotes sets the draft's free-text notes.
func (d *Draft) SetNotes(notes string) {
	d.notes = notes
}

// Clear resets the draft to empty, including customer and address.
func (d *Draft) Clear() {
	d.lines = nil
	d.fulfillment = models.FulfillmentStorage
	d.customer = nil
	d.shipTo = nil
	d.notes = ""
}

// Empty reports whether the draft has no lines.
func (d *Draft) Empty() bool {
	return len(d.lines) == 0
}

// Lines returns a copy of the draft's line items.
func (d *Draft) Lines() []models.LineItem {
	out := make([]models.LineItem, len(d.lines))
	copy(out, d.lines)
	return out
}

// Fulfillment returns the current fulfillment method.
func (d *Draft) Fulfillment() models.FulfillmentMethod {
	return d.fulfillment
}

// Customer returns the attached customer, or nil.
func (d *Draft) Customer() *models.Customer {
	return d.customer
}

// ShipTo returns the shipping address, or nil.
func (d *Draft) ShipTo() *models.Address {
	return d.shipTo
}

// Notes returns the draft's notes.
func (d *Draft) Notes() string {
	return d.notes
}

// Totals returns the draft's cost subtotal, total markup, and retail total.
func (d *Draft) Totals() (subtotal, markup, total float64) {
	for _, line := range d.lines {
		qty := float64(line.Quantity)
		subtotal += line.ExchangeAsk * qty
		markup += line.MarkupAmount * qty
		total += line.LineTotal
	}
	return pricing.RoundCents(subtotal), pricing.RoundCents(markup), pricing.RoundCents(total)
}

// validateShipTo checks the required address fields for ship-to-customer
// fulfillment before any network call is made.
func validateShipTo(method models.FulfillmentMethod, addr *models.Address) error {
	if method != models.FulfillmentShipToUS {
		return nil
	}
	if addr == nil {
		return errors.NewIncompleteAddressError([]string{"name", "address1", "city", "state", "postalCode"})
	}
	if missing := addr.MissingFields(); len(missing) > 0 {
		return errors.NewIncompleteAddressError(missing)
	}
	return nil
}
