package models

// LineItem is a draft order entry for a single SKU. The exchange ask price is
// the cost basis frozen at the time the line was added; retail pricing is a
// pure function of that frozen ask, the metal, and the fulfillment method.
type LineItem struct {
	SKU             string
	Description     string
	Metal           Metal
	Weight          float64
	WeightUnit      WeightUnit
	Quantity        int
	ExchangeAsk     float64 // cost basis at add time, never re-priced
	MarkupPercent   float64
	MarkupAmount    float64
	RetailUnitPrice float64
	LineTotal       float64
}
