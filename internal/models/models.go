// Package models provides domain models for the trading desk application.
package models

import (
	"time"
)

// Metal represents a precious metal.
type Metal string

const (
	Gold      Metal = "GOLD"
	Silver    Metal = "SILVER"
	Platinum  Metal = "PLATINUM"
	Palladium Metal = "PALLADIUM"
)

// FulfillmentMethod represents how the customer receives purchased metal.
type FulfillmentMethod string

const (
	FulfillmentStorage  FulfillmentMethod = "STORAGE"
	FulfillmentDelivery FulfillmentMethod = "DELIVERY"
	FulfillmentShipToUS FulfillmentMethod = "SHIP_TO_US"
)

// WeightUnit represents the unit a product weight is quoted in.
type WeightUnit string

const (
	WeightOunce WeightUnit = "OZ"
	WeightGram  WeightUnit = "G"
	WeightKilo  WeightUnit = "KG"
)

// OrderSide represents the side of an exchange order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// AvailabilityLevel is the closed enumeration derived from the exchange's
// raw availability text and sell switch at catalog-load time.
type AvailabilityLevel string

const (
	AvailabilityLive         AvailabilityLevel = "LIVE"
	AvailabilityShort        AvailabilityLevel = "SHORT_DELAY"
	AvailabilityMedium       AvailabilityLevel = "MEDIUM_DELAY"
	AvailabilityLong         AvailabilityLevel = "LONG_DELAY"
	AvailabilityLimited      AvailabilityLevel = "LIMITED"
	AvailabilityUnknownDelay AvailabilityLevel = "UNKNOWN_DELAY"
	AvailabilityNotAvailable AvailabilityLevel = "NOT_AVAILABLE"
	AvailabilityAskOff       AvailabilityLevel = "ASK_OFF"
)

// Purchasable reports whether a product at this level may be added to an
// invoice or locked.
func (a AvailabilityLevel) Purchasable() bool {
	switch a {
	case AvailabilityAskOff, AvailabilityUnknownDelay, AvailabilityNotAvailable:
		return false
	}
	return true
}

// Badge returns the display badge for this level.
func (a AvailabilityLevel) Badge() string {
	switch a {
	case AvailabilityLive:
		return "Live"
	case AvailabilityShort:
		return "1-3 Days"
	case AvailabilityMedium:
		return "4-7 Days"
	case AvailabilityLong:
		return "2+ Weeks"
	case AvailabilityLimited:
		return "Limited"
	case AvailabilityUnknownDelay:
		return "Delayed"
	case AvailabilityNotAvailable:
		return "Unavailable"
	case AvailabilityAskOff:
		return "Ask Off"
	default:
		return string(a)
	}
}

// Product represents a sellable catalog entry. Immutable per snapshot;
// refreshed wholesale on demand, never patched field-by-field.
type Product struct {
	Code         string
	Description  string
	Metal        Metal
	Weight       float64
	WeightUnit   WeightUnit
	AskPrice     float64
	BidPrice     float64
	Availability string // raw exchange text
	SellEnabled  bool
	Level        AvailabilityLevel // derived at snapshot load
}

// MarketStatus represents the exchange's trading gate.
type MarketStatus struct {
	IsOpen    bool
	Message   string
	FetchedAt time.Time
}

// Customer identifies the customer a draft or quote is assembled for.
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Address is a shipping address, required for ship-to-customer fulfillment.
type Address struct {
	Name       string
	Address1   string
	Address2   string
	City       string
	State      string
	PostalCode string
}

// MissingFields returns the required address fields that are empty.
func (a Address) MissingFields() []string {
	var missing []string
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Address1 == "" {
		missing = append(missing, "address1")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if a.State == "" {
		missing = append(missing, "state")
	}
	if a.PostalCode == "" {
		missing = append(missing, "postalCode")
	}
	return missing
}
