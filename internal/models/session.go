package models

import "database/sql/driver"

// SessionLineItem is a priced line of a completed session as reported by the payment provider.
type SessionLineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	AmountTotal int64  `json:"amountTotal"`
}

// CompletedSession is a provider-neutral snapshot of a paid checkout session.
// Amounts are in currency minor units.
type CompletedSession struct {
	ID              string            `json:"id"`
	AmountTotal     int64             `json:"amountTotal"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customerEmail"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	ShippingAddress Address           `json:"shippingAddress"`
	BillingAddress  Address           `json:"billingAddress"`
	Metadata        map[string]string `json:"metadata"`
	LineItems       []SessionLineItem `json:"lineItems,omitempty"`
}

func (s *CompletedSession) Scan(src interface{}) error { return scanJSON(src, s) }

func (s CompletedSession) Value() (driver.Value, error) { return valueJSON(s) }
