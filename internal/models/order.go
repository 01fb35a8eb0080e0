package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPaid is the only status this service ever writes.
const OrderStatusPaid = "paid"

// Address is a postal address captured by the payment provider.
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a *Address) Scan(src interface{}) error { return scanJSON(src, a) }

func (a Address) Value() (driver.Value, error) { return valueJSON(a) }

// Order is created once per completed checkout session and never updated afterwards.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SessionID       string          `json:"sessionId" gorm:"uniqueIndex;type:varchar(255);not null"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	ShippingAddress Address         `json:"shippingAddress" gorm:"type:text"`
	BillingAddress  Address         `json:"billingAddress" gorm:"type:text"`
	Items           CartLines       `json:"items" gorm:"type:text"`
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"type:numeric(12,2)"`
	Currency        string          `json:"currency" gorm:"type:varchar(8)"`
	Status          string          `json:"status" gorm:"type:varchar(32)"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// OrderSummary is the fixed column projection served by the inventory endpoint.
type OrderSummary struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
