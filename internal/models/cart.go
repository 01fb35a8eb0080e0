package models

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
)

// CartItem is a line of the shopper's cart as sent by the storefront at checkout time.
type CartItem struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required,max=250"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size" validate:"required"`
	Color     string          `json:"color" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gte=1"`
	Image     string          `json:"image,omitempty" validate:"omitempty,url"`
}

// Line projects the item to the fields carried in payment-session metadata.
func (i CartItem) Line() CartLine {
	return CartLine{
		ProductID: i.ProductID,
		Size:      i.Size,
		Color:     i.Color,
		Quantity:  i.Quantity,
	}
}

// CartLine identifies one (product, size, color) cell and how many units were bought.
// Prices never travel in this form.
type CartLine struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// CartLines is stored as a JSON column.
type CartLines []CartLine

func (c *CartLines) Scan(src interface{}) error { return scanJSON(src, c) }

func (c CartLines) Value() (driver.Value, error) {
	if c == nil {
		return valueJSON([]CartLine{})
	}
	return valueJSON([]CartLine(c))
}
