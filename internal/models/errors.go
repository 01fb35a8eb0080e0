package models

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrStockNotFound       = errors.New("stock not found for size/color")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrStockConflict       = errors.New("stock changed concurrently")
	ErrOrderNotFound       = errors.New("order not found")
	ErrFulfillmentNotFound = errors.New("fulfillment not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateEmail      = errors.New("email already subscribed")
)
