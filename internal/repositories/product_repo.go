package repositories

import (
	"context"

	"cybertronic/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Count(ctx context.Context) (int64, error)
	// ApplyStockMovement records the movement and decrements the matching stock cell in one
	// transaction. applied is false when the movement had already been recorded, in which
	// case stock is left untouched.
	ApplyStockMovement(ctx context.Context, mv models.StockMovement) (remaining int, applied bool, err error)
}
