package repositories

import (
	"context"

	"cybertronic/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateIfAbsent inserts the order unless one already exists for its session.
	CreateIfAbsent(ctx context.Context, order *models.Order) (created bool, err error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListSummaries(ctx context.Context) ([]models.OrderSummary, error)
}
