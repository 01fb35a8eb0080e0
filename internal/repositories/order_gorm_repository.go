package repositories

import (
	"context"
	"errors"
	"fmt"

	"cybertronic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) CreateIfAbsent(ctx context.Context, order *models.Order) (bool, error) {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(order)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create order for session %s: %w", order.SessionID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order for session %s: %w", sessionID, err)
	}
	return &order, nil
}

// ListSummaries returns every order projected to the public column list, newest first.
func (r *GORMOrderRepository) ListSummaries(ctx context.Context) ([]models.OrderSummary, error) {
	var out []models.OrderSummary
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("id, session_id, customer_email, customer_name, total_amount, status, created_at").
		Order("created_at desc").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return out, nil
}
