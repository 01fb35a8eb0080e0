package repositories

import (
	"context"
	"errors"
	"fmt"

	"cybertronic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriberRepository defines the interface for newsletter subscriber data access.
type SubscriberRepository interface {
	Create(ctx context.Context, sub *models.Subscriber) error
}

// GORMSubscriberRepository is a GORM implementation of SubscriberRepository.
type GORMSubscriberRepository struct {
	db *gorm.DB
}

func NewGORMSubscriberRepository(db *gorm.DB) *GORMSubscriberRepository {
	return &GORMSubscriberRepository{db: db}
}

func (r *GORMSubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s: %w", sub.Email, models.ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	return nil
}
