package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cybertronic/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FulfillmentRepository stores the pending side effects of paid sessions.
type FulfillmentRepository interface {
	CreateIfAbsent(ctx context.Context, f *models.Fulfillment) (created bool, err error)
	Get(ctx context.Context, sessionID string) (*models.Fulfillment, error)
	Save(ctx context.Context, f *models.Fulfillment) error
	List(ctx context.Context, status string) ([]models.Fulfillment, error)
	DueSessionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	Postpone(ctx context.Context, sessionIDs []string, until time.Time) error
}

// GORMFulfillmentRepository is a GORM implementation of FulfillmentRepository.
type GORMFulfillmentRepository struct {
	db *gorm.DB
}

func NewGORMFulfillmentRepository(db *gorm.DB) *GORMFulfillmentRepository {
	return &GORMFulfillmentRepository{db: db}
}

func (r *GORMFulfillmentRepository) CreateIfAbsent(ctx context.Context, f *models.Fulfillment) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record fulfillment for session %s: %w", f.SessionID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMFulfillmentRepository) Get(ctx context.Context, sessionID string) (*models.Fulfillment, error) {
	var f models.Fulfillment
	if err := r.db.WithContext(ctx).First(&f, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrFulfillmentNotFound)
		}
		return nil, fmt.Errorf("failed to get fulfillment for session %s: %w", sessionID, err)
	}
	return &f, nil
}

func (r *GORMFulfillmentRepository) Save(ctx context.Context, f *models.Fulfillment) error {
	if err := r.db.WithContext(ctx).Save(f).Error; err != nil {
		return fmt.Errorf("failed to save fulfillment for session %s: %w", f.SessionID, err)
	}
	return nil
}

// List returns fulfillments with the given status, or all of them when status is empty.
func (r *GORMFulfillmentRepository) List(ctx context.Context, status string) ([]models.Fulfillment, error) {
	q := r.db.WithContext(ctx).Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Fulfillment
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list fulfillments: %w", err)
	}
	return out, nil
}

// DueSessionIDs returns pending fulfillments whose next attempt is not in the future.
func (r *GORMFulfillmentRepository) DueSessionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Fulfillment{}).
		Where("status = ? AND next_attempt_at <= ?", models.FulfillmentPending, now).
		Order("next_attempt_at").
		Limit(limit).
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due fulfillments: %w", err)
	}
	return ids, nil
}

// Postpone moves the next attempt of the given pending fulfillments to until.
func (r *GORMFulfillmentRepository) Postpone(ctx context.Context, sessionIDs []string, until time.Time) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Fulfillment{}).
		Where("session_id IN ? AND status = ?", sessionIDs, models.FulfillmentPending).
		Update("next_attempt_at", until).Error
	if err != nil {
		return fmt.Errorf("failed to postpone fulfillments: %w", err)
	}
	return nil
}
