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

const maxStockWriteAttempts = 5

var errVersionMoved = errors.New("product version moved")

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Count returns the number of catalog entries.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// ApplyStockMovement decrements one stock cell with a version-guarded update. A concurrent
// writer moving the version makes the attempt roll back and start over from a fresh read.
func (r *GORMProductRepository) ApplyStockMovement(ctx context.Context, mv models.StockMovement) (int, bool, error) {
	if mv.Quantity <= 0 {
		return 0, false, fmt.Errorf("quantity %d: %w", mv.Quantity, models.ErrInvalidQuantity)
	}

	for attempt := 0; attempt < maxStockWriteAttempts; attempt++ {
		remaining, applied, err := r.applyOnce(ctx, mv)
		if errors.Is(err, errVersionMoved) {
			continue
		}
		return remaining, applied, err
	}
	return 0, false, fmt.Errorf("product %s after %d attempts: %w", mv.ProductID, maxStockWriteAttempts, models.ErrStockConflict)
}

func (r *GORMProductRepository) applyOnce(ctx context.Context, mv models.StockMovement) (remaining int, applied bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := mv
		row.ID = 0
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to record stock movement: %w", res.Error)
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", mv.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product with ID %s: %w", mv.ProductID, models.ErrProductNotFound)
			}
			return fmt.Errorf("failed to read product %s: %w", mv.ProductID, err)
		}

		current, ok := product.Stock.Get(mv.Size, mv.Color)
		if res.RowsAffected == 0 {
			remaining = current
			return nil
		}
		if !ok {
			return fmt.Errorf("%w: product %s size %s color %s", models.ErrStockNotFound, mv.ProductID, mv.Size, mv.Color)
		}

		updated := current - mv.Quantity
		if updated < 0 {
			return fmt.Errorf("%w: product %s size %s color %s has %d, requested %d",
				models.ErrInsufficientStock, mv.ProductID, mv.Size, mv.Color, current, mv.Quantity)
		}

		upd := tx.Model(&models.Product{}).
			Where("id = ? AND version = ?", product.ID, product.Version).
			Updates(map[string]interface{}{
				"stock":      product.Stock.With(mv.Size, mv.Color, updated),
				"version":    product.Version + 1,
				"updated_at": time.Now(),
			})
		if upd.Error != nil {
			return fmt.Errorf("failed to update stock for product %s: %w", product.ID, upd.Error)
		}
		if upd.RowsAffected == 0 {
			return errVersionMoved
		}

		remaining = updated
		applied = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return remaining, applied, nil
}
