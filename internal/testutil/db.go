package testutil

import (
	"context"
	"fmt"
	"testing"

	"cybertronic/internal/models"
	"cybertronic/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewTestDB opens a private in-memory SQLite database with every table migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repositories.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repositories.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// InsertProduct stores a product whose only stock cell is stock[size][color] = units.
func InsertProduct(t *testing.T, db *gorm.DB, id, size, color string, units int) models.Product {
	t.Helper()
	p := models.Product{
		ID:     id,
		Name:   "Product " + id,
		Sizes:  models.StringList{size},
		Colors: models.StringList{color},
		Prices: models.PriceMap{size: {color: decimal.RequireFromString("49.99")}},
		Stock:  models.StockMap{size: {color: units}},
	}
	if err := db.WithContext(context.Background()).Create(&p).Error; err != nil {
		t.Fatalf("insert product %s: %v", id, err)
	}
	return p
}

// StockOf reads the current units of one stock cell.
func StockOf(t *testing.T, db *gorm.DB, id, size, color string) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("read product %s: %v", id, err)
	}
	n, ok := p.Stock.Get(size, color)
	if !ok {
		t.Fatalf("product %s has no stock cell %s/%s", id, size, color)
	}
	return n
}
