package models

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// StockMap holds available units keyed by size, then color.
type StockMap map[string]map[string]int

// Get returns the units for one cell and whether the cell exists.
func (s StockMap) Get(size, color string) (int, bool) {
	colors, ok := s[size]
	if !ok {
		return 0, false
	}
	n, ok := colors[color]
	return n, ok
}

// With returns a copy of the map with one cell replaced.
func (s StockMap) With(size, color string, units int) StockMap {
	out := make(StockMap, len(s))
	for sz, colors := range s {
		inner := make(map[string]int, len(colors))
		for c, n := range colors {
			inner[c] = n
		}
		out[sz] = inner
	}
	if out[size] == nil {
		out[size] = make(map[string]int)
	}
	out[size][color] = units
	return out
}

func (s *StockMap) Scan(src interface{}) error { return scanJSON(src, s) }

func (s StockMap) Value() (driver.Value, error) { return valueJSON(map[string]map[string]int(s)) }

// PriceMap holds unit prices keyed by size, then color.
type PriceMap map[string]map[string]decimal.Decimal

func (p *PriceMap) Scan(src interface{}) error { return scanJSON(src, p) }

func (p PriceMap) Value() (driver.Value, error) {
	return valueJSON(map[string]map[string]decimal.Decimal(p))
}

// StringList is a JSON-encoded list column.
type StringList []string

func (l *StringList) Scan(src interface{}) error { return scanJSON(src, l) }

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return valueJSON([]string{})
	}
	return valueJSON([]string(l))
}

// Product represents a catalog entry with per-size/per-color stock and prices.
type Product struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name        string     `json:"name" gorm:"type:varchar(255)"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	Sizes       StringList `json:"sizes" gorm:"type:text"`
	Colors      StringList `json:"colors" gorm:"type:text"`
	Prices      PriceMap   `json:"prices" gorm:"type:text"`
	Stock       StockMap   `json:"stock" gorm:"type:text"`
	// Version is bumped on every stock write and guards conditional updates.
	Version   int       `json:"version" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
