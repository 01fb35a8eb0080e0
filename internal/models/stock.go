package models

import (
	"database/sql/driver"
	"time"
)

// StockMovement records that one line of one session has decremented stock.
// The (session_id, line_index) pair is unique, so a line can never be applied twice.
type StockMovement struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"sessionId" gorm:"uniqueIndex:idx_movement_line;type:varchar(255);not null"`
	LineIndex int       `json:"lineIndex" gorm:"uniqueIndex:idx_movement_line;not null"`
	ProductID string    `json:"productId" gorm:"type:varchar(64);index"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// Line outcomes of a stock reconciliation.
const (
	LineApplied        = "applied"
	LineAlreadyApplied = "already_applied"
	LineFault          = "fault"
	LineError          = "error"
)

// LineResult is the outcome for one cart line.
type LineResult struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
	Outcome   string `json:"outcome"`
	Remaining *int   `json:"remaining,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StockReport aggregates per-line outcomes of one reconciliation run.
type StockReport struct {
	Results []LineResult `json:"results"`
	Applied int          `json:"applied"`
	Faults  int          `json:"faults"`
	Errors  int          `json:"errors"`
}

// Retryable reports whether some line failed for a transient reason.
func (r StockReport) Retryable() bool { return r.Errors > 0 }

func (r *StockReport) Scan(src interface{}) error { return scanJSON(src, r) }

func (r StockReport) Value() (driver.Value, error) { return valueJSON(r) }
