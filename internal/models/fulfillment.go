package models

import "time"

// Fulfillment statuses.
const (
	FulfillmentPending   = "pending"
	FulfillmentCompleted = "completed"
	FulfillmentFailed    = "failed"
)

// Fulfillment is the durable record of side effects owed to one paid session:
// persisting the order, reconciling stock and sending the receipt.
type Fulfillment struct {
	SessionID       string           `json:"sessionId" gorm:"primaryKey;type:varchar(255)"`
	EventID         string           `json:"eventId" gorm:"type:varchar(255)"`
	Session         CompletedSession `json:"session" gorm:"type:text"`
	Status          string           `json:"status" gorm:"type:varchar(16);index"`
	Attempts        int              `json:"attempts"`
	OrderRecorded   bool             `json:"orderRecorded"`
	StockReconciled bool             `json:"stockReconciled"`
	ReceiptSent     bool             `json:"receiptSent"`
	StockReport     StockReport      `json:"stockReport" gorm:"type:text"`
	LastError       string           `json:"lastError,omitempty"`
	NextAttemptAt   time.Time        `json:"nextAttemptAt" gorm:"index"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Done reports whether every side effect has been carried out.
func (f *Fulfillment) Done() bool {
	return f.OrderRecorded && f.StockReconciled && f.ReceiptSent
}
