package services

import (
	"context"

	"cybertronic/internal/models"
	"cybertronic/internal/payments"
)

// PaymentGateway is the part of the payment provider the services depend on.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payments.SessionRequest) (string, error)
	ExpandedSession(ctx context.Context, sessionID string) (*models.CompletedSession, error)
}

// EventDeduper remembers provider event ids that have already been recorded.
// Mark is only called once the event is durably recorded.
type EventDeduper interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

// FulfillmentJobs hands a session id to the fulfillment workers.
type FulfillmentJobs interface {
	Publish(ctx context.Context, sessionID string) error
}

// OrderRecorder persists the order of a paid session.
type OrderRecorder interface {
	RecordPaidOrder(ctx context.Context, cs models.CompletedSession, lines []models.CartLine) (*models.Order, bool, error)
}

// StockReconciler applies the stock movements of a paid session, resuming from a previous report.
type StockReconciler interface {
	Resume(ctx context.Context, sessionID string, lines []models.CartLine, prev models.StockReport) (models.StockReport, error)
}

// ReceiptSender emails the receipt of a paid session.
type ReceiptSender interface {
	Send(ctx context.Context, sessionID string) error
}
