package services

import (
	"context"

	"cybertronic/internal/models"
	"cybertronic/pkg/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

const EventOrderPaid = "OrderPaid"

// OrderEvents announces order lifecycle changes to other systems.
type OrderEvents interface {
	OrderPaid(ctx context.Context, order *models.Order) error
}

// NopOrderEvents discards every event.
type NopOrderEvents struct{}

func (NopOrderEvents) OrderPaid(context.Context, *models.Order) error { return nil }

// MessagePublisher writes a keyed message to a topic.
type MessagePublisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error
}

// OrderPaidPayload is the body of an OrderPaid envelope.
type OrderPaidPayload struct {
	OrderID       string            `json:"order_id"`
	SessionID     string            `json:"session_id"`
	CustomerEmail string            `json:"customer_email"`
	TotalAmount   string            `json:"total_amount"`
	Currency      string            `json:"currency"`
	Items         []models.CartLine `json:"items"`
}

// KafkaOrderEvents publishes envelopes keyed by session id.
type KafkaOrderEvents struct {
	publisher MessagePublisher
	producer  string
}

func NewKafkaOrderEvents(publisher MessagePublisher, producer string) *KafkaOrderEvents {
	return &KafkaOrderEvents{publisher: publisher, producer: producer}
}

func (e *KafkaOrderEvents) OrderPaid(ctx context.Context, order *models.Order) error {
	env, err := kafka.NewEnvelope(EventOrderPaid, e.producer, order.SessionID, OrderPaidPayload{
		OrderID:       order.ID,
		SessionID:     order.SessionID,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		Currency:      order.Currency,
		Items:         order.Items,
	})
	if err != nil {
		return err
	}
	return e.publisher.Publish(ctx, []byte(order.SessionID), kafka.MustMarshal(env),
		kafkago.Header{Key: "event_type", Value: []byte(EventOrderPaid)},
	)
}
