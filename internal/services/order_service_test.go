package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cybertronic/internal/models"
	"cybertronic/internal/repositories"
	"cybertronic/internal/services"
	"cybertronic/internal/testutil"
	"cybertronic/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func completedSession(id string, amount int64) models.CompletedSession {
	return models.CompletedSession{
		ID:            id,
		AmountTotal:   amount,
		Currency:      "USD",
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Ada Buyer",
		ShippingAddress: models.Address{
			Name: "Ada Buyer", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
	}
}

func TestOrderService_RecordPaidOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	events := new(MockOrderEvents)
	svc := services.NewOrderService(repositories.NewGORMOrderRepository(db), events, zap.NewNop())
	ctx := context.Background()
	lines := []models.CartLine{line("p1", "M", "red", 2)}

	events.On("OrderPaid", "cs_1").Return(nil).Once()

	order, created, err := svc.RecordPaidOrder(ctx, completedSession("cs_1", 9998), lines)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "99.98", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "usd", order.Currency)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, models.CartLines(lines), order.Items)
	assert.NotEmpty(t, order.ID)

	again, created, err := svc.RecordPaidOrder(ctx, completedSession("cs_1", 9998), lines)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, order.ID, again.ID)

	summaries, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "cs_1", summaries[0].SessionID)
	events.AssertExpectations(t)
}

func TestOrderService_EventFailureIsNotFatal(t *testing.T) {
	db := testutil.NewTestDB(t)
	events := new(MockOrderEvents)
	svc := services.NewOrderService(repositories.NewGORMOrderRepository(db), events, zap.NewNop())

	events.On("OrderPaid", "cs_1").Return(errors.New("broker down")).Once()

	_, created, err := svc.RecordPaidOrder(context.Background(), completedSession("cs_1", 100), nil)
	assert.NoError(t, err)
	assert.True(t, created)
}

func TestKafkaOrderEvents_OrderPaid(t *testing.T) {
	pub := new(MockPublisher)
	events := services.NewKafkaOrderEvents(pub, "cybertronic")

	var sent []byte
	pub.On("Publish", []byte("cs_1"), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]byte) }).
		Return(nil).Once()

	order := &models.Order{ID: "o-1", SessionID: "cs_1", CustomerEmail: "buyer@example.com", Currency: "usd",
		Items: models.CartLines{line("p1", "M", "red", 1)}}
	require.NoError(t, events.OrderPaid(context.Background(), order))
	pub.AssertExpectations(t)

	var env kafka.Envelope
	require.NoError(t, json.Unmarshal(sent, &env))
	assert.Equal(t, services.EventOrderPaid, env.EventType)
	assert.Equal(t, "cs_1", env.CorrelationID)

	payload, err := kafka.UnwrapPayload[services.OrderPaidPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "o-1", payload.OrderID)
	assert.Equal(t, "0.00", payload.TotalAmount)
	assert.Len(t, payload.Items, 1)
}
