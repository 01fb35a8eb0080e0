package services

import (
	"context"
	"fmt"
	"strings"

	"cybertronic/internal/logging"
	"cybertronic/internal/models"
	"cybertronic/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	events    OrderEvents
	log       *zap.Logger
}

// NewOrderService creates a new OrderService. A nil events publisher disables order events.
func NewOrderService(orderRepo repositories.OrderRepository, events OrderEvents, logger *zap.Logger) *OrderService {
	if events == nil {
		events = NopOrderEvents{}
	}
	return &OrderService{
		orderRepo: orderRepo,
		events:    events,
		log:       logger,
	}
}

// RecordPaidOrder persists the order for a completed session. A session that already has an
// order is left as is and created is false.
func (s *OrderService) RecordPaidOrder(ctx context.Context, cs models.CompletedSession, lines []models.CartLine) (*models.Order, bool, error) {
	order := &models.Order{
		SessionID:       cs.ID,
		CustomerEmail:   cs.CustomerEmail,
		CustomerName:    cs.CustomerName,
		CustomerPhone:   cs.CustomerPhone,
		ShippingAddress: cs.ShippingAddress,
		BillingAddress:  cs.BillingAddress,
		Items:           models.CartLines(lines),
		TotalAmount:     decimal.New(cs.AmountTotal, -2),
		Currency:        strings.ToLower(cs.Currency),
		Status:          models.OrderStatusPaid,
	}

	created, err := s.orderRepo.CreateIfAbsent(ctx, order)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record order for session %s: %w", cs.ID, err)
	}

	logger := logging.FromContext(ctx, s.log).With(zap.String("session_id", cs.ID))
	if !created {
		logger.Info("order_already_recorded")
		existing, err := s.orderRepo.GetBySessionID(ctx, cs.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	logger.Info("order_recorded",
		zap.String("order_id", order.ID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
	)
	if err := s.events.OrderPaid(ctx, order); err != nil {
		logger.Warn("order_event_publish_failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, true, nil
}

// GetOrder returns the order recorded for a session.
func (s *OrderService) GetOrder(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.orderRepo.GetBySessionID(ctx, sessionID)
}

// ListOrders returns every order in the inventory projection.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.OrderSummary, error) {
	return s.orderRepo.ListSummaries(ctx)
}
