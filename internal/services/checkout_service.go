package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cybertronic/internal/logging"
	"cybertronic/internal/metrics"
	"cybertronic/internal/models"
	"cybertronic/internal/payments"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("cart is empty")

// ValidationError carries per-field messages in the shape handlers return to clients.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CheckoutRequest is the body of a checkout session request.
type CheckoutRequest struct {
	CartItems []models.CartItem `json:"cartItems"`
	Email     string            `json:"email"`
}

// CheckoutService turns a cart into a hosted payment session. It never touches stock.
type CheckoutService struct {
	gateway  PaymentGateway
	validate *validator.Validate
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewCheckoutService(gateway PaymentGateway, m *metrics.Metrics, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		gateway:  gateway,
		validate: validator.New(),
		metrics:  m,
		log:      logger,
	}
}

// CreateSession validates the cart and creates a payment session, returning its id.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if len(req.CartItems) == 0 {
		s.metrics.CheckoutSession("empty_cart")
		return "", ErrEmptyCart
	}
	if err := s.validateRequest(req); err != nil {
		s.metrics.CheckoutSession("invalid")
		return "", err
	}

	id, err := s.gateway.CreateCheckoutSession(ctx, payments.SessionRequest{
		Items:         req.CartItems,
		CustomerEmail: req.Email,
	})
	if err != nil {
		if errors.Is(err, payments.ErrCartTooLarge) {
			s.metrics.CheckoutSession("invalid")
			return "", err
		}
		s.metrics.CheckoutSession("provider_error")
		logging.FromContext(ctx, s.log).Error("checkout_session_failed",
			zap.Int("items", len(req.CartItems)),
			zap.Error(err),
		)
		return "", err
	}

	s.metrics.CheckoutSession("created")
	logging.FromContext(ctx, s.log).Info("checkout_session_created",
		zap.String("session_id", id),
		zap.Int("items", len(req.CartItems)),
	)
	return id, nil
}

func (s *CheckoutService) validateRequest(req CheckoutRequest) error {
	fields := make(map[string]string)
	for i, item := range req.CartItems {
		if err := s.validate.Struct(item); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("validate cart item %d: %w", i, err)
			}
			for _, e := range verrs {
				fields[fmt.Sprintf("cartItems[%d].%s", i, e.Field())] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
		if item.Price.IsNegative() {
			fields[fmt.Sprintf("cartItems[%d].Price", i)] = "Field 'Price' must not be negative"
		}
	}
	if req.Email != "" {
		if err := s.validate.Var(req.Email, "email"); err != nil {
			fields["email"] = "Field 'email' failed on the 'email' tag"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
