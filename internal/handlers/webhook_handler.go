package handlers

import (
	"cybertronic/internal/logging"
	"cybertronic/internal/metrics"
	"cybertronic/internal/payments"
	"cybertronic/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const signatureHeader = "Stripe-Signature"

// WebhookHandler receives payment provider events.
type WebhookHandler struct {
	verifier    *payments.Verifier
	fulfillment *services.FulfillmentService
	// dedup is optional; without it redeliveries are absorbed by the idempotent record.
	dedup   services.EventDeduper
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler. dedup may be nil.
func NewWebhookHandler(
	verifier *payments.Verifier,
	fulfillment *services.FulfillmentService,
	dedup services.EventDeduper,
	m *metrics.Metrics,
	logger *zap.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		verifier:    verifier,
		fulfillment: fulfillment,
		dedup:       dedup,
		metrics:     m,
		log:         logger,
	}
}

// RegisterRoutes registers the webhook routes with the Fiber app.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhook", h.HandleWebhook)
	router.Post("/update-stock", h.HandleUpdateStock)
}

// verify authenticates the delivery. When it fails the 400 response has already been written
// and ok is false.
func (h *WebhookHandler) verify(c *fiber.Ctx) (ev payments.Event, ok bool, err error) {
	ev, verr := h.verifier.Verify(c.Body(), c.Get(signatureHeader))
	if verr != nil {
		h.metrics.WebhookEvent("unknown", "rejected")
		logging.FromContext(c.UserContext(), h.log).Warn("webhook_signature_rejected", zap.Error(verr))
		return ev, false, c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + verr.Error())
	}
	return ev, true, nil
}

// HandleWebhook records the side effects of a completed checkout and acknowledges the delivery.
// Once the signature checks out the response is always 200; pending work is retried from the
// durable record, not from provider redelivery.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	ev, ok, err := h.verify(c)
	if !ok {
		return err
	}
	ctx := c.UserContext()
	logger := logging.FromContext(ctx, h.log).With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	if ev.Type != payments.EventCheckoutSessionCompleted {
		h.metrics.WebhookEvent(ev.Type, "ignored")
		logger.Info("webhook_unhandled_event")
		return c.JSON(fiber.Map{"received": true})
	}

	if h.dedup != nil {
		seen, err := h.dedup.Seen(ctx, ev.ID)
		switch {
		case err != nil:
			logger.Warn("webhook_dedup_unavailable", zap.Error(err))
		case seen:
			h.metrics.WebhookEvent(ev.Type, "duplicate")
			logger.Info("webhook_duplicate_event")
			return c.JSON(fiber.Map{"received": true})
		}
	}

	if _, err := h.fulfillment.Record(ctx, ev.ID, *ev.Session); err != nil {
		h.metrics.WebhookEvent(ev.Type, "record_failed")
		logger.Error("webhook_record_failed", zap.String("session_id", ev.Session.ID), zap.Error(err))
		return c.JSON(fiber.Map{"received": true})
	}

	if h.dedup != nil {
		if err := h.dedup.Mark(ctx, ev.ID); err != nil {
			logger.Warn("webhook_dedup_mark_failed", zap.Error(err))
		}
	}
	h.metrics.WebhookEvent(ev.Type, "recorded")
	return c.JSON(fiber.Map{"received": true})
}

// HandleUpdateStock records a completed checkout and reconciles its stock before responding.
// The receipt is left to the fulfillment workers.
func (h *WebhookHandler) HandleUpdateStock(c *fiber.Ctx) error {
	ev, ok, err := h.verify(c)
	if !ok {
		return err
	}
	ctx := c.UserContext()
	logger := logging.FromContext(ctx, h.log).With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	if ev.Type != payments.EventCheckoutSessionCompleted {
		h.metrics.WebhookEvent(ev.Type, "ignored")
		logger.Info("webhook_unhandled_event")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Unhandled event type"})
	}

	if _, err := h.fulfillment.Record(ctx, ev.ID, *ev.Session); err != nil {
		h.metrics.WebhookEvent(ev.Type, "record_failed")
		logger.Error("webhook_record_failed", zap.String("session_id", ev.Session.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not record payment",
			"error":   err.Error(),
		})
	}

	f, err := h.fulfillment.ProcessSteps(ctx, ev.Session.ID, services.StepOrder, services.StepStock)
	if err != nil {
		h.metrics.WebhookEvent(ev.Type, "stock_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update stock",
			"error":   err.Error(),
		})
	}

	h.metrics.WebhookEvent(ev.Type, "recorded")
	return c.JSON(fiber.Map{"received": true, "stock": f.StockReport})
}
