package handlers

import (
	"errors"

	"cybertronic/internal/logging"
	"cybertronic/internal/models"
	"cybertronic/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FulfillmentHandler lets operators inspect and retry the side effects of paid sessions.
type FulfillmentHandler struct {
	service *services.FulfillmentService
	log     *zap.Logger
}

// NewFulfillmentHandler creates a new FulfillmentHandler.
func NewFulfillmentHandler(service *services.FulfillmentService, logger *zap.Logger) *FulfillmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentHandler{service: service, log: logger}
}

// RegisterRoutes registers the fulfillment routes. The router is expected to be protected.
func (h *FulfillmentHandler) RegisterRoutes(router fiber.Router) {
	routes := router.Group("/fulfillments")
	routes.Get("/", h.HandleList)
	routes.Get("/:sessionId", h.HandleGet)
	routes.Post("/:sessionId/retry", h.HandleRetry)
}

// HandleList lists fulfillments, optionally filtered by ?status=.
func (h *FulfillmentHandler) HandleList(c *fiber.Ctx) error {
	status := c.Query("status")
	switch status {
	case "", models.FulfillmentPending, models.FulfillmentCompleted, models.FulfillmentFailed:
	default:
		return validationFailed(c, map[string]string{
			"status": "Field 'status' failed on the 'oneof' tag",
		})
	}

	ctx := c.UserContext()
	list, err := h.service.List(ctx, status)
	if err != nil {
		logging.FromContext(ctx, h.log).Error("fulfillment_list_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve fulfillments",
			"error":   err.Error(),
		})
	}
	return c.JSON(list)
}

// HandleGet returns the fulfillment of one session.
func (h *FulfillmentHandler) HandleGet(c *fiber.Ctx) error {
	ctx := c.UserContext()
	f, err := h.service.Get(ctx, c.Params("sessionId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(f)
}

// HandleRetry puts a failed fulfillment back in the queue.
func (h *FulfillmentHandler) HandleRetry(c *fiber.Ctx) error {
	ctx := c.UserContext()
	f, err := h.service.Retry(ctx, c.Params("sessionId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(f)
}

func (h *FulfillmentHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrFulfillmentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Fulfillment not found"})
	case errors.Is(err, services.ErrFulfillmentNotFailed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Only failed fulfillments can be retried",
			"error":   err.Error(),
		})
	}
	logging.FromContext(c.UserContext(), h.log).Error("fulfillment_request_failed", zap.String("session_id", c.Params("sessionId")), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not process fulfillment request",
		"error":   err.Error(),
	})
}
