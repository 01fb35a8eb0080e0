package handlers

import (
	"errors"

	"cybertronic/internal/logging"
	"cybertronic/internal/models"
	"cybertronic/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler serves recorded orders to operators.
type OrderHandler struct {
	service *services.OrderService
	log     *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{service: service, log: logger}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:sessionId", h.HandleGetOrder)
}

// HandleGetOrders lists every recorded order.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	ctx := c.UserContext()
	orders, err := h.service.ListOrders(ctx)
	if err != nil {
		logging.FromContext(ctx, h.log).Error("order_list_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrder returns the full order of one payment session.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sessionID := c.Params("sessionId")
	order, err := h.service.GetOrder(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Order not found"})
		}
		logging.FromContext(ctx, h.log).Error("order_get_failed", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}
