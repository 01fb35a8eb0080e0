package handlers

import (
	"errors"

	"cybertronic/internal/logging"
	"cybertronic/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SubscribeRequest represents the request body for a newsletter sign-up.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// SubscriptionHandler handles newsletter sign-ups.
type SubscriptionHandler struct {
	service *services.SubscriptionService
	log     *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(service *services.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionHandler{service: service, log: logger}
}

// RegisterRoutes registers the subscription routes with the Fiber app.
func (h *SubscriptionHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/email-subscription", h.HandleSubscribe)
	router.All("/email-subscription", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"message": "Method not allowed"})
	})
}

// HandleSubscribe stores the posted email address.
func (h *SubscriptionHandler) HandleSubscribe(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	ctx := c.UserContext()
	if err := h.service.Subscribe(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail):
			return validationFailed(c, map[string]string{
				"email": "Field 'email' failed on the 'email' tag",
			})
		case errors.Is(err, services.ErrAlreadySubscribed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already subscribed"})
		}
		logging.FromContext(ctx, h.log).Error("subscription_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not subscribe",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Subscribed successfully"})
}
