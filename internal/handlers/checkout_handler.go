package handlers

import (
	"errors"

	"cybertronic/internal/payments"
	"cybertronic/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles HTTP requests that start a checkout.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/create-checkout-session", h.HandleCreateSession)
}

// HandleCreateSession creates a hosted payment session for the posted cart.
func (h *CheckoutHandler) HandleCreateSession(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, err)
		}
	}

	id, err := h.service.CreateSession(c.UserContext(), req)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cart is empty"})
		case errors.As(err, &verr):
			return validationFailed(c, verr.Fields)
		case errors.Is(err, payments.ErrCartTooLarge):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cart is too large",
				"error":   err.Error(),
			})
		}
		// Provider failures are logged by the service.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create checkout session",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"id": id})
}
