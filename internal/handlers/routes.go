package handlers

import (
	"cybertronic/internal/middleware"
	"cybertronic/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Routes groups every handler of the HTTP surface.
type Routes struct {
	Checkout     *CheckoutHandler
	Webhook      *WebhookHandler
	Inventory    *InventoryHandler
	Subscription *SubscriptionHandler
	Auth         *AuthHandler
	Orders       *OrderHandler
	Fulfillments *FulfillmentHandler

	AuthService *services.AuthService
	Logger      *zap.Logger
}

// Register mounts the storefront routes under /api and the operator routes under /api/admin.
func (r Routes) Register(router fiber.Router) {
	api := router.Group("/api")
	r.Checkout.RegisterRoutes(api)
	r.Webhook.RegisterRoutes(api)
	r.Inventory.RegisterRoutes(api)
	r.Subscription.RegisterRoutes(api)
	r.Auth.RegisterRoutes(api)

	admin := api.Group("/admin", middleware.AuthRequired(r.AuthService, r.Logger))
	r.Auth.RegisterAdminRoutes(admin)
	r.Orders.RegisterRoutes(admin)
	r.Fulfillments.RegisterRoutes(admin)
}
