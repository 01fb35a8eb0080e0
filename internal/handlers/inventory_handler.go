package handlers

import (
	"errors"

	"cybertronic/internal/logging"
	"cybertronic/internal/models"
	"cybertronic/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// InventoryHandler serves the read-only catalog and order listing.
type InventoryHandler struct {
	products *services.ProductService
	orders   *services.OrderService
	log      *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(products *services.ProductService, orders *services.OrderService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{products: products, orders: orders, log: logger}
}

// RegisterRoutes registers the inventory routes with the Fiber app.
func (h *InventoryHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/inventory", h.HandleInventory)
}

// HandleInventory returns one product when productId is given, the order list when
// fetchOrders=true, and the whole catalog otherwise.
func (h *InventoryHandler) HandleInventory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger := logging.FromContext(ctx, h.log)

	if id := c.Query("productId"); id != "" {
		product, err := h.products.GetProductByID(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrProductNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
			}
			logger.Error("inventory_product_failed", zap.String("product_id", id), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not retrieve product",
				"error":   err.Error(),
			})
		}
		return c.JSON(product)
	}

	if c.QueryBool("fetchOrders") {
		orders, err := h.orders.ListOrders(ctx)
		if err != nil {
			logger.Error("inventory_orders_failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not retrieve orders",
				"error":   err.Error(),
			})
		}
		return c.JSON(orders)
	}

	products, err := h.products.GetAllProducts(ctx)
	if err != nil {
		logger.Error("inventory_products_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}
