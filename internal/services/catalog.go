package services

import (
	"cybertronic/internal/models"

	"github.com/shopspring/decimal"
)

// DemoCatalog returns the products seeded into an empty store.
func DemoCatalog() []models.Product {
	apparel := func(id, name, desc, image string, base string, sizes, colors []string, units int) models.Product {
		price := decimal.RequireFromString(base)
		prices := models.PriceMap{}
		stock := models.StockMap{}
		for _, sz := range sizes {
			prices[sz] = map[string]decimal.Decimal{}
			stock[sz] = map[string]int{}
			for _, c := range colors {
				prices[sz][c] = price
				stock[sz][c] = units
			}
		}
		return models.Product{
			ID:          id,
			Name:        name,
			Description: desc,
			ImageURL:    image,
			Sizes:       models.StringList(sizes),
			Colors:      models.StringList(colors),
			Prices:      prices,
			Stock:       stock,
		}
	}

	return []models.Product{
		apparel("cyber-tee", "Cybertronic Core Tee", "Breathable training tee.", "https://cdn.cybertronic.shop/tee.png",
			"29.99", []string{"S", "M", "L", "XL"}, []string{"black", "red", "white"}, 25),
		apparel("neon-hoodie", "Neon Circuit Hoodie", "Midweight hoodie with reflective print.", "https://cdn.cybertronic.shop/hoodie.png",
			"69.00", []string{"M", "L", "XL"}, []string{"black", "blue"}, 10),
		apparel("grip-shorts", "Grip Training Shorts", "Four-way stretch shorts with zip pocket.", "https://cdn.cybertronic.shop/shorts.png",
			"39.50", []string{"S", "M", "L"}, []string{"black", "grey"}, 15),
		apparel("pulse-cap", "Pulse Cap", "Adjustable cap.", "https://cdn.cybertronic.shop/cap.png",
			"19.99", []string{"One"}, []string{"black", "red"}, 40),
	}
}
