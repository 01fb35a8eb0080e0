package services_test

import (
	"context"
	"testing"

	"cybertronic/internal/models"
	"cybertronic/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Stock: models.StockMap{"M": {"red": 3}}},
		{ID: "2", Name: "Product B", Stock: models.StockMap{"L": {"blue": 1}}},
	}
	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	expectedProduct := &models.Product{ID: "1", Name: "Product A"}
	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	mockRepo.On("GetByID", "99").Return(nil, models.ErrProductNotFound).Once()
	product, err = service.GetProductByID(ctx, "99")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_SeedCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("empty catalog is seeded", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo)
		catalog := services.DemoCatalog()

		mockRepo.On("Count").Return(int64(0), nil).Once()
		mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Times(len(catalog))

		n, err := service.SeedCatalog(ctx, catalog)
		assert.NoError(t, err)
		assert.Equal(t, len(catalog), n)
		mockRepo.AssertExpectations(t)
	})

	t.Run("existing catalog is left alone", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo)

		mockRepo.On("Count").Return(int64(3), nil).Once()

		n, err := service.SeedCatalog(ctx, services.DemoCatalog())
		assert.NoError(t, err)
		assert.Zero(t, n)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestDemoCatalog_HasStockForEveryVariant(t *testing.T) {
	for _, p := range services.DemoCatalog() {
		for _, size := range p.Sizes {
			for _, color := range p.Colors {
				units, ok := p.Stock.Get(size, color)
				assert.True(t, ok, "%s %s/%s", p.ID, size, color)
				assert.Greater(t, units, 0)
				assert.True(t, p.Prices[size][color].IsPositive())
			}
		}
	}
}
