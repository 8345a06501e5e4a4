package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	cacheMocks "github.com/aaravmahajanofficial/secondhand-marketplace/internal/cache/mocks"
	appErrors "github.com/aaravmahajanofficial/secondhand-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/secondhand-marketplace/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProductService(t *testing.T) (service.ProductService, *mocks.ProductRepository, *cacheMocks.Cache) {
	t.Helper()

	repo := new(mocks.ProductRepository)
	productCache := new(cacheMocks.Cache)

	return service.NewProductService(repo, productCache, 10*time.Minute), repo, productCache
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	sellerID := uuid.New()

	validReq := func() *models.CreateProductRequest {
		return &models.CreateProductRequest{
			Title:       "Mountain Bike",
			Description: "Barely used, serviced last month",
			Category:    "Sports & Outdoors",
			Condition:   "Like New",
			Price:       7500,
			Location:    "Pune",
			Tags:        []string{"bike", "outdoor"},
		}
	}

	t.Run("Success", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		repo.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
			return p.SellerID == sellerID && p.IsAvailable && p.Title == "Mountain Bike"
		})).Return(nil).Once()

		product, err := svc.CreateProduct(ctx, sellerID, validReq())

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, product.ID)
		assert.True(t, product.IsAvailable)
		assert.Equal(t, "Like New", product.Condition)
		repo.AssertExpectations(t)
	})

	t.Run("Success - Markup Is Stripped", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		req := validReq()
		req.Title = `Bike <script>alert("x")</script>`
		req.Description = `<b>Great</b> condition`

		repo.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil).Once()

		product, err := svc.CreateProduct(ctx, sellerID, req)

		require.NoError(t, err)
		assert.NotContains(t, product.Title, "<script>")
		assert.NotContains(t, product.Description, "<b>")
	})

	t.Run("Success - Default Condition", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		req := validReq()
		req.Condition = ""

		repo.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil).Once()

		product, err := svc.CreateProduct(ctx, sellerID, req)

		require.NoError(t, err)
		assert.Equal(t, "Good", product.Condition)
	})

	t.Run("Failure - Unknown Category", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		req := validReq()
		req.Category = "Spaceships"

		product, err := svc.CreateProduct(ctx, sellerID, req)

		assert.Nil(t, product)
		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeValidation, appErr.Code)
		repo.AssertNotCalled(t, "CreateProduct")
	})
}

func TestGetProductByID(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("Success - Cache Miss Reads Repo And Counts View", func(t *testing.T) {
		svc, repo, productCache := newProductService(t)

		expected := &models.Product{ID: productID, Title: "Armchair", Price: 1800, IsAvailable: true}

		productCache.On("Get", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(false, nil).Once()
		repo.On("GetProductByID", mock.Anything, productID).Return(expected, nil).Once()
		repo.On("IncrementViews", mock.Anything, productID).Return(nil).Once()
		productCache.On("Set", mock.Anything, mock.AnythingOfType("string"), expected, 10*time.Minute).Return(nil).Once()

		product, err := svc.GetProductByID(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, expected, product)
		repo.AssertExpectations(t)
		productCache.AssertExpectations(t)
	})

	t.Run("Success - Cache Hit Skips Repo But Still Counts View", func(t *testing.T) {
		svc, repo, productCache := newProductService(t)

		productCache.On("Get", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(true, nil).Once()
		repo.On("IncrementViews", mock.Anything, productID).Return(nil).Once()

		product, err := svc.GetProductByID(ctx, productID)

		require.NoError(t, err)
		assert.NotNil(t, product)
		repo.AssertNotCalled(t, "GetProductByID")
		repo.AssertExpectations(t)
	})

	t.Run("Success - View Counter Failure Is Tolerated", func(t *testing.T) {
		svc, repo, productCache := newProductService(t)

		expected := &models.Product{ID: productID, Title: "Armchair"}

		productCache.On("Get", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(false, nil).Once()
		repo.On("GetProductByID", mock.Anything, productID).Return(expected, nil).Once()
		repo.On("IncrementViews", mock.Anything, productID).Return(errors.New("deadlock")).Once()
		productCache.On("Set", mock.Anything, mock.AnythingOfType("string"), expected, 10*time.Minute).Return(nil).Once()

		product, err := svc.GetProductByID(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, expected, product)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		svc, repo, productCache := newProductService(t)

		productCache.On("Get", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(false, nil).Once()
		repo.On("GetProductByID", mock.Anything, productID).Return(nil, sql.ErrNoRows).Once()

		product, err := svc.GetProductByID(ctx, productID)

		assert.Nil(t, product)
		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Defaults Applied", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		filter := &models.ProductFilter{}

		repo.On("ListProducts", mock.Anything, mock.MatchedBy(func(f *models.ProductFilter) bool {
			return f.Page == 1 && f.PageSize == 12
		})).Return([]*models.Product{}, 0, nil).Once()

		_, total, err := svc.ListProducts(ctx, filter)

		assert.NoError(t, err)
		assert.Zero(t, total)
		repo.AssertExpectations(t)
	})

	t.Run("Success - Oversized Page Clamped", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		filter := &models.ProductFilter{Page: 3, PageSize: 5000}

		repo.On("ListProducts", mock.Anything, mock.MatchedBy(func(f *models.ProductFilter) bool {
			return f.Page == 3 && f.PageSize == 12
		})).Return([]*models.Product{}, 40, nil).Once()

		_, total, err := svc.ListProducts(ctx, filter)

		assert.NoError(t, err)
		assert.Equal(t, 40, total)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	sellerID := uuid.New()
	productID := uuid.New()

	existing := func() *models.Product {
		return &models.Product{
			ID:          productID,
			SellerID:    sellerID,
			Title:       "Old Title",
			Category:    "Furniture",
			Condition:   "Good",
			Price:       1000,
			IsAvailable: true,
		}
	}

	t.Run("Success - Partial Update And Cache Invalidation", func(t *testing.T) {
		svc, repo, productCache := newProductService(t)

		newPrice := 900.0
		repo.On("GetProductByID", mock.Anything, productID).Return(existing(), nil).Once()
		repo.On("UpdateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
			return p.Price == newPrice && p.Title == "Old Title"
		})).Return(nil).Once()
		productCache.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

		product, err := svc.UpdateProduct(ctx, sellerID, productID, &models.UpdateProductRequest{Price: &newPrice})

		require.NoError(t, err)
		assert.Equal(t, newPrice, product.Price)
		productCache.AssertExpectations(t)
	})

	t.Run("Failure - Not The Seller", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		repo.On("GetProductByID", mock.Anything, productID).Return(existing(), nil).Once()

		newTitle := "Hijacked"
		product, err := svc.UpdateProduct(ctx, uuid.New(), productID, &models.UpdateProductRequest{Title: &newTitle})

		assert.Nil(t, product)
		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeForbidden, appErr.Code)
		repo.AssertNotCalled(t, "UpdateProduct")
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	sellerID := uuid.New()
	productID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, repo, productCache := newProductService(t)

		repo.On("GetProductByID", mock.Anything, productID).
			Return(&models.Product{ID: productID, SellerID: sellerID}, nil).Once()
		repo.On("DeleteProduct", mock.Anything, productID).Return(nil).Once()
		productCache.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

		err := svc.DeleteProduct(ctx, sellerID, productID)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Failure - Not The Seller", func(t *testing.T) {
		svc, repo, _ := newProductService(t)

		repo.On("GetProductByID", mock.Anything, productID).
			Return(&models.Product{ID: productID, SellerID: uuid.New()}, nil).Once()

		err := svc.DeleteProduct(ctx, sellerID, productID)

		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeForbidden, appErr.Code)
		repo.AssertNotCalled(t, "DeleteProduct")
	})
}
