package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/secondhand-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/services/mocks"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupProductTest() (*mocks.ProductService, *handlers.ProductHandler) {
	mockProductService := new(mocks.ProductService)
	productHandler := handlers.NewProductHandler(mockProductService)

	return mockProductService, productHandler
}

func TestCreateProductHandler(t *testing.T) {
	sellerID := uuid.New()

	createRequest := models.CreateProductRequest{
		Title:       "Mountain Bike",
		Description: "Lightly used, serviced last month",
		Category:    "Sports & Outdoors",
		Condition:   "Good",
		Price:       8500,
		Location:    "Pune",
	}

	t.Run("Success - Product Created", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()

		requestBody, _ := json.Marshal(createRequest)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/products", bytes.NewBuffer(requestBody), sellerID, nil)
		recorder := httptest.NewRecorder()

		mockProduct := &models.Product{
			ID:       uuid.New(),
			SellerID: sellerID,
			Title:    createRequest.Title,
			Price:    createRequest.Price,
		}

		mockProductService.On("CreateProduct", mock.Anything, sellerID, mock.MatchedBy(func(req *models.CreateProductRequest) bool {
			return req.Title == "Mountain Bike" && req.Price == 8500
		})).Return(mockProduct, nil).Once()

		// Act
		productHandler.Create()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusCreated, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.True(t, resp.Success)

		mockProductService.AssertExpectations(t)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()

		requestBody, _ := json.Marshal(createRequest)
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/products", bytes.NewBuffer(requestBody), nil)
		recorder := httptest.NewRecorder()

		// Act
		productHandler.Create()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		mockProductService.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Missing Title", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()

		requestBody := []byte(`{"description": "no title", "category": "Books", "price": 100}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/products", bytes.NewBuffer(requestBody), sellerID, nil)
		recorder := httptest.NewRecorder()

		// Act
		productHandler.Create()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockProductService.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Unknown Category", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()

		requestBody, _ := json.Marshal(createRequest)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/products", bytes.NewBuffer(requestBody), sellerID, nil)
		recorder := httptest.NewRecorder()

		mockProductService.On("CreateProduct", mock.Anything, sellerID, mock.Anything).
			Return(nil, appErrors.AddValidationError("category", "unknown category")).Once()

		// Act
		productHandler.Create()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockProductService.AssertExpectations(t)
	})
}

func TestGetProductHandler(t *testing.T) {
	productID := uuid.New()

	t.Run("Success - Public Access Without Auth", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/"+productID.String(), nil, map[string]string{"id": productID.String()})
		recorder := httptest.NewRecorder()

		mockProduct := &models.Product{ID: productID, Title: "Ceramic Vase", Price: 350}

		mockProductService.On("GetProductByID", mock.Anything, productID).Return(mockProduct, nil).Once()

		// Act
		productHandler.Get()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.True(t, resp.Success)

		mockProductService.AssertExpectations(t)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/"+productID.String(), nil, map[string]string{"id": productID.String()})
		recorder := httptest.NewRecorder()

		mockProductService.On("GetProductByID", mock.Anything, productID).
			Return(nil, appErrors.NotFoundError("Product not found")).Once()

		// Act
		productHandler.Get()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		mockProductService.AssertExpectations(t)
	})
}

func TestListProductsHandler(t *testing.T) {
	t.Run("Success - Filters Parsed From Query", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products?search=vase&category=Home+%26+Garden&minPrice=100&maxPrice=500&page=2&pageSize=12", nil, nil)
		recorder := httptest.NewRecorder()

		products := []*models.Product{{ID: uuid.New(), Title: "Ceramic Vase"}}

		mockProductService.On("ListProducts", mock.Anything, mock.MatchedBy(func(filter *models.ProductFilter) bool {
			return filter.Search == "vase" &&
				filter.Category == "Home & Garden" &&
				filter.MinPrice != nil && *filter.MinPrice == 100 &&
				filter.MaxPrice != nil && *filter.MaxPrice == 500 &&
				filter.OnlyAvailable &&
				filter.Page == 2 && filter.PageSize == 12
		})).Return(products, 25, nil).Once()

		// Act
		productHandler.List()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp struct {
			Success bool                     `json:"success"`
			Data    models.PaginatedResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, 25, resp.Data.Total)
		assert.Equal(t, 2, resp.Data.Page)

		mockProductService.AssertExpectations(t)
	})

	t.Run("Success - Sold Listings Included With available=false", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products?available=false", nil, nil)
		recorder := httptest.NewRecorder()

		mockProductService.On("ListProducts", mock.Anything, mock.MatchedBy(func(filter *models.ProductFilter) bool {
			return !filter.OnlyAvailable
		})).Return([]*models.Product{}, 0, nil).Once()

		// Act
		productHandler.List()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockProductService.AssertExpectations(t)
	})
}

func TestListBySellerHandler(t *testing.T) {
	sellerID := uuid.New()

	t.Run("Success - Sold Listings Included By Default", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/user/"+sellerID.String(), nil, map[string]string{"userId": sellerID.String()})
		recorder := httptest.NewRecorder()

		products := []*models.Product{
			{ID: uuid.New(), SellerID: sellerID, Title: "Ceramic Vase", IsAvailable: true},
			{ID: uuid.New(), SellerID: sellerID, Title: "Sold Lamp", IsAvailable: false},
		}

		mockProductService.On("ListProducts", mock.Anything, mock.MatchedBy(func(filter *models.ProductFilter) bool {
			return filter.SellerID != nil && *filter.SellerID == sellerID && !filter.OnlyAvailable
		})).Return(products, 2, nil).Once()

		// Act
		productHandler.ListBySeller()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp struct {
			Success bool                     `json:"success"`
			Data    models.PaginatedResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Total)

		mockProductService.AssertExpectations(t)
	})

	t.Run("Success - available=true Narrows To Live Listings", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/user/"+sellerID.String()+"?available=true", nil, map[string]string{"userId": sellerID.String()})
		recorder := httptest.NewRecorder()

		mockProductService.On("ListProducts", mock.Anything, mock.MatchedBy(func(filter *models.ProductFilter) bool {
			return filter.SellerID != nil && *filter.SellerID == sellerID && filter.OnlyAvailable
		})).Return([]*models.Product{}, 0, nil).Once()

		// Act
		productHandler.ListBySeller()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockProductService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Seller ID", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/user/not-a-uuid", nil, map[string]string{"userId": "not-a-uuid"})
		recorder := httptest.NewRecorder()

		// Act
		productHandler.ListBySeller()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockProductService.AssertNotCalled(t, "ListProducts")
	})
}

func TestCategoriesHandler(t *testing.T) {
	t.Run("Success - Categories And Conditions Returned", func(t *testing.T) {
		// Arrange
		_, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/categories", nil, nil)
		recorder := httptest.NewRecorder()

		// Act
		productHandler.Categories()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp struct {
			Success bool                `json:"success"`
			Data    map[string][]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, models.ProductCategories, resp.Data["categories"])
		assert.Equal(t, models.ProductConditions, resp.Data["conditions"])
	})
}

func TestUpdateProductHandler(t *testing.T) {
	sellerID := uuid.New()
	productID := uuid.New()

	t.Run("Success - Price Updated", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()

		requestBody := []byte(`{"price": 7000}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/products/"+productID.String(), bytes.NewBuffer(requestBody), sellerID, map[string]string{"id": productID.String()})
		recorder := httptest.NewRecorder()

		mockProduct := &models.Product{ID: productID, SellerID: sellerID, Price: 7000}

		mockProductService.On("UpdateProduct", mock.Anything, sellerID, productID, mock.MatchedBy(func(req *models.UpdateProductRequest) bool {
			return req.Price != nil && *req.Price == 7000
		})).Return(mockProduct, nil).Once()

		// Act
		productHandler.Update()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockProductService.AssertExpectations(t)
	})

	t.Run("Failure - Not The Seller", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()

		requestBody := []byte(`{"price": 7000}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/products/"+productID.String(), bytes.NewBuffer(requestBody), sellerID, map[string]string{"id": productID.String()})
		recorder := httptest.NewRecorder()

		mockProductService.On("UpdateProduct", mock.Anything, sellerID, productID, mock.Anything).
			Return(nil, appErrors.ForbiddenError("You can only update your own listings")).Once()

		// Act
		productHandler.Update()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		mockProductService.AssertExpectations(t)
	})
}

func TestDeleteProductHandler(t *testing.T) {
	sellerID := uuid.New()
	productID := uuid.New()

	t.Run("Success - Product Deleted", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/products/"+productID.String(), nil, sellerID, map[string]string{"id": productID.String()})
		recorder := httptest.NewRecorder()

		mockProductService.On("DeleteProduct", mock.Anything, sellerID, productID).Return(nil).Once()

		// Act
		productHandler.Delete()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.True(t, resp.Success)

		mockProductService.AssertExpectations(t)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mockProductService, productHandler := setupProductTest()
		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/products/"+productID.String(), nil, sellerID, map[string]string{"id": productID.String()})
		recorder := httptest.NewRecorder()

		mockProductService.On("DeleteProduct", mock.Anything, sellerID, productID).
			Return(appErrors.NotFoundError("Product not found")).Once()

		// Act
		productHandler.Delete()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		mockProductService.AssertExpectations(t)
	})
}
