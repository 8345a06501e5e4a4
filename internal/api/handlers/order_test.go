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

func setupOrderTest() (*mocks.OrderService, *handlers.OrderHandler) {
	mockOrderService := new(mocks.OrderService)
	orderHandler := handlers.NewOrderHandler(mockOrderService)

	return mockOrderService, orderHandler
}

func validCheckoutBody(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(models.CheckoutRequest{
		Address: models.Address{
			Street:  "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
		},
		Location:      "Bengaluru",
		PaymentMethod: models.PaymentCashOnDelivery,
	})
	require.NoError(t, err)

	return body
}

func TestCheckoutHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Order Placed", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders/checkout", bytes.NewBuffer(validCheckoutBody(t)), userID, nil)
		recorder := httptest.NewRecorder()

		mockOrder := &models.Order{
			ID:          uuid.New(),
			BuyerID:     userID,
			Status:      models.StatusPending,
			TotalAmount: 2100,
		}

		mockOrderService.On("Checkout", mock.Anything, userID, mock.MatchedBy(func(req *models.CheckoutRequest) bool {
			return req.Location == "Bengaluru" && req.PaymentMethod == models.PaymentCashOnDelivery
		})).Return(mockOrder, nil).Once()

		// Act
		orderHandler.Checkout()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusCreated, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Data)

		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/orders/checkout", bytes.NewBuffer(validCheckoutBody(t)), nil)
		recorder := httptest.NewRecorder()

		// Act
		orderHandler.Checkout()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		mockOrderService.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Missing Address", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()

		requestBody := []byte(`{"location": "Bengaluru", "payment_method": "Cash on Delivery"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders/checkout", bytes.NewBuffer(requestBody), userID, nil)
		recorder := httptest.NewRecorder()

		// Act
		orderHandler.Checkout()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockOrderService.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Product No Longer Available", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders/checkout", bytes.NewBuffer(validCheckoutBody(t)), userID, nil)
		recorder := httptest.NewRecorder()

		mockOrderService.On("Checkout", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.ConflictError("Product is no longer available")).Once()

		// Act
		orderHandler.Checkout()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusConflict, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error.Message, "no longer available")

		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders/checkout", bytes.NewBuffer(validCheckoutBody(t)), userID, nil)
		recorder := httptest.NewRecorder()

		mockOrderService.On("Checkout", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.InvalidStateError("Cart is empty")).Once()

		// Act
		orderHandler.Checkout()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockOrderService.AssertExpectations(t)
	})
}

func TestGetOrderHandler(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success - Retrieve Order", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, userID, map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		mockOrder := &models.Order{ID: orderID, BuyerID: userID, Status: models.StatusPending}

		mockOrderService.On("GetOrderByID", mock.Anything, userID, orderID).Return(mockOrder, nil).Once()

		// Act
		orderHandler.Get()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Not The Buyer", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, userID, map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		mockOrderService.On("GetOrderByID", mock.Anything, userID, orderID).
			Return(nil, appErrors.ForbiddenError("Access denied")).Once()

		// Act
		orderHandler.Get()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid ID", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/not-a-uuid", nil, userID, map[string]string{"id": "not-a-uuid"})
		recorder := httptest.NewRecorder()

		// Act
		orderHandler.Get()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockOrderService.AssertNotCalled(t, "GetOrderByID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListOrdersHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Paginated List", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders?page=2&pageSize=5", nil, userID, nil)
		recorder := httptest.NewRecorder()

		orders := []models.Order{{ID: uuid.New(), BuyerID: userID}}

		mockOrderService.On("ListOrdersByBuyer", mock.Anything, userID, 2, 5).Return(orders, 11, nil).Once()

		// Act
		orderHandler.List()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp struct {
			Success bool                     `json:"success"`
			Data    models.PaginatedResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 11, resp.Data.Total)
		assert.Equal(t, 2, resp.Data.Page)
		assert.Equal(t, 5, resp.Data.PageSize)

		mockOrderService.AssertExpectations(t)
	})

	t.Run("Success - Defaults For Bad Page Params", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders?page=abc&pageSize=5000", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockOrderService.On("ListOrdersByBuyer", mock.Anything, userID, 1, 10).Return([]models.Order{}, 0, nil).Once()

		// Act
		orderHandler.List()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockOrderService.AssertExpectations(t)
	})
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success - Cancel Order", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()

		requestBody := []byte(`{"status": "Cancelled"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewBuffer(requestBody), userID, map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		mockOrder := &models.Order{ID: orderID, BuyerID: userID, Status: models.StatusCancelled}

		mockOrderService.On("UpdateOrderStatus", mock.Anything, userID, orderID, models.StatusCancelled).
			Return(mockOrder, nil).Once()

		// Act
		orderHandler.UpdateStatus()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockOrderService.AssertExpectations(t)
	})

	t.Run("Failure - Unknown Status", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()

		requestBody := []byte(`{"status": "Teleported"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewBuffer(requestBody), userID, map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		// Act
		orderHandler.UpdateStatus()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockOrderService.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Invalid Transition", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderTest()

		requestBody := []byte(`{"status": "Cancelled"}`)
		req := testutils.CreateTestRequestWithContext(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", bytes.NewBuffer(requestBody), userID, map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		mockOrderService.On("UpdateOrderStatus", mock.Anything, userID, orderID, models.StatusCancelled).
			Return(nil, appErrors.InvalidStateError("Cannot change status from Shipped to Cancelled")).Once()

		// Act
		orderHandler.UpdateStatus()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error.Message, "Cannot change status")

		mockOrderService.AssertExpectations(t)
	})
}
