// Package mocks provides testify mocks for the service interfaces.
package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type ProductService struct {
	mock.Mock
}

func (m *ProductService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req *models.CreateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductService) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]*models.Product), args.Int(1), args.Error(2)
}

func (m *ProductService) UpdateProduct(ctx context.Context, userID, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductService) DeleteProduct(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)

	return args.Error(0)
}

type CartService struct {
	mock.Mock
}

func (m *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {
	args := m.Called(ctx, userID, itemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Cart), args.Error(1)
}

type OrderService struct {
	mock.Mock
}

func (m *OrderService) Checkout(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.Order, error) {
	args := m.Called(ctx, buyerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderService) GetOrderByID(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderService) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, buyerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]models.Order), args.Int(1), args.Error(2)
}

func (m *OrderService) UpdateOrderStatus(ctx context.Context, userID, id uuid.UUID, status models.Status) (*models.Order, error) {
	args := m.Called(ctx, userID, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Order), args.Error(1)
}

type PurchaseService struct {
	mock.Mock
}

func (m *PurchaseService) Checkout(ctx context.Context, buyerID uuid.UUID, req *models.PurchaseCheckoutRequest) ([]*models.Purchase, error) {
	args := m.Called(ctx, buyerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Purchase), args.Error(1)
}

func (m *PurchaseService) GetPurchaseByID(ctx context.Context, userID, id uuid.UUID) (*models.Purchase, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Purchase), args.Error(1)
}

func (m *PurchaseService) ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {
	args := m.Called(ctx, buyerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]models.Purchase), args.Int(1), args.Error(2)
}

func (m *PurchaseService) ListPurchasesBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {
	args := m.Called(ctx, sellerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]models.Purchase), args.Int(1), args.Error(2)
}

func (m *PurchaseService) UpdatePurchaseStatus(ctx context.Context, sellerID, id uuid.UUID, status models.Status) (*models.Purchase, error) {
	args := m.Called(ctx, sellerID, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Purchase), args.Error(1)
}
