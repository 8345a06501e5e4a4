// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*models.User), args.Error(1)
}

type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *ProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *ProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *ProductRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProductRepository) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Product), args.Int(1), args.Error(2)
}

func (m *ProductRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *CartRepository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	args := m.Called(ctx, cartID, productID, quantity)
	return args.Error(0)
}

func (m *CartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	args := m.Called(ctx, cartID, itemID, quantity)
	return args.Error(0)
}

func (m *CartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	args := m.Called(ctx, cartID, itemID)
	return args.Error(0)
}

func (m *CartRepository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *OrderRepository) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, buyerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Order), args.Int(1), args.Error(2)
}

func (m *OrderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.Status, restoreProducts bool) error {
	args := m.Called(ctx, id, status, restoreProducts)
	return args.Error(0)
}

type PurchaseRepository struct {
	mock.Mock
}

func (m *PurchaseRepository) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Purchase), args.Error(1)
}

func (m *PurchaseRepository) ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {
	args := m.Called(ctx, buyerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Purchase), args.Int(1), args.Error(2)
}

func (m *PurchaseRepository) ListPurchasesBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {
	args := m.Called(ctx, sellerID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Purchase), args.Int(1), args.Error(2)
}

func (m *PurchaseRepository) UpdatePurchaseStatus(ctx context.Context, id uuid.UUID, status models.Status, restoreProducts bool) error {
	args := m.Called(ctx, id, status, restoreProducts)
	return args.Error(0)
}

type CheckoutRepository struct {
	mock.Mock
}

func (m *CheckoutRepository) CreateOrderFromCart(ctx context.Context, order *models.Order, cartID uuid.UUID) error {
	args := m.Called(ctx, order, cartID)
	return args.Error(0)
}

func (m *CheckoutRepository) CreateDirectOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *CheckoutRepository) CreatePurchasesFromCart(ctx context.Context, purchases []*models.Purchase, cartID uuid.UUID) error {
	args := m.Called(ctx, purchases, cartID)
	return args.Error(0)
}
