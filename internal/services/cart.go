package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	appErrors "github.com/aaravmahajanofficial/secondhand-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/secondhand-marketplace/internal/repositories"
	"github.com/google/uuid"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart creates the cart lazily on first access and never returns nil.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	cart, err = s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to create cart").WithError(err)
	}

	cart.ComputeTotals()

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	if quantity < 1 {
		return nil, appErrors.ValidationError("Quantity must be at least 1")
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if !product.IsAvailable {
		return nil, appErrors.InvalidStateError("Product is not available")
	}

	if product.SellerID == userID {
		return nil, appErrors.ForbiddenError("Cannot add your own product to cart")
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to create cart").WithError(err)
	}

	if err := s.cartRepo.UpsertItem(ctx, cart.ID, req.ProductID, quantity); err != nil {
		return nil, appErrors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	return s.enrichedCart(ctx, userID, cart), nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {

	if req.Quantity < 1 {
		return nil, appErrors.ValidationError("Quantity must be at least 1")
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Cart not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, req.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Item not found in cart").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to update cart item").WithError(err)
	}

	return s.enrichedCart(ctx, userID, cart), nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Cart not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if err := s.cartRepo.RemoveItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Item not found in cart").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to remove cart item").WithError(err)
	}

	return s.enrichedCart(ctx, userID, cart), nil
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Cart not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if err := s.cartRepo.ClearCart(ctx, cart.ID); err != nil {
		return nil, appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	cart.Items = []models.CartItem{}
	cart.ComputeTotals()

	return cart, nil
}

// enrichedCart re-reads the cart with product and seller fields resolved.
// The mutation has already been committed, so a failed re-read only costs
// the enrichment, never the mutation.
func (s *cartService) enrichedCart(ctx context.Context, userID uuid.UUID, fallback *models.Cart) *models.Cart {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		slog.Warn("Failed to enrich cart after mutation", slog.String("error", err.Error()))

		fallback.ComputeTotals()

		return fallback
	}

	return cart
}
