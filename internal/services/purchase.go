package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/cache"
	appErrors "github.com/aaravmahajanofficial/secondhand-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/metrics"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/secondhand-marketplace/internal/repositories"
	"github.com/google/uuid"
)

type PurchaseService interface {
	Checkout(ctx context.Context, buyerID uuid.UUID, req *models.PurchaseCheckoutRequest) ([]*models.Purchase, error)
	GetPurchaseByID(ctx context.Context, userID, id uuid.UUID) (*models.Purchase, error)
	ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Purchase, int, error)
	ListPurchasesBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]models.Purchase, int, error)
	UpdatePurchaseStatus(ctx context.Context, sellerID, id uuid.UUID, status models.Status) (*models.Purchase, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	cartRepo     repository.CartRepository
	checkoutRepo repository.CheckoutRepository
	userRepo     repository.UserRepository
	productCache cache.Cache
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	cartRepo repository.CartRepository,
	checkoutRepo repository.CheckoutRepository,
	userRepo repository.UserRepository,
	productCache cache.Cache,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		cartRepo:     cartRepo,
		checkoutRepo: checkoutRepo,
		userRepo:     userRepo,
		productCache: productCache,
	}
}

// Checkout converts the cart into one purchase per seller. Every purchase
// shares the same shipping address and payment method; each carries only
// that seller's items and their subtotal.
func (s *purchaseService) Checkout(ctx context.Context, buyerID uuid.UUID, req *models.PurchaseCheckoutRequest) ([]*models.Purchase, error) {

	if !req.PaymentMethod.Valid() {
		return nil, appErrors.AddValidationError("payment_method", "unknown payment method")
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, buyerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.InvalidStateError("Cart is empty").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if len(cart.Items) == 0 {
		return nil, appErrors.InvalidStateError("Cart is empty")
	}

	bySeller := make(map[uuid.UUID]*models.Purchase)

	// seller order mirrors the order items were added in
	var purchases []*models.Purchase

	for _, item := range cart.Items {
		if item.Product == nil {
			return nil, appErrors.InternalError("Cart item is missing its product")
		}

		if !item.Product.IsAvailable {
			return nil, appErrors.InvalidStateError("Product is not available: " + item.Product.Title)
		}

		sellerID := item.Product.SellerID

		purchase, ok := bySeller[sellerID]
		if !ok {
			purchase = &models.Purchase{
				ID:              uuid.New(),
				BuyerID:         buyerID,
				SellerID:        sellerID,
				ShippingAddress: req.ShippingAddress,
				Location:        req.Location,
				PaymentMethod:   req.PaymentMethod,
				Status:          models.StatusPending,
				Notes:           req.Notes,
			}
			bySeller[sellerID] = purchase
			purchases = append(purchases, purchase)
		}

		purchase.Items = append(purchase.Items, models.PurchaseItem{
			ID:         uuid.New(),
			PurchaseID: purchase.ID,
			ProductID:  item.ProductID,
			Title:      item.Product.Title,
			Price:      item.Product.Price,
			Quantity:   item.Quantity,
		})

		purchase.TotalAmount += item.Product.Price * float64(item.Quantity)
	}

	if err := s.checkoutRepo.CreatePurchasesFromCart(ctx, purchases, cart.ID); err != nil {
		if errors.Is(err, repository.ErrProductsUnavailable) {
			metrics.RecordCheckout("conflict")
			return nil, appErrors.ConflictError("Product is no longer available").WithError(err)
		}
		metrics.RecordCheckout("error")
		return nil, appErrors.DatabaseError("Failed to create purchases").WithError(err)
	}

	metrics.RecordCheckout("success")

	var productIDs []uuid.UUID
	for _, purchase := range purchases {
		for _, item := range purchase.Items {
			productIDs = append(productIDs, item.ProductID)
		}
	}

	evictProducts(ctx, s.productCache, productIDs)
	s.attachSellers(ctx, purchases)

	return purchases, nil
}

// attachSellers decorates checkout results with seller display details so
// the buyer sees who each purchase is with. A failed lookup only costs the
// decoration.
func (s *purchaseService) attachSellers(ctx context.Context, purchases []*models.Purchase) {

	ids := make([]uuid.UUID, 0, len(purchases))
	for _, purchase := range purchases {
		ids = append(ids, purchase.SellerID)
	}

	sellers, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		slog.Warn("Could not resolve sellers for checkout response", slog.String("error", err.Error()))
		return
	}

	for _, purchase := range purchases {
		purchase.Seller = sellers[purchase.SellerID]
	}
}

func (s *purchaseService) GetPurchaseByID(ctx context.Context, userID, id uuid.UUID) (*models.Purchase, error) {

	purchase, err := s.purchaseRepo.GetPurchaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Purchase not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch purchase").WithError(err)
	}

	if purchase.BuyerID != userID && purchase.SellerID != userID {
		return nil, appErrors.ForbiddenError("Not authorized to view this purchase")
	}

	return purchase, nil
}

func (s *purchaseService) ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {

	page, size = clampPage(page, size)

	purchases, total, err := s.purchaseRepo.ListPurchasesByBuyer(ctx, buyerID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch purchase history").WithError(err)
	}

	return purchases, total, nil
}

func (s *purchaseService) ListPurchasesBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {

	page, size = clampPage(page, size)

	purchases, total, err := s.purchaseRepo.ListPurchasesBySeller(ctx, sellerID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch sales").WithError(err)
	}

	return purchases, total, nil
}

// UpdatePurchaseStatus is seller-side fulfilment; the buyer tracks the same
// transitions through the order endpoints.
func (s *purchaseService) UpdatePurchaseStatus(ctx context.Context, sellerID, id uuid.UUID, status models.Status) (*models.Purchase, error) {

	if !status.Valid() {
		return nil, appErrors.AddValidationError("status", "unknown status")
	}

	purchase, err := s.purchaseRepo.GetPurchaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Purchase not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch purchase").WithError(err)
	}

	if purchase.SellerID != sellerID {
		return nil, appErrors.ForbiddenError("Not authorized to update this purchase")
	}

	if !purchase.Status.CanTransitionTo(status) {
		return nil, appErrors.InvalidStateError(fmt.Sprintf("Cannot change status from %s to %s", purchase.Status, status))
	}

	restoreProducts := status == models.StatusCancelled

	if err := s.purchaseRepo.UpdatePurchaseStatus(ctx, id, status, restoreProducts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Purchase not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to update purchase status").WithError(err)
	}

	if restoreProducts {
		ids := make([]uuid.UUID, 0, len(purchase.Items))
		for _, item := range purchase.Items {
			ids = append(ids, item.ProductID)
		}

		evictProducts(ctx, s.productCache, ids)
	}

	purchase.Status = status

	return purchase, nil
}

func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 10
	}

	return page, size
}
