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

type OrderService interface {
	Checkout(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, userID, id uuid.UUID) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, userID, id uuid.UUID, status models.Status) (*models.Order, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	checkoutRepo repository.CheckoutRepository
	userRepo     repository.UserRepository
	productCache cache.Cache
	payments     PaymentProvider
	notifier     CheckoutNotifier
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	checkoutRepo repository.CheckoutRepository,
	userRepo repository.UserRepository,
	productCache cache.Cache,
	payments PaymentProvider,
	notifier CheckoutNotifier,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		checkoutRepo: checkoutRepo,
		userRepo:     userRepo,
		productCache: productCache,
		payments:     payments,
		notifier:     notifier,
	}
}

// Checkout creates an order either from the caller's cart or, when the
// request carries an explicit product list, via the direct "buy now" path.
func (s *orderService) Checkout(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.Order, error) {

	if !req.PaymentMethod.Valid() {
		return nil, appErrors.AddValidationError("payment_method", "unknown payment method")
	}

	if len(req.Products) > 0 {
		return s.checkoutDirect(ctx, buyerID, req)
	}

	return s.checkoutCart(ctx, buyerID, req)
}

func (s *orderService) checkoutCart(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.Order, error) {

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

	// Snapshot title, price and seller now, so later catalog edits cannot
	// rewrite history. The total is computed here and is authoritative.
	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		Address:       req.Address,
		Location:      req.Location,
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
		Notes:         req.Notes,
	}

	var total float64

	for _, item := range cart.Items {
		if item.Product == nil {
			return nil, appErrors.InternalError("Cart item is missing its product")
		}

		if !item.Product.IsAvailable {
			return nil, appErrors.InvalidStateError("Product is not available: " + item.Product.Title)
		}

		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Title:     item.Product.Title,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			SellerID:  item.Product.SellerID,
		})

		total += item.Product.Price * float64(item.Quantity)
	}

	order.TotalAmount = total

	if err := s.attachPaymentIntent(ctx, order); err != nil {
		return nil, err
	}

	if err := s.checkoutRepo.CreateOrderFromCart(ctx, order, cart.ID); err != nil {
		if errors.Is(err, repository.ErrProductsUnavailable) {
			metrics.RecordCheckout("conflict")
			return nil, appErrors.ConflictError("Product is no longer available").WithError(err)
		}
		metrics.RecordCheckout("error")
		return nil, appErrors.DatabaseError("Failed to create order").WithError(err)
	}

	metrics.RecordCheckout("success")
	evictProducts(ctx, s.productCache, orderProductIDs(order))
	s.notifyBuyer(ctx, buyerID, order)

	return order, nil
}

func (s *orderService) checkoutDirect(ctx context.Context, buyerID uuid.UUID, req *models.CheckoutRequest) (*models.Order, error) {

	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		Address:       req.Address,
		Location:      req.Location,
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
		Notes:         req.Notes,
	}

	var total float64

	for _, line := range req.Products {

		product, err := s.productRepo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.NotFoundError("Product not found: " + line.ProductID.String()).WithError(err)
			}
			return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
		}

		if !product.IsAvailable {
			return nil, appErrors.InvalidStateError("Product is not available: " + product.Title)
		}

		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}

		// snapshot comes from the catalog record, not the caller
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Title:     product.Title,
			Price:     product.Price,
			Quantity:  quantity,
			SellerID:  product.SellerID,
		})

		total += product.Price * float64(quantity)
	}

	// The client-supplied total is a fallback only; whenever the catalog
	// yields prices the computed sum wins.
	if total == 0 && req.TotalAmount > 0 {
		total = req.TotalAmount
	}

	order.TotalAmount = total

	if err := s.attachPaymentIntent(ctx, order); err != nil {
		return nil, err
	}

	if err := s.checkoutRepo.CreateDirectOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrProductsUnavailable) {
			metrics.RecordCheckout("conflict")
			return nil, appErrors.ConflictError("Product is no longer available").WithError(err)
		}
		metrics.RecordCheckout("error")
		return nil, appErrors.DatabaseError("Failed to create order").WithError(err)
	}

	metrics.RecordCheckout("success")
	evictProducts(ctx, s.productCache, orderProductIDs(order))
	s.notifyBuyer(ctx, buyerID, order)

	return order, nil
}

func orderProductIDs(order *models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}

	return ids
}

func (s *orderService) attachPaymentIntent(ctx context.Context, order *models.Order) error {

	if order.PaymentMethod != models.PaymentCard || s.payments == nil {
		return nil
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, order.TotalAmount, "Order "+order.ID.String())
	if err != nil {
		return appErrors.InternalError("Failed to initiate card payment").WithError(err)
	}

	order.PaymentIntentID = intent.ID

	return nil
}

func (s *orderService) notifyBuyer(ctx context.Context, buyerID uuid.UUID, order *models.Order) {

	if s.notifier == nil {
		return
	}

	buyer, err := s.userRepo.GetUserByID(ctx, buyerID)
	if err != nil {
		slog.Warn("Could not resolve buyer for order confirmation", slog.String("error", err.Error()))
		return
	}

	if err := s.notifier.SendOrderConfirmation(ctx, buyer.Email, order); err != nil {
		slog.Warn("Failed to send order confirmation", slog.String("error", err.Error()))
	}
}

func (s *orderService) GetOrderByID(ctx context.Context, userID, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if order.BuyerID != userID {
		return nil, appErrors.ForbiddenError("Not authorized to view this order")
	}

	return order, nil
}

func (s *orderService) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Order, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 10
	}

	orders, total, err := s.orderRepo.ListOrdersByBuyer(ctx, buyerID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

// UpdateOrderStatus enforces the transition table; only the buyer may move
// an order. Cancelling before shipment puts the products back on sale.
func (s *orderService) UpdateOrderStatus(ctx context.Context, userID, id uuid.UUID, status models.Status) (*models.Order, error) {

	if !status.Valid() {
		return nil, appErrors.AddValidationError("status", "unknown status")
	}

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if order.BuyerID != userID {
		return nil, appErrors.ForbiddenError("Not authorized to update this order")
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, appErrors.InvalidStateError(fmt.Sprintf("Cannot change status from %s to %s", order.Status, status))
	}

	restoreProducts := status == models.StatusCancelled

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, status, restoreProducts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to update order status").WithError(err)
	}

	if restoreProducts {
		evictProducts(ctx, s.productCache, orderProductIDs(order))
	}

	order.Status = status

	return order, nil
}
