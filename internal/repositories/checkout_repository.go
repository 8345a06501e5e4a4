package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CheckoutRepository commits a checkout as one transaction: record insert,
// conditional availability flip and cart clear either all happen or none
// do. The flip is "set unavailable where still available"; a short affected
// count means a concurrent checkout won and the transaction aborts with
// ErrProductsUnavailable.
type CheckoutRepository interface {
	CreateOrderFromCart(ctx context.Context, order *models.Order, cartID uuid.UUID) error
	CreateDirectOrder(ctx context.Context, order *models.Order) error
	CreatePurchasesFromCart(ctx context.Context, purchases []*models.Purchase, cartID uuid.UUID) error
}

type checkoutRepository struct {
	DB *sql.DB
}

func NewCheckoutRepo(db *sql.DB) CheckoutRepository {
	return &checkoutRepository{DB: db}
}

func (r *checkoutRepository) CreateOrderFromCart(ctx context.Context, order *models.Order, cartID uuid.UUID) error {
	return r.createOrder(ctx, order, &cartID)
}

func (r *checkoutRepository) CreateDirectOrder(ctx context.Context, order *models.Order) error {
	return r.createOrder(ctx, order, nil)
}

func (r *checkoutRepository) createOrder(ctx context.Context, order *models.Order, cartID *uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal address: %w", err)
	}

	query := `
		INSERT INTO orders (id, buyer_id, address, location, payment_method, status, total_amount, notes, payment_intent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = tx.QueryRowContext(dbCtx, query,
		order.ID, order.BuyerID, addressJSON, order.Location, order.PaymentMethod,
		order.Status, order.TotalAmount, order.Notes, order.PaymentIntentID,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	productIDs := make([]uuid.UUID, 0, len(order.Items))

	for _, item := range order.Items {

		itemQuery := `
			INSERT INTO order_items (id, order_id, product_id, title, price, quantity, seller_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.ExecContext(dbCtx, itemQuery, item.ID, order.ID, item.ProductID, item.Title, item.Price, item.Quantity, item.SellerID)
		if err != nil {
			return fmt.Errorf("failed to insert an order item: %w", err)
		}

		productIDs = append(productIDs, item.ProductID)
	}

	if err := markUnavailable(dbCtx, tx, productIDs); err != nil {
		return err
	}

	if cartID != nil {
		if _, err := tx.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1`, *cartID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
	}

	return tx.Commit()
}

// CreatePurchasesFromCart persists one purchase per seller and clears the
// cart exactly once; a failure in any seller group rolls back all of them.
func (r *checkoutRepository) CreatePurchasesFromCart(ctx context.Context, purchases []*models.Purchase, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	var productIDs []uuid.UUID

	for _, purchase := range purchases {

		addressJSON, err := json.Marshal(purchase.ShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to marshal shipping address: %w", err)
		}

		query := `
			INSERT INTO purchases (id, buyer_id, seller_id, shipping_address, location, payment_method, status, total_amount, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			RETURNING created_at, updated_at
		`

		err = tx.QueryRowContext(dbCtx, query,
			purchase.ID, purchase.BuyerID, purchase.SellerID, addressJSON, purchase.Location,
			purchase.PaymentMethod, purchase.Status, purchase.TotalAmount, purchase.Notes,
		).Scan(&purchase.CreatedAt, &purchase.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert purchase: %w", err)
		}

		for _, item := range purchase.Items {

			itemQuery := `
				INSERT INTO purchase_items (id, purchase_id, product_id, title, price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6)
			`

			_, err := tx.ExecContext(dbCtx, itemQuery, item.ID, purchase.ID, item.ProductID, item.Title, item.Price, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to insert a purchase item: %w", err)
			}

			productIDs = append(productIDs, item.ProductID)
		}
	}

	if err := markUnavailable(dbCtx, tx, productIDs); err != nil {
		return err
	}

	if _, err := tx.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

func markUnavailable(ctx context.Context, tx *sql.Tx, productIDs []uuid.UUID) error {

	distinct := make([]string, 0, len(productIDs))
	seen := make(map[uuid.UUID]bool, len(productIDs))

	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id.String())
		}
	}

	query := `
		UPDATE products
		SET is_available = FALSE, updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND is_available = TRUE
	`

	result, err := tx.ExecContext(ctx, query, pq.Array(distinct))
	if err != nil {
		return fmt.Errorf("failed to mark products unavailable: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows != int64(len(distinct)) {
		return ErrProductsUnavailable
	}

	return nil
}
