package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils"
	"github.com/google/uuid"
)

type OrderRepository interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.Status, restoreProducts bool) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT buyer_id, address, location, payment_method, status, total_amount,
			   COALESCE(notes, ''), COALESCE(payment_intent_id, ''), created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	order := &models.Order{ID: id}

	var addressJSON []byte

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&order.BuyerID, &addressJSON, &order.Location, &order.PaymentMethod, &order.Status,
		&order.TotalAmount, &order.Notes, &order.PaymentIntentID, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	if err := json.Unmarshal(addressJSON, &order.Address); err != nil {
		return nil, fmt.Errorf("failed to unmarshal address: %w", err)
	}

	items, err := r.orderItems(dbCtx, id)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) orderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	query := `
		SELECT oi.id, oi.product_id, oi.title, oi.price, oi.quantity, oi.seller_id,
			   u.username, u.email
		FROM order_items oi
		LEFT JOIN users u ON u.id = oi.seller_id
		WHERE oi.order_id = $1
	`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {
		var item models.OrderItem

		var sellerName, sellerEmail sql.NullString

		err := rows.Scan(&item.ID, &item.ProductID, &item.Title, &item.Price, &item.Quantity, &item.SellerID, &sellerName, &sellerEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.OrderID = orderID

		if sellerName.Valid {
			item.Seller = &models.User{ID: item.SellerID, Username: sellerName.String, Email: sellerEmail.String}
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) ListOrdersByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Order, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders WHERE buyer_id = $1`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, buyerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := `
		SELECT id, address, location, payment_method, status, total_amount,
			   COALESCE(notes, ''), COALESCE(payment_intent_id, ''), created_at, updated_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, buyerID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var order models.Order

		order.BuyerID = buyerID

		var addressJSON []byte

		err := rows.Scan(&order.ID, &addressJSON, &order.Location, &order.PaymentMethod, &order.Status,
			&order.TotalAmount, &order.Notes, &order.PaymentIntentID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		if err := json.Unmarshal(addressJSON, &order.Address); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal address: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		items, err := r.orderItems(dbCtx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}

		orders[i].Items = items
	}

	return orders, total, nil
}

// UpdateOrderStatus flips the status and, when the order is being cancelled
// early, puts its products back on sale in the same transaction.
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.Status, restoreProducts bool) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	result, err := tx.ExecContext(dbCtx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	if restoreProducts {
		_, err := tx.ExecContext(dbCtx, `
			UPDATE products SET is_available = TRUE, updated_at = NOW()
			WHERE id IN (SELECT product_id FROM order_items WHERE order_id = $1)
		`, id)
		if err != nil {
			return fmt.Errorf("failed to restore product availability: %w", err)
		}
	}

	return tx.Commit()
}
