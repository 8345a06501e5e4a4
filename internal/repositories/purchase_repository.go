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

type PurchaseRepository interface {
	GetPurchaseByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Purchase, int, error)
	ListPurchasesBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]models.Purchase, int, error)
	UpdatePurchaseStatus(ctx context.Context, id uuid.UUID, status models.Status, restoreProducts bool) error
}

type purchaseRepository struct {
	DB *sql.DB
}

func NewPurchaseRepo(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{DB: db}
}

func (r *purchaseRepository) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT p.buyer_id, p.seller_id, p.shipping_address, p.location, p.payment_method, p.status,
			   p.total_amount, COALESCE(p.notes, ''), p.created_at, p.updated_at,
			   b.username, b.email, s.username, s.email
		FROM purchases p
		LEFT JOIN users b ON b.id = p.buyer_id
		LEFT JOIN users s ON s.id = p.seller_id
		WHERE p.id = $1
	`

	purchase := &models.Purchase{ID: id}

	var addressJSON []byte

	var buyerName, buyerEmail, sellerName, sellerEmail sql.NullString

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&purchase.BuyerID, &purchase.SellerID, &addressJSON, &purchase.Location, &purchase.PaymentMethod,
		&purchase.Status, &purchase.TotalAmount, &purchase.Notes, &purchase.CreatedAt, &purchase.UpdatedAt,
		&buyerName, &buyerEmail, &sellerName, &sellerEmail,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get the purchase: %w", err)
	}

	if err := json.Unmarshal(addressJSON, &purchase.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	if buyerName.Valid {
		purchase.Buyer = &models.User{ID: purchase.BuyerID, Username: buyerName.String, Email: buyerEmail.String}
	}

	if sellerName.Valid {
		purchase.Seller = &models.User{ID: purchase.SellerID, Username: sellerName.String, Email: sellerEmail.String}
	}

	items, err := r.purchaseItems(dbCtx, id)
	if err != nil {
		return nil, err
	}

	purchase.Items = items

	return purchase, nil
}

func (r *purchaseRepository) purchaseItems(ctx context.Context, purchaseID uuid.UUID) ([]models.PurchaseItem, error) {

	query := `
		SELECT id, product_id, title, price, quantity
		FROM purchase_items
		WHERE purchase_id = $1
	`

	rows, err := r.DB.QueryContext(ctx, query, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the purchase items: %w", err)
	}

	defer rows.Close()

	var items []models.PurchaseItem

	for rows.Next() {
		var item models.PurchaseItem

		if err := rows.Scan(&item.ID, &item.ProductID, &item.Title, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}

		item.PurchaseID = purchaseID

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *purchaseRepository) ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {
	return r.listPurchases(ctx, "buyer_id", buyerID, page, size)
}

func (r *purchaseRepository) ListPurchasesBySeller(ctx context.Context, sellerID uuid.UUID, page, size int) ([]models.Purchase, int, error) {
	return r.listPurchases(ctx, "seller_id", sellerID, page, size)
}

func (r *purchaseRepository) listPurchases(ctx context.Context, column string, partyID uuid.UUID, page, size int) ([]models.Purchase, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM purchases WHERE %s = $1`, column)

	if err := r.DB.QueryRowContext(dbCtx, countQuery, partyID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size

	query := fmt.Sprintf(`
		SELECT id, buyer_id, seller_id, shipping_address, location, payment_method, status,
			   total_amount, COALESCE(notes, ''), created_at, updated_at
		FROM purchases
		WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, column)

	rows, err := r.DB.QueryContext(dbCtx, query, partyID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}

	defer rows.Close()

	var purchases []models.Purchase

	for rows.Next() {
		var purchase models.Purchase

		var addressJSON []byte

		err := rows.Scan(&purchase.ID, &purchase.BuyerID, &purchase.SellerID, &addressJSON, &purchase.Location,
			&purchase.PaymentMethod, &purchase.Status, &purchase.TotalAmount, &purchase.Notes,
			&purchase.CreatedAt, &purchase.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan the purchases: %w", err)
		}

		if err := json.Unmarshal(addressJSON, &purchase.ShippingAddress); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal shipping address: %w", err)
		}

		purchases = append(purchases, purchase)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range purchases {
		items, err := r.purchaseItems(dbCtx, purchases[i].ID)
		if err != nil {
			return nil, 0, err
		}

		purchases[i].Items = items
	}

	return purchases, total, nil
}

func (r *purchaseRepository) UpdatePurchaseStatus(ctx context.Context, id uuid.UUID, status models.Status, restoreProducts bool) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	result, err := tx.ExecContext(dbCtx, `UPDATE purchases SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update purchase status: %w", err)
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
			WHERE id IN (SELECT product_id FROM purchase_items WHERE purchase_id = $1)
		`, id)
		if err != nil {
			return fmt.Errorf("failed to restore product availability: %w", err)
		}
	}

	return tx.Commit()
}
