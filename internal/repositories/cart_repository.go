package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

// GetOrCreateCart upserts against the unique user_id index, so concurrent
// first-access calls for the same user converge on a single cart row.
func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, user_id, created_at, updated_at
	`

	cart := &models.Cart{Items: []models.CartItem{}}

	err := r.DB.QueryRowContext(dbCtx, query, uuid.New(), userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	cart := &models.Cart{Items: []models.CartItem{}}

	err := r.DB.QueryRowContext(dbCtx, query, userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	itemsQuery := `
		SELECT ci.id, ci.product_id, ci.quantity, ci.added_at,
			   p.seller_id, p.title, p.description, p.category, p.condition, p.price,
			   COALESCE(p.location, ''), p.tags, p.images, p.is_available, p.views, p.created_at, p.updated_at,
			   u.username, u.email, COALESCE(u.avatar_url, '')
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN users u ON u.id = p.seller_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at
	`

	rows, err := r.DB.QueryContext(dbCtx, itemsQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("querying cart items: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var item models.CartItem

		product := &models.Product{}

		var sellerName, sellerEmail, sellerAvatar sql.NullString

		err := rows.Scan(
			&item.ID, &item.ProductID, &item.Quantity, &item.AddedAt,
			&product.SellerID, &product.Title, &product.Description, &product.Category,
			&product.Condition, &product.Price, &product.Location, pq.Array(&product.Tags),
			pq.Array(&product.Images), &product.IsAvailable, &product.Views, &product.CreatedAt, &product.UpdatedAt,
			&sellerName, &sellerEmail, &sellerAvatar,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}

		product.ID = item.ProductID

		if sellerName.Valid {
			product.Seller = &models.User{
				ID:        product.SellerID,
				Username:  sellerName.String,
				Email:     sellerEmail.String,
				AvatarURL: sellerAvatar.String,
			}
		}

		item.Product = product
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	cart.ComputeTotals()

	return cart, nil
}

// UpsertItem merges quantity when the product is already in the cart; the
// unique (cart_id, product_id) index keeps one line per product.
func (r *cartRepository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	_, err := r.DB.ExecContext(dbCtx, query, uuid.New(), cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE cart_items
		SET quantity = $1
		WHERE id = $2 AND cart_id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, itemID, cartID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM cart_items
		WHERE id = $1 AND cart_id = $2
	`

	result, err := r.DB.ExecContext(dbCtx, query, itemID, cartID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	deletedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get deleted rows: %w", err)
	}

	if deletedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ClearCart empties the items collection; the cart row itself persists.
func (r *cartRepository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	_, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
