package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

// sort columns callers may request; anything else falls back to created_at.
var productSortColumns = map[string]string{
	"created_at": "p.created_at",
	"price":      "p.price",
	"views":      "p.views",
	"title":      "p.title",
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (id, seller_id, title, description, category, condition, price, location, tags, images, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.ID, product.SellerID, product.Title, product.Description, product.Category,
		product.Condition, product.Price, product.Location, pq.Array(product.Tags),
		pq.Array(product.Images), product.IsAvailable,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT p.id, p.seller_id, p.title, p.description, p.category, p.condition, p.price,
			   COALESCE(p.location, ''), p.tags, p.images, p.is_available, p.views, p.created_at, p.updated_at,
			   u.username, u.email, COALESCE(u.avatar_url, '')
		FROM products p
		LEFT JOIN users u ON u.id = p.seller_id
		WHERE p.id = $1
	`

	product := &models.Product{}

	var sellerName, sellerEmail, sellerAvatar sql.NullString

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&product.ID, &product.SellerID, &product.Title, &product.Description, &product.Category,
		&product.Condition, &product.Price, &product.Location, pq.Array(&product.Tags),
		pq.Array(&product.Images), &product.IsAvailable, &product.Views, &product.CreatedAt, &product.UpdatedAt,
		&sellerName, &sellerEmail, &sellerAvatar,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying database: %w", err)
	}

	if sellerName.Valid {
		product.Seller = &models.User{
			ID:        product.SellerID,
			Username:  sellerName.String,
			Email:     sellerEmail.String,
			AvatarURL: sellerAvatar.String,
		}
	}

	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET title = $1, description = $2, category = $3, condition = $4, price = $5,
			location = $6, tags = $7, images = $8, is_available = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.Title, product.Description, product.Category, product.Condition, product.Price,
		product.Location, pq.Array(product.Tags), pq.Array(product.Images), product.IsAvailable,
		product.ID,
	).Scan(&product.UpdatedAt)
}

func (r *productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
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

func (r *productRepository) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	conditions := []string{"1=1"}
	args := []any{}

	if filter.OnlyAvailable {
		conditions = append(conditions, "p.is_available = TRUE")
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		idx := len(args)
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d OR array_to_string(p.tags, ' ') ILIKE $%d)", idx, idx, idx))
	}

	if filter.Category != "" && filter.Category != "All" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("p.category = $%d", len(args)))
	}

	if filter.Condition != "" && filter.Condition != "All" {
		args = append(args, filter.Condition)
		conditions = append(conditions, fmt.Sprintf("p.condition = $%d", len(args)))
	}

	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		conditions = append(conditions, fmt.Sprintf("p.seller_id = $%d", len(args)))
	}

	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conditions = append(conditions, fmt.Sprintf("p.price >= $%d", len(args)))
	}

	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int

	countQuery := `SELECT COUNT(*) FROM products p WHERE ` + where

	if err := r.DB.QueryRowContext(dbCtx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	sortColumn, ok := productSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "p.created_at"
	}

	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize, offset)

	query := fmt.Sprintf(`
		SELECT p.id, p.seller_id, p.title, p.description, p.category, p.condition, p.price,
			   COALESCE(p.location, ''), p.tags, p.images, p.is_available, p.views, p.created_at, p.updated_at,
			   u.username, u.email, COALESCE(u.avatar_url, '')
		FROM products p
		LEFT JOIN users u ON u.id = p.seller_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, sortColumn, sortOrder, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product := &models.Product{}

		var sellerName, sellerEmail, sellerAvatar sql.NullString

		err := rows.Scan(
			&product.ID, &product.SellerID, &product.Title, &product.Description, &product.Category,
			&product.Condition, &product.Price, &product.Location, pq.Array(&product.Tags),
			pq.Array(&product.Images), &product.IsAvailable, &product.Views, &product.CreatedAt, &product.UpdatedAt,
			&sellerName, &sellerEmail, &sellerAvatar,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning product: %w", err)
		}

		if sellerName.Valid {
			product.Seller = &models.User{
				ID:        product.SellerID,
				Username:  sellerName.String,
				Email:     sellerEmail.String,
				AvatarURL: sellerAvatar.String,
			}
		}

		products = append(products, product)
	}

	return products, total, rows.Err()
}

func (r *productRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	_, err := r.DB.ExecContext(dbCtx, `UPDATE products SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}

	return nil
}
