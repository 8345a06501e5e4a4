package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/cache"
	appErrors "github.com/aaravmahajanofficial/secondhand-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	repository "github.com/aaravmahajanofficial/secondhand-marketplace/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error)
	UpdateProduct(ctx context.Context, userID, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, userID, id uuid.UUID) error
}

type productService struct {
	repo      repository.ProductRepository
	cache     cache.Cache
	cacheTTL  time.Duration
	sanitizer *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository, productCache cache.Cache, cacheTTL time.Duration) ProductService {
	return &productService{
		repo:     repo,
		cache:    productCache,
		cacheTTL: cacheTTL,
		// listings are plain text; strip all markup from seller input
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *productService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req *models.CreateProductRequest) (*models.Product, error) {

	if !models.ValidCategory(req.Category) {
		return nil, appErrors.AddValidationError("category", "unknown category")
	}

	condition := req.Condition
	if condition == "" {
		condition = "Good"
	}

	if !models.ValidCondition(condition) {
		return nil, appErrors.AddValidationError("condition", "unknown condition")
	}

	if req.Price < 0 {
		return nil, appErrors.AddValidationError("price", "must not be negative")
	}

	product := &models.Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Title:       s.sanitizer.Sanitize(req.Title),
		Description: s.sanitizer.Sanitize(req.Description),
		Category:    req.Category,
		Condition:   condition,
		Price:       req.Price,
		Location:    s.sanitizer.Sanitize(req.Location),
		Tags:        s.sanitizeAll(req.Tags),
		Images:      req.Images,
		IsAvailable: true,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	cacheKey := cache.Key(cache.ProductKeyPrefix, id.String())

	cached := &models.Product{}

	hit, err := s.cache.Get(ctx, cacheKey, cached)
	if err != nil {
		slog.Warn("Product cache read failed", slog.String("error", err.Error()))
	}

	// best effort, a lost view is not worth failing the read
	countView := func() {
		if err := s.repo.IncrementViews(ctx, id); err != nil {
			slog.Warn("Failed to increment product views", slog.String("error", err.Error()))
		}
	}

	if hit {
		countView()
		return cached, nil
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	countView()

	if err := s.cache.Set(ctx, cacheKey, product, s.cacheTTL); err != nil {
		slog.Warn("Product cache write failed", slog.String("error", err.Error()))
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {

	if filter.Page < 1 {
		filter.Page = 1
	}

	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 12
	}

	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to list products").WithError(err)
	}

	return products, total, nil
}

func (s *productService) UpdateProduct(ctx context.Context, userID, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if product.SellerID != userID {
		return nil, appErrors.ForbiddenError("Not authorized to update this product")
	}

	if req.Title != nil {
		product.Title = s.sanitizer.Sanitize(*req.Title)
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			return nil, appErrors.AddValidationError("category", "unknown category")
		}
		product.Category = *req.Category
	}

	if req.Condition != nil {
		if !models.ValidCondition(*req.Condition) {
			return nil, appErrors.AddValidationError("condition", "unknown condition")
		}
		product.Condition = *req.Condition
	}

	if req.Price != nil {
		if *req.Price < 0 {
			return nil, appErrors.AddValidationError("price", "must not be negative")
		}
		product.Price = *req.Price
	}

	if req.Location != nil {
		product.Location = s.sanitizer.Sanitize(*req.Location)
	}

	if req.Tags != nil {
		product.Tags = s.sanitizeAll(*req.Tags)
	}

	if req.Images != nil {
		product.Images = *req.Images
	}

	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to update product").WithError(err)
	}

	s.invalidate(ctx, id)

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, userID, id uuid.UUID) error {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFoundError("Product not found").WithError(err)
		}
		return appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if product.SellerID != userID {
		return appErrors.ForbiddenError("Not authorized to delete this product")
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return appErrors.DatabaseError("Failed to delete product").WithError(err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.Key(cache.ProductKeyPrefix, id.String())); err != nil {
		slog.Warn("Product cache invalidation failed", slog.String("error", err.Error()))
	}
}

// evictProducts drops cached copies of products whose availability changed
// outside this service, i.e. a committed checkout or a cancellation restock.
// A nil cache means caching is disabled.
func evictProducts(ctx context.Context, c cache.Cache, ids []uuid.UUID) {
	if c == nil {
		return
	}

	for _, id := range ids {
		if err := c.Delete(ctx, cache.Key(cache.ProductKeyPrefix, id.String())); err != nil {
			slog.Warn("Product cache invalidation failed",
				slog.String("productId", id.String()),
				slog.String("error", err.Error()))
		}
	}
}

func (s *productService) sanitizeAll(values []string) []string {
	if values == nil {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, s.sanitizer.Sanitize(v))
	}

	return out
}
