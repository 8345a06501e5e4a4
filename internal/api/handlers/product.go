package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	service "github.com/aaravmahajanofficial/secondhand-marketplace/internal/services"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type ProductHandler struct {
	productService service.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService, validator: validator.New()}
}

func (h *ProductHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized product create attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.productService.CreateProduct(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to create product",
				slog.String("sellerId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Product created",
			slog.String("productId", product.ID.String()),
			slog.String("sellerId", claims.UserID.String()))
		response.Success(w, http.StatusCreated, product)
	}
}

func (h *ProductHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		product, err := h.productService.GetProductByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to get product",
				slog.String("productId", id.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		filter := parseProductFilter(r)

		products, total, err := h.productService.ListProducts(r.Context(), filter)
		if err != nil {
			logger.Error("Failed to list products", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     products,
			Total:    total,
			Page:     filter.Page,
			PageSize: filter.PageSize,
		})
	}
}

// ListBySeller backs a seller's own listings page, so sold items are
// included unless the caller asks for available ones only.
func (h *ProductHandler) ListBySeller() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sellerID, err := utils.ParseID(r, "userId")
		if err != nil {
			response.Error(w, err)
			return
		}

		filter := parseProductFilter(r)
		filter.SellerID = &sellerID
		filter.OnlyAvailable = r.URL.Query().Get("available") == "true"

		products, total, err := h.productService.ListProducts(r.Context(), filter)
		if err != nil {
			logger.Error("Failed to list seller products",
				slog.String("sellerId", sellerID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     products,
			Total:    total,
			Page:     filter.Page,
			PageSize: filter.PageSize,
		})
	}
}

func (h *ProductHandler) Categories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, map[string][]string{
			"categories": models.ProductCategories,
			"conditions": models.ProductConditions,
		})
	}
}

func (h *ProductHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized product update attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.productService.UpdateProduct(r.Context(), claims.UserID, id, &req)
		if err != nil {
			logger.Error("Failed to update product",
				slog.String("productId", id.String()),
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Product updated", slog.String("productId", id.String()))
		response.Success(w, http.StatusOK, product)
	}
}

func (h *ProductHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized product delete attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := h.productService.DeleteProduct(r.Context(), claims.UserID, id); err != nil {
			logger.Error("Failed to delete product",
				slog.String("productId", id.String()),
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Product deleted", slog.String("productId", id.String()))
		response.Success(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func parseProductFilter(r *http.Request) *models.ProductFilter {

	q := r.URL.Query()

	filter := &models.ProductFilter{
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		Condition: q.Get("condition"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil && v >= 0 {
		filter.MinPrice = &v
	}

	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil && v >= 0 {
		filter.MaxPrice = &v
	}

	// listings default to available-only; pass available=false to see everything
	filter.OnlyAvailable = q.Get("available") != "false"

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size > 0 {
		filter.PageSize = size
	}

	return filter
}
