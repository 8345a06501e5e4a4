package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/errors"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/models"
	service "github.com/aaravmahajanofficial/secondhand-marketplace/internal/services"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

func (h *CartHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to fetch cart",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to add item to cart",
				slog.String("userId", claims.UserID.String()),
				slog.String("productId", req.ProductID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart",
			slog.String("userId", claims.UserID.String()),
			slog.String("productId", req.ProductID.String()))
		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		itemID, err := utils.ParseID(r, "itemId")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.UpdateItemQuantity(r.Context(), claims.UserID, itemID, &req)
		if err != nil {
			logger.Error("Failed to update cart item",
				slog.String("userId", claims.UserID.String()),
				slog.String("itemId", itemID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		itemID, err := utils.ParseID(r, "itemId")
		if err != nil {
			response.Error(w, err)
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), claims.UserID, itemID)
		if err != nil {
			logger.Error("Failed to remove cart item",
				slog.String("userId", claims.UserID.String()),
				slog.String("itemId", itemID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Item removed from cart",
			slog.String("userId", claims.UserID.String()),
			slog.String("itemId", itemID.String()))
		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		cart, err := h.cartService.ClearCart(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to clear cart",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared", slog.String("userId", claims.UserID.String()))
		response.Success(w, http.StatusOK, cart)
	}
}
