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

type PurchaseHandler struct {
	purchaseService service.PurchaseService
	validator       *validator.Validate
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService, validator: validator.New()}
}

func (h *PurchaseHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized checkout attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.PurchaseCheckoutRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		purchases, err := h.purchaseService.Checkout(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Purchase checkout failed",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Purchases created",
			slog.String("userId", claims.UserID.String()),
			slog.Int("sellers", len(purchases)))
		response.Success(w, http.StatusCreated, purchases)
	}
}

func (h *PurchaseHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized purchase access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		purchase, err := h.purchaseService.GetPurchaseByID(r.Context(), claims.UserID, id)
		if err != nil {
			logger.Error("Failed to get purchase",
				slog.String("purchaseId", id.String()),
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, purchase)
	}
}

// History lists the caller's purchases as a buyer.
func (h *PurchaseHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized purchase access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, size := parsePageParams(r)

		purchases, total, err := h.purchaseService.ListPurchasesByBuyer(r.Context(), claims.UserID, page, size)
		if err != nil {
			logger.Error("Failed to list purchase history",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     purchases,
			Total:    total,
			Page:     page,
			PageSize: size,
		})
	}
}

// Sales lists the caller's purchases as a seller.
func (h *PurchaseHandler) Sales() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized purchase access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, size := parsePageParams(r)

		purchases, total, err := h.purchaseService.ListPurchasesBySeller(r.Context(), claims.UserID, page, size)
		if err != nil {
			logger.Error("Failed to list sales",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     purchases,
			Total:    total,
			Page:     page,
			PageSize: size,
		})
	}
}

func (h *PurchaseHandler) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized purchase access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		purchase, err := h.purchaseService.UpdatePurchaseStatus(r.Context(), claims.UserID, id, req.Status)
		if err != nil {
			logger.Error("Failed to update purchase status",
				slog.String("purchaseId", id.String()),
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Purchase status updated",
			slog.String("purchaseId", id.String()),
			slog.String("status", string(purchase.Status)))
		response.Success(w, http.StatusOK, purchase)
	}
}
