package order

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	errors "github.com/kitenge/shop-backend/internal"
	"github.com/kitenge/shop-backend/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	OrderService ServiceAPI
	Logger       *slog.Logger
}

func NewHandler(orderService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:  *transport.NewBaseHandler(logger),
		OrderService: orderService,
		Logger:       logger,
	}
}

// CreateOrder handles POST /api/v1/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("CreateOrder: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.OrderService.CreateOrder(r.Context(), &req)
	if err != nil {
		h.Logger.Error("CreateOrder: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// GetOrder handles GET /api/v1/orders/{orderNumber}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		h.HandleError(w, errors.NewValidationError("orderNumber is required", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.OrderService.GetOrder(orderNumber)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
