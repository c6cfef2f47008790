package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/kitenge/shop-backend/internal"
	"github.com/kitenge/shop-backend/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(paymentService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    *transport.NewBaseHandler(logger),
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// InitiateSTKPush handles POST /api/v1/payments/mpesa
func (h *Handler) InitiateSTKPush(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("InitiateSTKPush: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.PaymentService.InitiateSTKPush(r.Context(), &req)
	if err != nil {
		h.Logger.Error("InitiateSTKPush: service error",
			"error", err,
			"order_number", req.OrderNumber)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("InitiateSTKPush: push submitted",
		"order_number", req.OrderNumber,
		"checkout_request_id", resp.CheckoutRequestID,
		"response_code", resp.ResponseCode)

	h.WriteJSON(w, http.StatusOK, resp)
}

// Status handles GET /api/v1/payments/mpesa/status?orderNumber=...
//
// Polling is read-only: a storefront that gives up on its own timer leaves the
// payment record untouched, and a later callback still settles it.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.URL.Query().Get("orderNumber")
	if orderNumber == "" {
		h.HandleError(w, errors.NewValidationError("orderNumber query parameter is required", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.PaymentService.StatusByOrderNumber(orderNumber)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}
