package payment

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/kitenge/shop-backend/internal/mpesa"
	"github.com/kitenge/shop-backend/internal/transport"
)

type WebhookHandler struct {
	*transport.BaseHandler
	reconciler *ReconcileService
	logger     *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, reconciler *ReconcileService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		reconciler:  reconciler,
		logger:      logger,
	}
}

// CallbackAck is the only body Daraja ever gets back. Returning anything else
// makes the carrier retry or mark the callback URL unhealthy.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// HandleMpesaCallback handles POST /api/v1/callbacks/mpesa. Every outcome acks
// with 200: the callback is the carrier's receipt, not a negotiation.
func (h *WebhookHandler) HandleMpesaCallback(w http.ResponseWriter, r *http.Request) {
	defer h.ack(w)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read mpesa callback body", "error", err)
		return
	}

	var envelope mpesa.CallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Error("malformed mpesa callback body", "error", err)
		return
	}

	if err := h.reconciler.Reconcile(r.Context(), &envelope, body); err != nil {
		h.logger.Error("mpesa callback reconciliation failed", "error", err)
	}
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	h.WriteJSON(w, http.StatusOK, CallbackAck{ResultCode: 0, ResultDesc: "Accepted"})
}
