package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kitenge/shop-backend/internal/core/events"
)

// EventHandler reacts to settlement lifecycle events. Today that is audit
// logging; notification delivery hangs off the same subscriptions.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{
		logger: logger,
	}
}

func (h *EventHandler) HandleOrderPaid(ctx context.Context, event events.Event) error {
	paidEvent, ok := event.(*events.OrderPaidEvent)
	if !ok {
		h.logger.Error("invalid event type for order paid handler", "event_type", event.EventType())
		return fmt.Errorf("expected OrderPaidEvent, got %T", event)
	}

	h.logger.Info("order settled",
		"order_number", paidEvent.OrderNumber,
		"mpesa_receipt", paidEvent.MpesaReceipt,
		"amount", paidEvent.Amount,
		"event_id", paidEvent.EventID())

	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failedEvent, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	h.logger.Warn("payment attempt failed",
		"order_number", failedEvent.OrderNumber,
		"checkout_request_id", failedEvent.CheckoutRequestID,
		"result_code", failedEvent.ResultCode,
		"result_desc", failedEvent.ResultDesc,
		"event_id", failedEvent.EventID())

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeOrderPaid, h.HandleOrderPaid)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("payment event handlers registered",
		"handlers", []string{events.EventTypeOrderPaid, events.EventTypePaymentFailed})
}
