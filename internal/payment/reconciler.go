package payment

import (
	"context"
	"encoding/json"
	"log/slog"

	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/mpesa"
	"github.com/kitenge/shop-backend/internal/core/datamodel/order"
	"github.com/kitenge/shop-backend/internal/core/events"
	"github.com/kitenge/shop-backend/internal/mpesa"
)

// ReconcileService applies carrier callbacks to the payment store and drives
// the order paid-transition. It is the only writer of terminal payment status.
type ReconcileService struct {
	repo     RepositoryAPI
	orders   OrderServiceAPI
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewReconcileService(repo RepositoryAPI, orders OrderServiceAPI, eventBus *events.EventBus, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{
		repo:     repo,
		orders:   orders,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Reconcile processes one callback envelope. Duplicate deliveries re-apply the
// same terminal state; the order transition itself is guarded by a conditional
// update, so replays cannot pay an order twice.
func (s *ReconcileService) Reconcile(ctx context.Context, envelope *mpesa.CallbackEnvelope, raw json.RawMessage) error {
	cb := envelope.Body.StkCallback
	if cb == nil {
		s.logger.Warn("callback without stkCallback body, ignoring")
		return nil
	}

	receipt, amount, phone := cb.Metadata()

	status := datamodel.StatusFailed
	if cb.Success() {
		status = datamodel.StatusSuccess
	}

	s.logger.Info("reconciling mpesa callback",
		"checkout_request_id", cb.CheckoutRequestID,
		"merchant_request_id", cb.MerchantRequestID,
		"result_code", cb.ResultCode,
		"status", status)

	record, err := s.repo.GetByRequestID(cb.CheckoutRequestID, cb.MerchantRequestID)
	if err != nil {
		// The callback can overtake the initiation insert. Record the outcome
		// anyway so the settlement is never lost.
		s.logger.Warn("callback for unknown payment request, creating terminal record",
			"checkout_request_id", cb.CheckoutRequestID,
			"merchant_request_id", cb.MerchantRequestID)

		resultCode := cb.ResultCode
		record = &datamodel.PaymentRequest{
			Amount:            amount,
			Phone:             phone,
			MerchantRequestID: cb.MerchantRequestID,
			CheckoutRequestID: cb.CheckoutRequestID,
			Status:            status,
			Raw:               raw,
			MpesaReceipt:      receipt,
			ResultCode:        &resultCode,
			ResultDesc:        cb.ResultDesc,
		}
		if err := s.repo.Create(record); err != nil {
			s.logger.Error("failed to create terminal payment record", "error", err)
			return err
		}
	} else {
		if record.Terminal() {
			s.logger.Info("duplicate callback delivery, re-applying terminal state",
				"payment_request_id", record.ID,
				"status", record.Status)
		}
		if err := s.repo.MarkResult(record.ID, status, cb.ResultCode, cb.ResultDesc, receipt, raw); err != nil {
			s.logger.Error("failed to update payment request",
				"error", err,
				"payment_request_id", record.ID)
			return err
		}
	}

	if status == datamodel.StatusFailed {
		s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(
			record.ID, record.OrderNumber, cb.CheckoutRequestID, cb.ResultCode, cb.ResultDesc))
		return nil
	}

	if amount == 0 {
		amount = record.Amount
	}
	if phone == "" {
		phone = record.Phone
	}

	s.eventBus.Publish(ctx, events.NewPaymentCompletedEvent(
		record.ID, record.OrderNumber, cb.CheckoutRequestID, receipt, amount, phone))

	if record.OrderNumber == "" {
		// Terminal record created from the callback alone; there is no order
		// to transition until support reconciles it manually.
		return nil
	}

	transitioned, err := s.orders.MarkPaid(ctx, record.OrderNumber, order.PaymentDetails{
		Method:       order.PaymentMethodMpesa,
		MpesaReceipt: receipt,
		Amount:       amount,
		Phone:        phone,
	})
	if err != nil {
		s.logger.Error("failed to mark order paid",
			"error", err,
			"order_number", record.OrderNumber)
		return err
	}

	if !transitioned {
		s.logger.Info("order already paid, callback replay ignored",
			"order_number", record.OrderNumber,
			"mpesa_receipt", receipt)
		return nil
	}

	s.eventBus.Publish(ctx, events.NewOrderPaidEvent(record.OrderNumber, receipt, amount))

	s.logger.Info("order marked paid",
		"order_number", record.OrderNumber,
		"mpesa_receipt", receipt,
		"amount", amount)

	return nil
}
