package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypeOrderPaid        = "order.paid"
)

type PaymentCompletedEvent struct {
	BaseEvent
	PaymentRequestID  int64  `json:"payment_request_id"`
	OrderNumber       string `json:"order_number"`
	CheckoutRequestID string `json:"checkout_request_id"`
	MpesaReceipt      string `json:"mpesa_receipt"`
	Amount            int64  `json:"amount"`
	Phone             string `json:"phone"`
}

func NewPaymentCompletedEvent(paymentRequestID int64, orderNumber, checkoutRequestID, mpesaReceipt string, amount int64, phone string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_request_id":  paymentRequestID,
				"order_number":        orderNumber,
				"checkout_request_id": checkoutRequestID,
				"mpesa_receipt":       mpesaReceipt,
				"amount":              amount,
				"phone":               phone,
			},
		},
		PaymentRequestID:  paymentRequestID,
		OrderNumber:       orderNumber,
		CheckoutRequestID: checkoutRequestID,
		MpesaReceipt:      mpesaReceipt,
		Amount:            amount,
		Phone:             phone,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentRequestID  int64  `json:"payment_request_id"`
	OrderNumber       string `json:"order_number"`
	CheckoutRequestID string `json:"checkout_request_id"`
	ResultCode        int    `json:"result_code"`
	ResultDesc        string `json:"result_desc"`
}

func NewPaymentFailedEvent(paymentRequestID int64, orderNumber, checkoutRequestID string, resultCode int, resultDesc string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_request_id":  paymentRequestID,
				"order_number":        orderNumber,
				"checkout_request_id": checkoutRequestID,
				"result_code":         resultCode,
				"result_desc":         resultDesc,
			},
		},
		PaymentRequestID:  paymentRequestID,
		OrderNumber:       orderNumber,
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        resultCode,
		ResultDesc:        resultDesc,
	}
}

type OrderPaidEvent struct {
	BaseEvent
	OrderNumber  string `json:"order_number"`
	MpesaReceipt string `json:"mpesa_receipt"`
	Amount       int64  `json:"amount"`
}

func NewOrderPaidEvent(orderNumber, mpesaReceipt string, amount int64) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderPaid,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_number":  orderNumber,
				"mpesa_receipt": mpesaReceipt,
				"amount":        amount,
			},
		},
		OrderNumber:  orderNumber,
		MpesaReceipt: mpesaReceipt,
		Amount:       amount,
	}
}
