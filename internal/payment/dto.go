package payment

import (
	errors "github.com/kitenge/shop-backend/internal"
	"github.com/kitenge/shop-backend/internal/core/common/validation"
)

// InitiateRequest is the checkout payload that kicks off an STK push.
type InitiateRequest struct {
	Amount      int64  `json:"amount"`
	Phone       string `json:"phone"`
	OrderNumber string `json:"order_number"`
}

func (r *InitiateRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", r.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("phone", r.Phone).Required()
	validator.Field("order_number", r.OrderNumber).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// InitiateResponse relays the carrier's acceptance back to the storefront so
// it can start polling.
type InitiateResponse struct {
	MerchantRequestID   string `json:"merchant_request_id"`
	CheckoutRequestID   string `json:"checkout_request_id"`
	ResponseCode        string `json:"response_code"`
	ResponseDescription string `json:"response_description"`
	CustomerMessage     string `json:"customer_message"`
}

// StatusResponse is the poll projection of the most recent push for an order.
type StatusResponse struct {
	OrderNumber  string `json:"order_number"`
	Status       string `json:"status"`
	MpesaReceipt string `json:"mpesa_receipt,omitempty"`
	ResultDesc   string `json:"result_desc,omitempty"`
	Amount       int64  `json:"amount"`
	Phone        string `json:"phone,omitempty"`
}
