package order

import (
	"encoding/json"
	"time"

	errors "github.com/kitenge/shop-backend/internal"
	"github.com/kitenge/shop-backend/internal/core/common/validation"
	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/order"
)

// CreateOrderRequest is the checkout payload from the storefront. The order
// number is optional; one is generated when the caller does not supply it.
type CreateOrderRequest struct {
	OrderNumber  string           `json:"order_number,omitempty"`
	CustomerName string           `json:"customer_name"`
	Email        string           `json:"email"`
	ClerkUserID  string           `json:"clerk_user_id,omitempty"`
	Address      json.RawMessage  `json:"address,omitempty"`
	Products     []datamodel.Line `json:"products"`
	TotalPrice   int64            `json:"total_price"`
	Currency     string           `json:"currency,omitempty"`
}

func (r *CreateOrderRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("customer_name", r.CustomerName).Required()
	validator.Field("email", r.Email).Required()
	validator.Field("total_price", r.TotalPrice).Required().MinInt(1, errors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if len(r.Products) == 0 {
		return errors.NewValidationFieldError("products", "products must not be empty", errors.ErrCodeValidationFailed)
	}

	return nil
}

// OrderResponse is the projection returned to the storefront, including the
// payment sub-object once the order is settled.
type OrderResponse struct {
	OrderNumber  string                    `json:"order_number"`
	CustomerName string                    `json:"customer_name"`
	Email        string                    `json:"email"`
	Status       string                    `json:"status"`
	TotalPrice   int64                     `json:"total_price"`
	Currency     string                    `json:"currency"`
	Products     []datamodel.Line          `json:"products"`
	Address      json.RawMessage           `json:"address,omitempty"`
	PaidAt       *time.Time                `json:"paid_at,omitempty"`
	Payment      *datamodel.PaymentDetails `json:"payment,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
}
