package order

import (
	"context"
	"encoding/json"
	"time"

	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/order"
)

// RepositoryAPI persists orders. MarkPaid is a conditional single-statement
// update; the boolean reports whether this call won the pending-to-paid
// transition.
type RepositoryAPI interface {
	Create(o *datamodel.Order) error
	GetByOrderNumber(orderNumber string) (*datamodel.Order, error)
	MarkPaid(orderNumber string, payment json.RawMessage, paidAt time.Time) (bool, error)
}

// ServiceAPI is the surface used by the HTTP handlers and the payment
// reconciler.
type ServiceAPI interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error)
	GetOrder(orderNumber string) (*OrderResponse, error)
	MarkPaid(ctx context.Context, orderNumber string, details datamodel.PaymentDetails) (bool, error)
}
