package payment

import (
	"context"
	"encoding/json"

	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/mpesa"
	"github.com/kitenge/shop-backend/internal/core/datamodel/order"
	"github.com/kitenge/shop-backend/internal/mpesa"
)

// RepositoryAPI persists STK push attempts and their callback outcomes.
type RepositoryAPI interface {
	Create(req *datamodel.PaymentRequest) error
	GetByRequestID(checkoutRequestID, merchantRequestID string) (*datamodel.PaymentRequest, error)
	GetLatestByOrderNumber(orderNumber string) (*datamodel.PaymentRequest, error)
	MarkResult(id int64, status string, resultCode int, resultDesc, mpesaReceipt string, raw json.RawMessage) error
}

// GatewayAPI is the slice of the carrier client the payment service depends
// on, narrowed so tests can stand in for Daraja.
type GatewayAPI interface {
	NormalizePhone(input string) string
	STKPush(ctx context.Context, params mpesa.PushParams) (*mpesa.STKPushResponse, json.RawMessage, error)
}

// ServiceAPI is the handler-facing surface of the payment service.
type ServiceAPI interface {
	InitiateSTKPush(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error)
	StatusByOrderNumber(orderNumber string) (*StatusResponse, error)
}

// OrderServiceAPI is what the reconciler needs from the order domain: the
// conditional paid transition and nothing else.
type OrderServiceAPI interface {
	MarkPaid(ctx context.Context, orderNumber string, details order.PaymentDetails) (bool, error)
}
