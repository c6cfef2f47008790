package payment

import (
	"context"
	"log/slog"

	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/mpesa"
	"github.com/kitenge/shop-backend/internal/mpesa"
)

type PaymentService struct {
	repo    RepositoryAPI
	gateway GatewayAPI
	logger  *slog.Logger
}

func NewPaymentService(repo RepositoryAPI, gateway GatewayAPI, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
	}
}

// InitiateSTKPush validates the checkout request, submits the push to the
// carrier and records the attempt. Once the carrier has accepted the push a
// failed insert must not fail the call: the subscriber is already seeing the
// PIN prompt, so the true outcome is the carrier's answer.
func (s *PaymentService) InitiateSTKPush(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	phone := s.gateway.NormalizePhone(req.Phone)

	resp, raw, err := s.gateway.STKPush(ctx, mpesa.PushParams{
		Amount:      req.Amount,
		Phone:       phone,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		return nil, err
	}

	status := datamodel.StatusFailed
	if resp.Accepted() {
		status = datamodel.StatusPending
	}

	record := &datamodel.PaymentRequest{
		OrderNumber:       req.OrderNumber,
		Amount:            req.Amount,
		Phone:             phone,
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		Status:            status,
		Response:          raw,
	}

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to persist payment request",
			"error", err,
			"order_number", req.OrderNumber,
			"checkout_request_id", resp.CheckoutRequestID)
	} else {
		s.logger.Info("payment request recorded",
			"payment_request_id", record.ID,
			"order_number", req.OrderNumber,
			"status", status)
	}

	return &InitiateResponse{
		MerchantRequestID:   resp.MerchantRequestID,
		CheckoutRequestID:   resp.CheckoutRequestID,
		ResponseCode:        resp.ResponseCode,
		ResponseDescription: resp.ResponseDescription,
		CustomerMessage:     resp.CustomerMessage,
	}, nil
}

// StatusByOrderNumber returns the most recent push attempt for an order. The
// storefront polls this until the record leaves PENDING or its own deadline
// passes; polling never writes anything here.
func (s *PaymentService) StatusByOrderNumber(orderNumber string) (*StatusResponse, error) {
	record, err := s.repo.GetLatestByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	return &StatusResponse{
		OrderNumber:  record.OrderNumber,
		Status:       record.Status,
		MpesaReceipt: record.MpesaReceipt,
		ResultDesc:   record.ResultDesc,
		Amount:       record.Amount,
		Phone:        record.Phone,
	}, nil
}
