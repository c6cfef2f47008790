package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	errors "github.com/kitenge/shop-backend/internal"
	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/order"
)

type OrderService struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewOrderService(repo RepositoryAPI, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		logger: logger,
	}
}

// GenerateOrderNumber builds a short human-quotable order number from a uuid
// fragment, e.g. ORD-9F86D081.
func GenerateOrderNumber() string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s", fragment)
}

func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	orderNumber := req.OrderNumber
	if orderNumber == "" {
		orderNumber = GenerateOrderNumber()
	}

	products, err := json.Marshal(req.Products)
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize products", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "KES"
	}

	o := &datamodel.Order{
		OrderNumber:  orderNumber,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		ClerkUserID:  req.ClerkUserID,
		Address:      req.Address,
		Products:     products,
		TotalPrice:   req.TotalPrice,
		Currency:     currency,
		Status:       datamodel.StatusPending,
	}

	if err := s.repo.Create(o); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return nil, errors.NewConflictError(
				fmt.Sprintf("order %s already exists", orderNumber), errors.ErrCodeOrderDuplicate)
		}
		return nil, errors.NewInternalError("failed to create order", err)
	}

	s.logger.Info("order created",
		"order_number", o.OrderNumber,
		"total_price", o.TotalPrice,
		"currency", o.Currency)

	return s.toResponse(o)
}

func (s *OrderService) GetOrder(orderNumber string) (*OrderResponse, error) {
	o, err := s.repo.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	return s.toResponse(o)
}

// MarkPaid performs the conditional pending-to-paid transition, stamping the
// settlement details. Returns false when another caller already won it.
func (s *OrderService) MarkPaid(ctx context.Context, orderNumber string, details datamodel.PaymentDetails) (bool, error) {
	payment, err := json.Marshal(details)
	if err != nil {
		return false, errors.NewInternalError("failed to serialize payment details", err)
	}

	transitioned, err := s.repo.MarkPaid(orderNumber, payment, time.Now().UTC())
	if err != nil {
		return false, err
	}

	return transitioned, nil
}

func (s *OrderService) toResponse(o *datamodel.Order) (*OrderResponse, error) {
	var products []datamodel.Line
	if len(o.Products) > 0 {
		if err := json.Unmarshal(o.Products, &products); err != nil {
			s.logger.Error("failed to decode order products", "error", err, "order_number", o.OrderNumber)
		}
	}

	var payment *datamodel.PaymentDetails
	if len(o.Payment) > 0 {
		var details datamodel.PaymentDetails
		if err := json.Unmarshal(o.Payment, &details); err != nil {
			s.logger.Error("failed to decode order payment", "error", err, "order_number", o.OrderNumber)
		} else {
			payment = &details
		}
	}

	return &OrderResponse{
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		Email:        o.Email,
		Status:       o.Status,
		TotalPrice:   o.TotalPrice,
		Currency:     o.Currency,
		Products:     products,
		Address:      o.Address,
		PaidAt:       o.PaidAt,
		Payment:      payment,
		CreatedAt:    o.CreatedAt,
	}, nil
}
