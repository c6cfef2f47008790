package postgres

import (
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/kitenge/shop-backend/internal"
	"github.com/kitenge/shop-backend/internal/core/datamodel/mpesa"
	paymentpkg "github.com/kitenge/shop-backend/internal/payment"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(req *mpesa.PaymentRequest) error {
	return r.db.Create(req).Error
}

// GetByRequestID looks the attempt up by checkout request id first, falling
// back to merchant request id when the checkout id is absent or unknown.
func (r *PaymentRepository) GetByRequestID(checkoutRequestID, merchantRequestID string) (*mpesa.PaymentRequest, error) {
	var req mpesa.PaymentRequest

	if checkoutRequestID != "" {
		err := r.db.Where("checkout_request_id = ?", checkoutRequestID).First(&req).Error
		if err == nil {
			return &req, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if merchantRequestID != "" {
		err := r.db.Where("merchant_request_id = ?", merchantRequestID).First(&req).Error
		if err == nil {
			return &req, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, apperrors.ErrPaymentNotFound
}

func (r *PaymentRepository) GetLatestByOrderNumber(orderNumber string) (*mpesa.PaymentRequest, error) {
	var req mpesa.PaymentRequest
	err := r.db.Where("order_number = ?", orderNumber).Order("created_at DESC").First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, err
	}
	return &req, nil
}

// MarkResult writes the callback outcome onto an existing attempt. Re-applying
// the same terminal state is a safe overwrite.
func (r *PaymentRepository) MarkResult(id int64, status string, resultCode int, resultDesc, mpesaReceipt string, raw json.RawMessage) error {
	updates := map[string]interface{}{
		"status":      status,
		"result_code": resultCode,
		"result_desc": resultDesc,
		"updated_at":  time.Now(),
	}

	if mpesaReceipt != "" {
		updates["mpesa_receipt"] = mpesaReceipt
	}

	if raw != nil {
		updates["raw"] = raw
	}

	return r.db.Model(&mpesa.PaymentRequest{}).Where("id = ?", id).Updates(updates).Error
}
