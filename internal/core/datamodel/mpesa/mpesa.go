package mpesa

import (
	"encoding/json"
	"time"
)

// PaymentRequest statuses. PENDING is set at initiation; the terminal states
// are written only by callback reconciliation.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// PaymentRequest tracks one STK push attempt. The carrier-issued
// merchant/checkout request ids are the join keys for the async callback.
type PaymentRequest struct {
	ID                int64           `gorm:"primaryKey"`
	OrderNumber       string          `gorm:"column:order_number;not null;index"`
	Amount            int64           `gorm:"column:amount;not null"`
	Phone             string          `gorm:"column:phone"`
	MerchantRequestID string          `gorm:"column:merchant_request_id;index"`
	CheckoutRequestID string          `gorm:"column:checkout_request_id;index"`
	Status            string          `gorm:"column:status;default:PENDING"`
	Response          json.RawMessage `gorm:"column:response;type:jsonb"`
	Raw               json.RawMessage `gorm:"column:raw;type:jsonb"`
	MpesaReceipt      string          `gorm:"column:mpesa_receipt"`
	ResultCode        *int            `gorm:"column:result_code"`
	ResultDesc        string          `gorm:"column:result_desc"`
	CreatedAt         time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;default:now()"`
}

func (PaymentRequest) TableName() string {
	return "mpesa_requests"
}

// Terminal reports whether the record has already left PENDING.
func (p *PaymentRequest) Terminal() bool {
	return p.Status == StatusSuccess || p.Status == StatusFailed
}
