package order

import (
	"encoding/json"
	"time"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// PaymentMethodMpesa is the only method this service writes; card payments are
// settled by the hosted checkout provider and never pass through here.
const PaymentMethodMpesa = "mpesa"

type Order struct {
	ID           int64           `gorm:"primaryKey"`
	OrderNumber  string          `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerName string          `gorm:"column:customer_name"`
	Email        string          `gorm:"column:email"`
	ClerkUserID  string          `gorm:"column:clerk_user_id"`
	Address      json.RawMessage `gorm:"column:address;type:jsonb"`
	Products     json.RawMessage `gorm:"column:products;type:jsonb"`
	TotalPrice   int64           `gorm:"column:total_price;not null"`
	Currency     string          `gorm:"column:currency;default:KES"`
	Status       string          `gorm:"column:status;default:pending"`
	PaidAt       *time.Time      `gorm:"column:paid_at"`
	Payment      json.RawMessage `gorm:"column:payment;type:jsonb"`
	CreatedAt    time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;default:now()"`
}

func (Order) TableName() string {
	return "orders"
}

// PaymentDetails is the sub-object stamped onto a paid order.
type PaymentDetails struct {
	Method       string `json:"method"`
	MpesaReceipt string `json:"mpesaReceipt,omitempty"`
	Amount       int64  `json:"amount"`
	Phone        string `json:"phone,omitempty"`
}

// Line is one purchased product inside the order's products payload.
type Line struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}
