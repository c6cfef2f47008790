package postgres

import (
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/kitenge/shop-backend/internal"
	datamodel "github.com/kitenge/shop-backend/internal/core/datamodel/order"
	orderpkg "github.com/kitenge/shop-backend/internal/order"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) orderpkg.RepositoryAPI {
	return &OrderRepository{
		db: db,
	}
}

func (r *OrderRepository) Create(o *datamodel.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByOrderNumber(orderNumber string) (*datamodel.Order, error) {
	var o datamodel.Order
	err := r.db.Where("order_number = ?", orderNumber).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// MarkPaid flips a not-yet-paid order to paid in one conditional statement.
// RowsAffected tells the caller whether this invocation won the transition;
// a replayed callback matches zero rows and changes nothing.
func (r *OrderRepository) MarkPaid(orderNumber string, payment json.RawMessage, paidAt time.Time) (bool, error) {
	result := r.db.Model(&datamodel.Order{}).
		Where("order_number = ? AND status <> ?", orderNumber, datamodel.StatusPaid).
		Updates(map[string]interface{}{
			"status":     datamodel.StatusPaid,
			"paid_at":    paidAt,
			"payment":    payment,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
