package orders

import (
	"context"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByShop returns newest first. A nil status lists every order.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID, status *enums.OrderStatus) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var out []models.Order
	if err := query.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves the order only while it is still in from. It reports
// false when another request already moved it.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
