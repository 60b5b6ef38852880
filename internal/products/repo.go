package products

import (
	"context"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository scopes every product query by shop id.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) FindByIDForShop(ctx context.Context, id, shopID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateFields returns gorm.ErrRecordNotFound when the product is missing
// or belongs to another shop.
func (r *Repository) UpdateFields(ctx context.Context, id, shopID uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND shop_id = ?", id, shopID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id, shopID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", id, shopID).
		Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var out []models.Product
	if err := query.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
