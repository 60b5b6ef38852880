package shops

import (
	"context"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository wraps shop persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *Repository) FindByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Where("owner_account_id = ?", ownerAccountID).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Shop{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// UpdateFields returns gorm.ErrRecordNotFound when no row matched.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Shop{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
