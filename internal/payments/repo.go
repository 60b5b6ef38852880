package payments

import (
	"context"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository appends payment audit rows. Rows are never updated.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertSuccess(ctx context.Context, record *models.PaymentRecord) (bool, error)
	InsertFailed(ctx context.Context, record *models.PaymentRecord) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertSuccess reports false when a success row for the same external
// reference already exists. The partial unique index on
// (external_reference) WHERE status = 'success' makes the conflict a no-op.
func (r *repository) InsertSuccess(ctx context.Context, record *models.PaymentRecord) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) InsertFailed(ctx context.Context, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
