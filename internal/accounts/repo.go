package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the local mirror of identity-provider accounts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the account or refreshes its email. A blank email never
// overwrites a known one.
func (r *Repository) Upsert(ctx context.Context, id uuid.UUID, email string) error {
	account := &models.Account{ID: id, Email: strings.TrimSpace(email)}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{"email": account.Email, "updated_at": time.Now().UTC()}),
	}
	if account.Email == "" {
		onConflict = clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	}

	return r.db.WithContext(ctx).Clauses(onConflict).Create(account).Error
}

// FindByID loads an account by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
