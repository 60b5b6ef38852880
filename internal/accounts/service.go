package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountRepository interface {
	Upsert(ctx context.Context, id uuid.UUID, email string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Service keeps accounts in step with verified access tokens.
type Service interface {
	Sync(ctx context.Context, id uuid.UUID, email string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type service struct {
	repo accountRepository
}

func NewService(repo accountRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Sync(ctx context.Context, id uuid.UUID, email string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if err := s.repo.Upsert(ctx, id, email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sync account")
	}
	return nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}
