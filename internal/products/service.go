package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxNameLength        = 120
	maxDescriptionLength = 2000
)

type productRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByIDForShop(ctx context.Context, id, shopID uuid.UUID) (*models.Product, error)
	UpdateFields(ctx context.Context, id, shopID uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id, shopID uuid.UUID) error
	ListByShop(ctx context.Context, shopID uuid.UUID, activeOnly bool) ([]models.Product, error)
}

type shopLookup interface {
	FindByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Shop, error)
}

type CreateInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
	ImageURL    *string
	Active      *bool
}

// UpdateInput is partial; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
	ImageURL    *string
	Active      *bool
}

// Service manages the products of the caller's own shop.
type Service interface {
	Create(ctx context.Context, accountID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, accountID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, accountID, productID uuid.UUID) error
	ListForOwner(ctx context.Context, accountID uuid.UUID) ([]ProductDTO, error)
	ListActiveByShop(ctx context.Context, shopID uuid.UUID) ([]ProductDTO, error)
}

type service struct {
	repo  productRepository
	shops shopLookup
	logg  *logger.Logger
}

func NewService(repo productRepository, shops shopLookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, shops: shops, logg: logg}, nil
}

func (s *service) ownShop(ctx context.Context, accountID uuid.UUID) (*models.Shop, error) {
	shop, err := s.shops.FindByOwner(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found; complete onboarding first")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return shop, nil
}

func (s *service) Create(ctx context.Context, accountID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price, false); err != nil {
		return nil, err
	}
	description, err := validateDescription(input.Description)
	if err != nil {
		return nil, err
	}

	shop, err := s.ownShop(ctx, accountID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ShopID:      shop.ID,
		Name:        name,
		Price:       input.Price,
		Description: description,
		ImageURL:    normalizeOptional(input.ImageURL),
		Active:      input.Active == nil || *input.Active,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"shop_id": shop.ID.String(), "product_id": product.ID.String()})
	s.logg.Info(ctx, "product.created")
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, accountID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price, true); err != nil {
			return nil, err
		}
		updates["price"] = *input.Price
	}
	if input.Description != nil {
		description, err := validateDescription(*input.Description)
		if err != nil {
			return nil, err
		}
		updates["description"] = description
	}
	if input.ImageURL != nil {
		updates["image_url"] = normalizeOptional(input.ImageURL)
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	shop, err := s.ownShop(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateFields(ctx, productID, shop.ID, updates); err != nil {
			return nil, mapRepoErr(err, "update product")
		}
	}

	product, err := s.repo.FindByIDForShop(ctx, productID, shop.ID)
	if err != nil {
		return nil, mapRepoErr(err, "load product")
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, accountID, productID uuid.UUID) error {
	shop, err := s.ownShop(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID, shop.ID); err != nil {
		return mapRepoErr(err, "delete product")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"shop_id": shop.ID.String(), "product_id": productID.String()})
	s.logg.Info(ctx, "product.deleted")
	return nil
}

func (s *service) ListForOwner(ctx context.Context, accountID uuid.UUID) ([]ProductDTO, error) {
	shop, err := s.ownShop(ctx, accountID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByShop(ctx, shop.ID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return fromModels(items), nil
}

func (s *service) ListActiveByShop(ctx context.Context, shopID uuid.UUID) ([]ProductDTO, error) {
	items, err := s.repo.ListByShop(ctx, shopID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list storefront products")
	}
	return fromModels(items), nil
}

func mapRepoErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product name must be at most %d characters", maxNameLength))
	}
	return name, nil
}

// validatePrice allows zero only on update; new listings must cost
// something.
func validatePrice(price decimal.Decimal, allowZero bool) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if !allowZero && price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if !price.Equal(price.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must have at most two decimal places")
	}
	return nil
}

func validateDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return description, nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
