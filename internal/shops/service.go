package shops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abelkene001/mini-biz/internal/products"
	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const maxBusinessNameLength = 120

var (
	ErrAlreadyOnboarded = pkgerrors.New(pkgerrors.CodeConflict, "this account already has a shop")
	ErrShopNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")

	slugConstraint = db.UniqueConstraint{
		Name:   models.ShopSlugConstraint,
		Table:  "shops",
		Column: "slug",
	}
	ownerConstraint = db.UniqueConstraint{
		Name:   models.ShopOwnerConstraint,
		Table:  "shops",
		Column: "owner_account_id",
	}
)

type shopRepository interface {
	slugChecker
	Create(ctx context.Context, shop *models.Shop) error
	FindByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Shop, error)
	FindBySlug(ctx context.Context, slug string) (*models.Shop, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type storefrontProducts interface {
	ListActiveByShop(ctx context.Context, shopID uuid.UUID) ([]products.ProductDTO, error)
}

type OnboardInput struct {
	BusinessName      string
	WhatsAppNumber    string
	ChatContactID     string
	BankName          string
	BankAccountNumber string
	BankAccountName   string
}

// SettingsInput is partial. The slug is fixed at onboarding and cannot be
// changed here.
type SettingsInput struct {
	Name              *string
	WhatsAppNumber    *string
	ChatContactID     *string
	BankName          *string
	BankAccountNumber *string
	BankAccountName   *string
}

// HeroImageInput replaces one banner slot. Empty content with DeleteOld
// clears the slot.
type HeroImageInput struct {
	Type      enums.HeroImageType
	Filename  string
	Content   []byte
	DeleteOld bool
}

type Service interface {
	Onboard(ctx context.Context, accountID uuid.UUID, input OnboardInput) (*ShopDTO, error)
	GetMine(ctx context.Context, accountID uuid.UUID) (*ShopDTO, error)
	UpdateSettings(ctx context.Context, accountID uuid.UUID, input SettingsInput) (*ShopDTO, error)
	UploadHeroImage(ctx context.Context, accountID uuid.UUID, input HeroImageInput) (*HeroImageResult, error)
	GetStorefront(ctx context.Context, slug string) (*StorefrontDTO, error)
}

// ServiceParams groups dependencies for the shop service.
type ServiceParams struct {
	Repo       shopRepository
	Products   storefrontProducts
	Store      storage.ObjectStore
	Storage    config.StorageConfig
	Onboarding config.OnboardingConfig
	AppURL     string
	Logger     *logger.Logger
}

type service struct {
	repo     shopRepository
	products storefrontProducts
	store    storage.ObjectStore
	slugs    *Allocator
	storage  config.StorageConfig
	heroRule storage.ContentRule
	appURL   string
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		store:    params.Store,
		slugs:    NewAllocator(params.Repo, params.Onboarding.SlugMaxAttempts),
		storage:  params.Storage,
		heroRule: storage.ContentRule{
			MaxBytes: params.Storage.HeroImageMaxBytes(),
			Groups:   []storage.ContentGroup{storage.GroupImages},
		},
		appURL: params.AppURL,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Onboard(ctx context.Context, accountID uuid.UUID, input OnboardInput) (*ShopDTO, error) {
	name := strings.TrimSpace(input.BusinessName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	if utf8.RuneCountInString(name) > maxBusinessNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("business name must be at most %d characters", maxBusinessNameLength))
	}
	whatsapp := strings.TrimSpace(input.WhatsAppNumber)
	if whatsapp == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "whatsapp number is required")
	}
	ctx = s.logg.WithAccountID(ctx, accountID.String())

	if _, err := s.repo.FindByOwner(ctx, accountID); err == nil {
		return nil, ErrAlreadyOnboarded
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing shop")
	}

	base := NormalizeSlug(name)
	counter := 1
	for {
		slug, used, err := s.slugs.Allocate(ctx, base, counter)
		if err != nil {
			return nil, err
		}

		shop := &models.Shop{
			OwnerAccountID:    accountID,
			Name:              name,
			Slug:              slug,
			ChatContactID:     strings.TrimSpace(input.ChatContactID),
			WhatsAppNumber:    whatsapp,
			BankName:          strings.TrimSpace(input.BankName),
			BankAccountNumber: strings.TrimSpace(input.BankAccountNumber),
			BankAccountName:   strings.TrimSpace(input.BankAccountName),
		}
		err = s.repo.Create(ctx, shop)
		switch {
		case err == nil:
			ctx = s.logg.WithFields(ctx, map[string]any{"shop_id": shop.ID.String(), "slug": slug})
			s.logg.Info(ctx, "shop.onboarded")
			return FromModel(shop, s.appURL), nil
		case db.IsUniqueViolation(err, ownerConstraint):
			return nil, ErrAlreadyOnboarded
		case db.IsUniqueViolation(err, slugConstraint):
			s.logg.Warn(s.logg.WithField(ctx, "slug", slug), "slug.collision.retry")
			counter = used + 1
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
		}
	}
}

func (s *service) ownShop(ctx context.Context, accountID uuid.UUID) (*models.Shop, error) {
	shop, err := s.repo.FindByOwner(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return shop, nil
}

func (s *service) GetMine(ctx context.Context, accountID uuid.UUID) (*ShopDTO, error) {
	shop, err := s.ownShop(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return FromModel(shop, s.appURL), nil
}

func (s *service) UpdateSettings(ctx context.Context, accountID uuid.UUID, input SettingsInput) (*ShopDTO, error) {
	shop, err := s.ownShop(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || utf8.RuneCountInString(name) > maxBusinessNameLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("business name must be 1 to %d characters", maxBusinessNameLength))
		}
		updates["name"] = name
		shop.Name = name
	}
	if input.WhatsAppNumber != nil {
		number := strings.TrimSpace(*input.WhatsAppNumber)
		if number == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "whatsapp number cannot be empty")
		}
		updates["whatsapp_number"] = number
		shop.WhatsAppNumber = number
	}
	setText(updates, "chat_contact_id", input.ChatContactID, &shop.ChatContactID)
	setText(updates, "bank_name", input.BankName, &shop.BankName)
	setText(updates, "bank_account_number", input.BankAccountNumber, &shop.BankAccountNumber)
	setText(updates, "bank_account_name", input.BankAccountName, &shop.BankAccountName)

	if len(updates) == 0 {
		return FromModel(shop, s.appURL), nil
	}
	if err := s.repo.UpdateFields(ctx, shop.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shop settings")
	}
	return FromModel(shop, s.appURL), nil
}

func setText(updates map[string]any, column string, value *string, target *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	updates[column] = trimmed
	*target = trimmed
}

func (s *service) UploadHeroImage(ctx context.Context, accountID uuid.UUID, input HeroImageInput) (*HeroImageResult, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image type must be landscape or portrait")
	}
	shop, err := s.ownShop(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"shop_id": shop.ID.String(), "image_type": input.Type.String()})

	_, oldObject := shop.HeroImage(input.Type)
	urlColumn, objectColumn := models.HeroImageColumns(input.Type)
	bucket := s.storage.HeroBucket

	if len(input.Content) == 0 {
		if !input.DeleteOld {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "image file is required")
		}
		if err := s.repo.UpdateFields(ctx, shop.ID, map[string]any{urlColumn: nil, objectColumn: nil}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear hero image")
		}
		s.removeObject(ctx, bucket, oldObject)
		return &HeroImageResult{Type: input.Type}, nil
	}

	detected, err := s.heroRule.Check(input.Content)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	object := fmt.Sprintf("%s-%s-%d-%s", shop.ID, input.Type, s.now().UnixMilli(), storage.SanitizeObjectName(input.Filename))
	if err := s.store.Upload(ctx, bucket, object, detected.String(), bytes.NewReader(input.Content)); err != nil {
		s.logg.Error(ctx, "shop.hero_image.upload_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload hero image")
	}

	url := s.store.PublicURL(bucket, object)
	if err := s.repo.UpdateFields(ctx, shop.ID, map[string]any{urlColumn: url, objectColumn: object}); err != nil {
		if delErr := s.store.Delete(ctx, bucket, object); delErr != nil {
			err = multierr.Append(err, delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save hero image")
	}

	if oldObject != nil && *oldObject != object {
		s.removeObject(ctx, bucket, oldObject)
	}
	s.logg.Info(s.logg.WithField(ctx, "object", object), "shop.hero_image.updated")
	return &HeroImageResult{Type: input.Type, ImageURL: &url}, nil
}

// removeObject is best-effort; an orphaned object only costs storage.
func (s *service) removeObject(ctx context.Context, bucket string, object *string) {
	if object == nil || *object == "" {
		return
	}
	if err := s.store.Delete(ctx, bucket, *object); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "object", *object), "shop.hero_image.cleanup_failed", err)
	}
}

func (s *service) GetStorefront(ctx context.Context, slug string) (*StorefrontDTO, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop slug is required")
	}
	shop, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load storefront")
	}
	items, err := s.products.ListActiveByShop(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	return &StorefrontDTO{Shop: toPublic(shop), Products: items}, nil
}
