package orders

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abelkene001/mini-biz/internal/notifications"
	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxQuantity       = 1000
	maxCustomerField  = 200
	maxAddressLength  = 500
	defaultNotifyWait = 10 * time.Second
)

var (
	ErrShopNotFound      = pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	ErrProductNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrOrderNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	ErrNotShopOwner      = pkgerrors.New(pkgerrors.CodeForbidden, "you do not own this shop")
	ErrInvalidTransition = pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is no longer pending")
)

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByShop(ctx context.Context, shopID uuid.UUID, status *enums.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
}

type shopLookup interface {
	FindBySlug(ctx context.Context, slug string) (*models.Shop, error)
	FindByOwner(ctx context.Context, ownerAccountID uuid.UUID) (*models.Shop, error)
}

type productLookup interface {
	FindByIDForShop(ctx context.Context, id, shopID uuid.UUID) (*models.Product, error)
}

type ProofFile struct {
	Filename string
	Content  []byte
}

type SubmitInput struct {
	ShopSlug        string
	ProductID       uuid.UUID
	Quantity        int
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	Proof           ProofFile
}

type ListInput struct {
	ShopSlug string
	Status   string
}

type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error)
	ListForOwner(ctx context.Context, accountID uuid.UUID, input ListInput) (*ListResult, error)
	Transition(ctx context.Context, orderID, requesterAccountID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

type ServiceParams struct {
	Repo          orderRepository
	Shops         shopLookup
	Products      productLookup
	Store         storage.ObjectStore
	Notifier      notifications.Notifier
	Storage       config.StorageConfig
	NotifyTimeout time.Duration
	Logger        *logger.Logger
}

type service struct {
	repo          orderRepository
	shops         shopLookup
	products      productLookup
	store         storage.ObjectStore
	notifier      notifications.Notifier
	proofBucket   string
	proofRule     storage.ContentRule
	notifyTimeout time.Duration
	logg          *logger.Logger
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Shops == nil || params.Products == nil {
		return nil, fmt.Errorf("shop and product lookups required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := params.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyWait
	}
	return &service{
		repo:        params.Repo,
		shops:       params.Shops,
		products:    params.Products,
		store:       params.Store,
		notifier:    params.Notifier,
		proofBucket: params.Storage.ProofBucket,
		proofRule: storage.ContentRule{
			MaxBytes: params.Storage.ProofMaxBytes(),
			Groups:   []storage.ContentGroup{storage.GroupImages, storage.GroupPDFs},
		},
		notifyTimeout: timeout,
		logg:          logg,
		now:           time.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	customer, err := validateSubmit(input)
	if err != nil {
		return nil, err
	}

	shop, err := s.shops.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(input.ShopSlug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	ctx = s.logg.WithShopID(ctx, shop.ID.String())

	product, err := s.products.FindByIDForShop(ctx, input.ProductID, shop.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return nil, ErrProductNotFound
	}
	item := lineItemFor(product, input.Quantity)

	detected, err := s.proofRule.Check(input.Proof.Content)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment proof: "+err.Error())
	}
	object := s.proofObjectName(detected.Extension())
	if err := s.store.Upload(ctx, s.proofBucket, object, detected.String(), bytes.NewReader(input.Proof.Content)); err != nil {
		s.logg.Error(ctx, "order.proof.upload_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload payment proof")
	}

	productID := item.ProductID
	order := &models.Order{
		ShopID:          shop.ID,
		ProductID:       &productID,
		ProductName:     item.ProductName,
		UnitPrice:       item.UnitPrice,
		Quantity:        item.Quantity,
		Amount:          item.Amount(),
		CustomerName:    customer.name,
		CustomerPhone:   customer.phone,
		DeliveryAddress: customer.address,
		PaymentMethod:   enums.PaymentMethodBankTransfer,
		ProofObject:     object,
		Status:          enums.OrderStatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		if delErr := s.store.Delete(ctx, s.proofBucket, object); delErr != nil {
			s.logg.Error(s.logg.WithField(ctx, "object", object), "order.proof.cleanup_failed", delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	ctx = s.logg.WithField(ctx, "order_id", order.ID.String())
	s.logg.Info(ctx, "order.submitted")

	result := s.notify(ctx, shop, order)
	return &SubmitResult{
		Order:        FromModel(order, s.store.PublicURL(s.proofBucket, order.ProofObject)),
		Notified:     result.Success && !result.Skipped,
		Notification: &result,
	}, nil
}

// notify runs after the order is committed. The caller's cancellation does
// not abort delivery, but the wait is bounded.
func (s *service) notify(ctx context.Context, shop *models.Shop, order *models.Order) notifications.Result {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	contact := notifications.ContactFor(s.notifier.Transport(), shop)
	result := s.notifier.Notify(notifyCtx, contact, notifications.OrderSummary{
		OrderID:       order.ID,
		ShopSlug:      shop.Slug,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		ProductName:   order.ProductName,
		Quantity:      order.Quantity,
		Amount:        order.Amount,
	})
	ctx = s.logg.WithField(ctx, "transport", s.notifier.Transport().String())
	switch {
	case !result.Success:
		err := result.Err
		if err == nil {
			err = errors.New(result.Reason)
		}
		s.logg.Error(ctx, "order.notify.failed", err)
	case result.Skipped:
		s.logg.Warn(s.logg.WithField(ctx, "reason", result.Reason), "order.notify.skipped")
	}
	return result
}

func (s *service) proofObjectName(ext string) string {
	id := uuid.New()
	random := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), random, ext)
}

func (s *service) ListForOwner(ctx context.Context, accountID uuid.UUID, input ListInput) (*ListResult, error) {
	var statusFilter *enums.OrderStatus
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := enums.ParseOrderStatus(strings.ToLower(raw))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be pending, completed or failed")
		}
		statusFilter = &status
	}

	shop, err := s.ownedShop(ctx, accountID, input.ShopSlug)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByShop(ctx, shop.ID, statusFilter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(items))
	for i := range items {
		out = append(out, FromModel(&items[i], s.store.PublicURL(s.proofBucket, items[i].ProofObject)))
	}
	return &ListResult{Orders: out, Count: len(out)}, nil
}

// ownedShop resolves the shop named by slug, or the caller's own shop when
// no slug is given, and insists the caller owns it.
func (s *service) ownedShop(ctx context.Context, accountID uuid.UUID, slug string) (*models.Shop, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	var (
		shop *models.Shop
		err  error
	)
	if slug == "" {
		shop, err = s.shops.FindByOwner(ctx, accountID)
	} else {
		shop, err = s.shops.FindBySlug(ctx, slug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if shop.OwnerAccountID != accountID {
		return nil, ErrNotShopOwner
	}
	return shop, nil
}

func (s *service) Transition(ctx context.Context, orderID, requesterAccountID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if target != enums.OrderStatusCompleted && target != enums.OrderStatusFailed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be completed or failed")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	shop, err := s.shops.FindByOwner(ctx, requesterAccountID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if shop == nil || shop.ID != order.ShopID {
		return nil, ErrNotShopOwner
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "shop_id": shop.ID.String()})

	if !order.Status.CanTransitionTo(target) {
		return nil, invalidTransition(order.Status, target)
	}
	moved, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !moved {
		current, err := s.repo.FindByID(ctx, order.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil, invalidTransition(current.Status, target)
	}

	s.logg.Info(s.logg.WithField(ctx, "status", target.String()), "order.status.changed")
	order.Status = target
	order.UpdatedAt = s.now()
	dto := FromModel(order, s.store.PublicURL(s.proofBucket, order.ProofObject))
	return &dto, nil
}

func invalidTransition(current, target enums.OrderStatus) error {
	return pkgerrors.Wrap(pkgerrors.CodeInvalidTransition, ErrInvalidTransition,
		fmt.Sprintf("cannot move a %s order to %s", current, target)).
		WithDetails(map[string]any{"current_status": current, "requested_status": target})
}

type customerFields struct {
	name    string
	phone   string
	address string
}

func validateSubmit(input SubmitInput) (customerFields, error) {
	var out customerFields
	if strings.TrimSpace(input.ShopSlug) == "" {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "shop slug is required")
	}
	if input.ProductID == uuid.Nil {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 || input.Quantity > maxQuantity {
		return out, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxQuantity))
	}
	out.name = strings.TrimSpace(input.CustomerName)
	out.phone = strings.TrimSpace(input.CustomerPhone)
	out.address = strings.TrimSpace(input.DeliveryAddress)
	if out.name == "" || out.phone == "" {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "customer name and phone are required")
	}
	if utf8.RuneCountInString(out.name) > maxCustomerField || utf8.RuneCountInString(out.phone) > maxCustomerField {
		return out, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("customer fields must be at most %d characters", maxCustomerField))
	}
	if utf8.RuneCountInString(out.address) > maxAddressLength {
		return out, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("delivery address must be at most %d characters", maxAddressLength))
	}
	if len(input.Proof.Content) == 0 {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "payment proof is required")
	}
	return out, nil
}
