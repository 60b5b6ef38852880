package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abelkene001/mini-biz/internal/subscriptions"
	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/paystack"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Outcome string

const (
	OutcomeAdminBypass    Outcome = "admin_bypass"
	OutcomeAlreadyActive  Outcome = "already_active"
	OutcomePaymentSession Outcome = "payment_session"
	OutcomeVerified       Outcome = "verified"
	OutcomeFailed         Outcome = "failed"
)

var subscriptionOwnerConstraint = db.UniqueConstraint{
	Name:   models.SubscriptionOwnerConstraint,
	Table:  "subscriptions",
	Column: "owner_account_id",
}

// Gateway is the subset of the payment provider client used by the flow.
type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type adminBootstrapper interface {
	EnsureAdminSubscription(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type InitializeInput struct {
	AccountID uuid.UUID
	Email     string
}

type InitializeResult struct {
	Outcome          Outcome
	AuthorizationURL string
	AccessCode       string
	Reference        string
	SubscriptionID   uuid.UUID
}

type VerifyInput struct {
	Reference      string
	SubscriptionID *uuid.UUID
}

type VerifyResult struct {
	Outcome          Outcome
	Subscription     *models.Subscription
	Payment          PaymentSummary
	AlreadyProcessed bool
	GatewayResponse  string
}

// Service runs the two-step subscription payment: a hosted session is
// created on initialize and the gateway's verdict is applied on verify.
type Service interface {
	Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error)
	Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error)
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Gate          adminBootstrapper
	Subscriptions subscriptions.Repository
	Payments      Repository
	Gateway       Gateway
	Tx            txRunner
	Config        config.SubscriptionConfig
	CallbackURL   string
	Logger        *logger.Logger
}

type service struct {
	gate        adminBootstrapper
	subs        subscriptions.Repository
	payments    Repository
	gateway     Gateway
	tx          txRunner
	cfg         config.SubscriptionConfig
	callbackURL string
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Gate == nil:
		return nil, errors.New("subscription gate is required")
	case params.Subscriptions == nil:
		return nil, errors.New("subscription repository is required")
	case params.Payments == nil:
		return nil, errors.New("payment repository is required")
	case params.Gateway == nil:
		return nil, errors.New("payment gateway is required")
	case params.Tx == nil:
		return nil, errors.New("transaction runner is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		gate:        params.Gate,
		subs:        params.Subscriptions,
		payments:    params.Payments,
		gateway:     params.Gateway,
		tx:          params.Tx,
		cfg:         params.Config,
		callbackURL: params.CallbackURL,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	email := strings.TrimSpace(input.Email)
	if input.AccountID == uuid.Nil || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id and email are required")
	}
	ctx = s.logg.WithAccountID(ctx, input.AccountID.String())

	if s.cfg.IsAdminEmail(email) {
		sub, err := s.gate.EnsureAdminSubscription(ctx, input.AccountID)
		if err != nil {
			return nil, err
		}
		return &InitializeResult{Outcome: OutcomeAdminBypass, SubscriptionID: sub.ID}, nil
	}

	now := s.now().UTC()
	sub, err := s.subs.FindByOwner(ctx, input.AccountID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub != nil && s.alreadyActive(sub, now) {
		return &InitializeResult{Outcome: OutcomeAlreadyActive, SubscriptionID: sub.ID}, nil
	}

	sub, err = s.preparePending(ctx, input.AccountID, sub)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("sub_%s_%d", sub.ID, now.UnixMilli())
	ctx = s.logg.WithFields(ctx, map[string]any{
		"subscription_id": sub.ID.String(),
		"reference":       reference,
	})

	session, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       email,
		AmountKobo:  s.cfg.PlanAmountKobo,
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"account_id":      input.AccountID.String(),
			"subscription_id": sub.ID.String(),
			"plan_name":       s.cfg.PlanName,
		},
	})
	if err != nil {
		s.logg.Error(ctx, "payment.initialize.failed", err)
		return nil, err
	}

	if err := s.subs.Update(ctx, sub.ID, map[string]any{"payment_reference": session.Reference}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment reference")
	}

	s.logg.Info(ctx, "payment.initialize.session_created")
	return &InitializeResult{
		Outcome:          OutcomePaymentSession,
		AuthorizationURL: session.AuthorizationURL,
		AccessCode:       session.AccessCode,
		Reference:        session.Reference,
		SubscriptionID:   sub.ID,
	}, nil
}

// alreadyActive decides the initialize short-circuit. With RenewExpired an
// expired subscription is treated as payable again.
func (s *service) alreadyActive(sub *models.Subscription, now time.Time) bool {
	if s.cfg.RenewExpired {
		return sub.IsActiveAt(now)
	}
	return sub.Status == enums.SubscriptionStatusActive
}

// preparePending returns the owner's single subscription row in pending
// state at the current plan price, creating it on the first attempt.
func (s *service) preparePending(ctx context.Context, accountID uuid.UUID, existing *models.Subscription) (*models.Subscription, error) {
	if existing == nil {
		sub := &models.Subscription{
			OwnerAccountID: accountID,
			Status:         enums.SubscriptionStatusPending,
			PlanName:       s.cfg.PlanName,
			PlanAmountKobo: s.cfg.PlanAmountKobo,
		}
		err := s.subs.Create(ctx, sub)
		if err == nil {
			return sub, nil
		}
		if !db.IsUniqueViolation(err, subscriptionOwnerConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		existing, err = s.subs.FindByOwner(ctx, accountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload subscription")
		}
	}

	if existing.Status == enums.SubscriptionStatusPending &&
		existing.PlanAmountKobo == s.cfg.PlanAmountKobo &&
		existing.PlanName == s.cfg.PlanName {
		return existing, nil
	}

	updates := map[string]any{
		"status":           enums.SubscriptionStatusPending,
		"plan_name":        s.cfg.PlanName,
		"plan_amount_kobo": s.cfg.PlanAmountKobo,
	}
	if err := s.subs.Update(ctx, existing.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset subscription to pending")
	}
	existing.Status = enums.SubscriptionStatusPending
	existing.PlanName = s.cfg.PlanName
	existing.PlanAmountKobo = s.cfg.PlanAmountKobo
	return existing, nil
}

func (s *service) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	ctx = s.logg.WithReference(ctx, reference)

	txn, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.logg.Error(ctx, "payment.verify.failed", err)
		return nil, err
	}

	subID, err := resolveSubscriptionID(input.SubscriptionID, txn)
	if err != nil {
		return nil, err
	}
	if subID != nil {
		ctx = s.logg.WithField(ctx, "subscription_id", subID.String())
	}

	if !txn.Succeeded() {
		return s.recordDecline(ctx, reference, subID, txn)
	}

	if subID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required for this reference")
	}
	if txn.PaidAt == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, paystack.ErrMalformedResponse, "successful transaction has no paid_at")
	}
	return s.applySuccess(ctx, reference, *subID, txn)
}

// resolveSubscriptionID prefers the caller's id but refuses one that
// disagrees with the id the gateway echoed back in metadata.
func resolveSubscriptionID(supplied *uuid.UUID, txn *paystack.Transaction) (*uuid.UUID, error) {
	var fromGateway *uuid.UUID
	if raw := txn.MetadataString("subscription_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			fromGateway = &id
		}
	}

	switch {
	case supplied != nil && fromGateway != nil && *supplied != *fromGateway:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference does not belong to this subscription").
			WithDetails(map[string]any{"subscription_id": supplied.String()})
	case supplied != nil:
		return supplied, nil
	default:
		return fromGateway, nil
	}
}

func (s *service) recordDecline(ctx context.Context, reference string, subID *uuid.UUID, txn *paystack.Transaction) (*VerifyResult, error) {
	now := s.now().UTC()
	var current *models.Subscription

	err := s.tx.WithTx(ctx, func(gtx *gorm.DB) error {
		subs := s.subs.WithTx(gtx)
		record := &models.PaymentRecord{
			AmountKobo:        txn.AmountKobo,
			ExternalReference: reference,
			Status:            enums.PaymentRecordStatusFailed,
			Method:            enums.PaymentMethodPaystack,
			RawMetadata:       datatypes.JSON(txn.Raw),
		}

		if subID != nil {
			sub, err := subs.FindByID(ctx, *subID)
			switch {
			case err == nil:
				record.SubscriptionID = &sub.ID
				record.OwnerAccountID = &sub.OwnerAccountID
				// A stale declined reference never revokes a paid entitlement.
				if !sub.IsActiveAt(now) && sub.Status != enums.SubscriptionStatusPending {
					if err := subs.Update(ctx, sub.ID, map[string]any{"status": enums.SubscriptionStatusPending}); err != nil {
						return err
					}
					sub.Status = enums.SubscriptionStatusPending
				}
				current = sub
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return err
			}
		}

		return s.payments.WithTx(gtx).InsertFailed(ctx, record)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record declined payment")
	}

	ctx = s.logg.WithField(ctx, "gateway_status", txn.Status)
	s.logg.Warn(ctx, "payment.verify.declined")
	return &VerifyResult{
		Outcome:         OutcomeFailed,
		Subscription:    current,
		Payment:         newPaymentSummary(reference, txn.AmountKobo, nil, nil),
		GatewayResponse: txn.GatewayResponse,
	}, nil
}

// applySuccess is idempotent per reference: only the call that inserts the
// success audit row moves the subscription, so repeated verifies (browser
// plus gateway redirect) leave one row and one expiry.
func (s *service) applySuccess(ctx context.Context, reference string, subID uuid.UUID, txn *paystack.Transaction) (*VerifyResult, error) {
	paidAt := txn.PaidAt.UTC()
	expiresAt := paidAt.Add(s.cfg.PlanDuration())

	var result *VerifyResult
	err := s.tx.WithTx(ctx, func(gtx *gorm.DB) error {
		subs := s.subs.WithTx(gtx)

		sub, err := subs.FindByID(ctx, subID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
			}
			return err
		}

		inserted, err := s.payments.WithTx(gtx).InsertSuccess(ctx, &models.PaymentRecord{
			OwnerAccountID:    &sub.OwnerAccountID,
			SubscriptionID:    &sub.ID,
			AmountKobo:        txn.AmountKobo,
			ExternalReference: reference,
			Status:            enums.PaymentRecordStatusSuccess,
			Method:            enums.PaymentMethodPaystack,
			RawMetadata:       datatypes.JSON(txn.Raw),
		})
		if err != nil {
			return err
		}
		if !inserted {
			result = &VerifyResult{
				Outcome:          OutcomeVerified,
				Subscription:     sub,
				Payment:          newPaymentSummary(reference, txn.AmountKobo, sub.PaidAt, sub.ExpiresAt),
				AlreadyProcessed: true,
			}
			return nil
		}

		updates := map[string]any{
			"status":            enums.SubscriptionStatusActive,
			"paid_at":           paidAt,
			"expires_at":        expiresAt,
			"renewal_date":      expiresAt,
			"payment_reference": reference,
		}
		if err := subs.Update(ctx, sub.ID, updates); err != nil {
			return err
		}
		sub.Status = enums.SubscriptionStatusActive
		sub.PaidAt = &paidAt
		sub.ExpiresAt = &expiresAt
		sub.RenewalDate = &expiresAt
		sub.PaymentReference = &reference

		result = &VerifyResult{
			Outcome:      OutcomeVerified,
			Subscription: sub,
			Payment:      newPaymentSummary(reference, txn.AmountKobo, &paidAt, &expiresAt),
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply verified payment")
	}

	if result.AlreadyProcessed {
		s.logg.Info(ctx, "payment.verify.already_processed")
	} else {
		s.logg.Info(ctx, "payment.verify.succeeded")
	}
	return result, nil
}
