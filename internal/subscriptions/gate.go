package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ownerConstraint = db.UniqueConstraint{
	Name:   models.SubscriptionOwnerConstraint,
	Table:  "subscriptions",
	Column: "owner_account_id",
}

type accountLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Status is the gate's decision for one account.
type Status struct {
	Active       bool
	IsAdmin      bool
	Subscription *models.Subscription
}

// Gate decides whether an account may use the merchant dashboard.
type Gate interface {
	IsActive(ctx context.Context, accountID uuid.UUID) (Status, error)
	EnsureAdminSubscription(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
}

type gate struct {
	accounts accountLookup
	repo     Repository
	cfg      config.SubscriptionConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewGate(accounts accountLookup, repo Repository, cfg config.SubscriptionConfig, logg *logger.Logger) (Gate, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account lookup required")
	}
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &gate{accounts: accounts, repo: repo, cfg: cfg, logg: logg, now: time.Now}, nil
}

// IsActive resolves the account and applies the gating rule. The admin
// account is always active; its bootstrap row is written on first sight.
func (g *gate) IsActive(ctx context.Context, accountID uuid.UUID) (Status, error) {
	account, err := g.accounts.FindByID(ctx, accountID)
	if err != nil {
		return Status{}, err
	}

	if g.cfg.IsAdminEmail(account.Email) {
		sub, err := g.EnsureAdminSubscription(ctx, accountID)
		if err != nil {
			g.logg.Error(ctx, "subscription.admin.bootstrap_failed", err)
		}
		return Status{Active: true, IsAdmin: true, Subscription: sub}, nil
	}

	sub, err := g.repo.FindByOwner(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Status{}, nil
		}
		return Status{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return Status{Active: sub.IsActiveAt(g.now()), Subscription: sub}, nil
}

// EnsureAdminSubscription is check-then-insert. Losing the insert race to a
// concurrent bootstrap is success; the unique owner index keeps one row.
func (g *gate) EnsureAdminSubscription(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	existing, err := g.repo.FindByOwner(ctx, accountID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	now := g.now().UTC()
	expires := now.Add(g.cfg.PlanDuration())
	sub := &models.Subscription{
		OwnerAccountID: accountID,
		Status:         enums.SubscriptionStatusActive,
		PlanName:       g.cfg.PlanName,
		PlanAmountKobo: 0,
		PaidAt:         &now,
		ExpiresAt:      &expires,
		RenewalDate:    &expires,
	}
	if err := g.repo.Create(ctx, sub); err != nil {
		if db.IsUniqueViolation(err, ownerConstraint) {
			winner, findErr := g.repo.FindByOwner(ctx, accountID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload subscription")
			}
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin subscription")
	}

	g.logg.Info(g.logg.WithField(ctx, "subscription_id", sub.ID.String()), "subscription.admin.bootstrap")
	return sub, nil
}
