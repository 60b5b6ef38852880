package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abelkene001/mini-biz/pkg/enums"
)

const SubscriptionOwnerConstraint = "subscriptions_owner_account_id_key"

// Subscription is the single access entitlement row for an account.
type Subscription struct {
	ID               uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerAccountID   uuid.UUID                `gorm:"column:owner_account_id;type:uuid;not null;uniqueIndex:subscriptions_owner_account_id_key"`
	Status           enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null"`
	PlanName         string                   `gorm:"column:plan_name;not null"`
	PlanAmountKobo   int64                    `gorm:"column:plan_amount_kobo;not null"`
	PaymentReference *string                  `gorm:"column:payment_reference"`
	PaidAt           *time.Time               `gorm:"column:paid_at"`
	ExpiresAt        *time.Time               `gorm:"column:expires_at"`
	RenewalDate      *time.Time               `gorm:"column:renewal_date"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string { return "subscriptions" }

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// IsActiveAt applies the gating rule: status active and either no expiry or
// an expiry after now.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s == nil || s.Status != enums.SubscriptionStatusActive {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}
