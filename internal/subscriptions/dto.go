package subscriptions

import (
	"time"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	"github.com/google/uuid"
)

type SubscriptionDTO struct {
	ID               uuid.UUID                `json:"id"`
	Status           enums.SubscriptionStatus `json:"status"`
	PlanName         string                   `json:"plan_name"`
	PlanAmountKobo   int64                    `json:"plan_amount_kobo"`
	PaymentReference *string                  `json:"payment_reference,omitempty"`
	PaidAt           *time.Time               `json:"paid_at,omitempty"`
	ExpiresAt        *time.Time               `json:"expires_at,omitempty"`
	RenewalDate      *time.Time               `json:"renewal_date,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
}

// CheckResult is the body of the subscription check endpoint.
type CheckResult struct {
	IsActive     bool             `json:"is_active"`
	IsAdmin      bool             `json:"is_admin"`
	Subscription *SubscriptionDTO `json:"subscription,omitempty"`
}

func FromModel(m *models.Subscription) *SubscriptionDTO {
	if m == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:               m.ID,
		Status:           m.Status,
		PlanName:         m.PlanName,
		PlanAmountKobo:   m.PlanAmountKobo,
		PaymentReference: m.PaymentReference,
		PaidAt:           m.PaidAt,
		ExpiresAt:        m.ExpiresAt,
		RenewalDate:      m.RenewalDate,
		CreatedAt:        m.CreatedAt,
	}
}

func (s Status) ToCheckResult() CheckResult {
	return CheckResult{
		IsActive:     s.Active,
		IsAdmin:      s.IsAdmin,
		Subscription: FromModel(s.Subscription),
	}
}
