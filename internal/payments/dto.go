package payments

import (
	"time"

	"github.com/abelkene001/mini-biz/internal/subscriptions"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentSummary describes the verified charge. Amount is in naira.
type PaymentSummary struct {
	Reference  string          `json:"reference"`
	AmountKobo int64           `json:"amount_kobo"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

func newPaymentSummary(reference string, amountKobo int64, paidAt, expiresAt *time.Time) PaymentSummary {
	return PaymentSummary{
		Reference:  reference,
		AmountKobo: amountKobo,
		Amount:     decimal.New(amountKobo, -2),
		PaidAt:     paidAt,
		ExpiresAt:  expiresAt,
	}
}

type InitializeResponse struct {
	Status           Outcome    `json:"status"`
	Message          string     `json:"message,omitempty"`
	AuthorizationURL string     `json:"authorization_url,omitempty"`
	AccessCode       string     `json:"access_code,omitempty"`
	Reference        string     `json:"reference,omitempty"`
	SubscriptionID   *uuid.UUID `json:"subscription_id,omitempty"`
}

func (r *InitializeResult) ToResponse() InitializeResponse {
	resp := InitializeResponse{
		Status:           r.Outcome,
		AuthorizationURL: r.AuthorizationURL,
		AccessCode:       r.AccessCode,
		Reference:        r.Reference,
	}
	if r.SubscriptionID != uuid.Nil {
		id := r.SubscriptionID
		resp.SubscriptionID = &id
	}
	switch r.Outcome {
	case OutcomeAdminBypass:
		resp.Message = "admin account, payment skipped"
	case OutcomeAlreadyActive:
		resp.Message = "subscription already active"
	}
	return resp
}

type VerifyResponse struct {
	Status           Outcome                        `json:"status"`
	AlreadyProcessed bool                           `json:"already_processed"`
	Subscription     *subscriptions.SubscriptionDTO `json:"subscription"`
	Payment          PaymentSummary                 `json:"payment"`
}

func (r *VerifyResult) ToResponse() VerifyResponse {
	return VerifyResponse{
		Status:           r.Outcome,
		AlreadyProcessed: r.AlreadyProcessed,
		Subscription:     subscriptions.FromModel(r.Subscription),
		Payment:          r.Payment,
	}
}
