package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/abelkene001/mini-biz/api/middleware"
	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/api/validators"
	"github.com/abelkene001/mini-biz/internal/payments"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

// InitializePayment opens a hosted checkout session for the caller, unless
// the account is an admin or already paid up.
func InitializePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("payment"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initialize(r.Context(), payments.InitializeInput{
			AccountID: accountID,
			Email:     middleware.EmailFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result.ToResponse())
	}
}

type verifyPaymentRequest struct {
	Reference      string     `json:"reference" validate:"required,max=128"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
}

// VerifyPayment applies the gateway's verdict. A declined charge is reported
// as PAYMENT_DECLINED so the client can offer a retry.
func VerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("payment"))
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), payments.VerifyInput{
			Reference:      payload.Reference,
			SubscriptionID: payload.SubscriptionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Outcome == payments.OutcomeFailed {
			responses.WriteError(r.Context(), logg, w, declined(payload.Reference, result))
			return
		}
		responses.WriteSuccess(w, result.ToResponse())
	}
}

func declined(reference string, result *payments.VerifyResult) error {
	details := map[string]any{"reference": reference}
	if result.GatewayResponse != "" {
		details["gateway_response"] = result.GatewayResponse
	}
	return pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was not successful, please try again").WithDetails(details)
}

// PaymentCallback is the gateway redirect target. It verifies server-side and
// sends the browser to the dashboard or back to the payment page.
func PaymentCallback(svc payments.Service, appURL string, logg *logger.Logger) http.HandlerFunc {
	base := strings.TrimRight(appURL, "/")
	success := base + "/dashboard"
	failure := base + "/payment?status=failed"

	return func(w http.ResponseWriter, r *http.Request) {
		reference := validators.ParseQueryString(r, "reference", 128)
		if reference == "" {
			reference = validators.ParseQueryString(r, "trxref", 128)
		}
		if svc == nil || reference == "" {
			http.Redirect(w, r, failure, http.StatusFound)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithReference(ctx, reference)
		}

		result, err := svc.Verify(ctx, payments.VerifyInput{Reference: reference})
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "payment.callback.verify_failed", err)
			}
			http.Redirect(w, r, failure, http.StatusFound)
			return
		}
		if result.Outcome != payments.OutcomeVerified {
			http.Redirect(w, r, failure, http.StatusFound)
			return
		}
		http.Redirect(w, r, success, http.StatusFound)
	}
}
