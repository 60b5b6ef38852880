package middleware

import (
	"context"
	"net/http"

	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/internal/subscriptions"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/google/uuid"
)

const paymentRedirectPath = "/payment"

type subscriptionChecker interface {
	IsActive(ctx context.Context, accountID uuid.UUID) (subscriptions.Status, error)
}

// RequireActiveSubscription fails closed: a gate error is treated the same
// as an inactive subscription.
func RequireActiveSubscription(gate subscriptionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			accountID, ok := AccountIDFromContext(ctx)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}

			status, err := gate.IsActive(ctx, accountID)
			if err != nil && logg != nil {
				logg.Error(ctx, "subscription.gate.failed", err)
			}
			if err != nil || !status.Active {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSubscriptionRequired, "an active subscription is required").
					WithDetails(map[string]any{"redirect": paymentRedirectPath}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
