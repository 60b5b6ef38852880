package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/api/validators"
	"github.com/abelkene001/mini-biz/internal/subscriptions"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

type subscriptionCheckRequest struct {
	AccountID *uuid.UUID `json:"account_id,omitempty"`
}

// CheckSubscription reports whether the caller may use the dashboard. An
// explicit account_id must be the caller's own.
func CheckSubscription(gate subscriptions.Gate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gate == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("subscription"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionCheckRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.AccountID != nil && *payload.AccountID != accountID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account_id does not match the authenticated account"))
			return
		}

		status, err := gate.IsActive(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status.ToCheckResult())
	}
}
