package controllers

import (
	"net/http"

	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/api/validators"
	"github.com/abelkene001/mini-biz/internal/notifications"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

type notificationTestRequest struct {
	ContactID string `json:"contact_id" validate:"required,max=64"`
}

type notificationTestResponse struct {
	Transport string               `json:"transport"`
	Result    notifications.Result `json:"result"`
}

// TestNotification sends a sample order summary so merchants can confirm
// their chat contact before real orders arrive.
func TestNotification(notifier notifications.Notifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notifier == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("notification"))
			return
		}
		if _, err := requireAccount(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload notificationTestRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := notifier.Notify(r.Context(), payload.ContactID, notifications.SampleOrder())
		if !result.Success {
			err := result.Err
			if err == nil {
				err = notifications.ErrNotifier
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotifier, err, "test notification failed"))
			return
		}
		responses.WriteSuccess(w, notificationTestResponse{
			Transport: notifier.Transport().String(),
			Result:    result,
		})
	}
}
