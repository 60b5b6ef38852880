package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/api/validators"
	"github.com/abelkene001/mini-biz/internal/orders"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

// SubmitOrder takes the storefront checkout form: shop_slug, product_id,
// quantity, customer fields and the payment proof file.
func SubmitOrder(svc orders.Service, maxProofBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}

		form, err := validators.ParseMultipart(w, r, maxProofBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer form.Cleanup()

		productID, err := uuid.Parse(form.Value("product_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "product_id must be a valid id"))
			return
		}
		quantity, err := form.Int("quantity", 1)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proof, err := form.File("proof")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.SubmitInput{
			ShopSlug:        form.Value("shop_slug"),
			ProductID:       productID,
			Quantity:        quantity,
			CustomerName:    form.Value("customer_name"),
			CustomerPhone:   form.Value("customer_phone"),
			DeliveryAddress: form.Value("delivery_address"),
		}
		if proof != nil {
			input.Proof = orders.ProofFile{Filename: proof.Filename, Content: proof.Content}
		}

		result, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListOrders returns the owner's orders, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForOwner(r.Context(), accountID, orders.ListInput{
			ShopSlug: validators.ParseQueryString(r, "shopSlug", 120),
			Status:   validators.ParseQueryString(r, "status", 16),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed failed"`
}

// UpdateOrderStatus moves a pending order to completed or failed.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("order"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseURLUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.Transition(r.Context(), orderID, accountID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
