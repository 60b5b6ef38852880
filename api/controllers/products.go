package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/api/validators"
	"github.com/abelkene001/mini-biz/internal/products"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

type productCreateRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Description string          `json:"description" validate:"max=2000"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	Active      *bool           `json:"active,omitempty"`
}

func (r productCreateRequest) toInput() products.CreateInput {
	return products.CreateInput{
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Active:      r.Active,
	}
}

type productUpdateRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Active      *bool            `json:"active,omitempty"`
}

func (r productUpdateRequest) toInput() products.UpdateInput {
	return products.UpdateInput{
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Active:      r.Active,
	}
}

func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListForOwner(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": items, "count": len(items)})
	}
}

func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), accountID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseURLUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), accountID, productID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseURLUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), accountID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "id": productID})
	}
}
