package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abelkene001/mini-biz/api/responses"
	"github.com/abelkene001/mini-biz/api/validators"
	"github.com/abelkene001/mini-biz/internal/shops"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

type onboardingRequest struct {
	BusinessName      string `json:"business_name" validate:"required,max=120"`
	WhatsAppNumber    string `json:"whatsapp_number" validate:"required,max=32"`
	ChatContactID     string `json:"chat_contact_id" validate:"omitempty,max=64"`
	BankName          string `json:"bank_name" validate:"required,max=120"`
	BankAccountNumber string `json:"bank_account_number" validate:"required,numeric,min=6,max=20"`
	BankAccountName   string `json:"bank_account_name" validate:"required,max=120"`
}

func (r onboardingRequest) toInput() shops.OnboardInput {
	return shops.OnboardInput{
		BusinessName:      r.BusinessName,
		WhatsAppNumber:    r.WhatsAppNumber,
		ChatContactID:     r.ChatContactID,
		BankName:          r.BankName,
		BankAccountNumber: r.BankAccountNumber,
		BankAccountName:   r.BankAccountName,
	}
}

// Onboard creates the caller's shop and allocates its storefront slug.
func Onboard(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload onboardingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.Onboard(r.Context(), accountID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shop)
	}
}

func MyShop(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.GetMine(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

type shopSettingsRequest struct {
	Name              *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	WhatsAppNumber    *string `json:"whatsapp_number,omitempty" validate:"omitempty,min=1,max=32"`
	ChatContactID     *string `json:"chat_contact_id,omitempty" validate:"omitempty,max=64"`
	BankName          *string `json:"bank_name,omitempty" validate:"omitempty,max=120"`
	BankAccountNumber *string `json:"bank_account_number,omitempty" validate:"omitempty,numeric,min=6,max=20"`
	BankAccountName   *string `json:"bank_account_name,omitempty" validate:"omitempty,max=120"`
}

func (r shopSettingsRequest) toInput() shops.SettingsInput {
	return shops.SettingsInput{
		Name:              r.Name,
		WhatsAppNumber:    r.WhatsAppNumber,
		ChatContactID:     r.ChatContactID,
		BankName:          r.BankName,
		BankAccountNumber: r.BankAccountNumber,
		BankAccountName:   r.BankAccountName,
	}
}

// UpdateShopSettings applies a partial settings update. Slugs are immutable.
func UpdateShopSettings(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shopSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.UpdateSettings(r.Context(), accountID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

// UploadHeroImage accepts multipart image_type, image and delete_old.
func UploadHeroImage(svc shops.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}
		accountID, err := requireAccount(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		form, err := validators.ParseMultipart(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer form.Cleanup()

		imageType, err := enums.ParseHeroImageType(form.Value("image_type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image_type must be landscape or portrait"))
			return
		}
		deleteOld, err := form.Bool("delete_old")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := form.File("image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := shops.HeroImageInput{Type: imageType, DeleteOld: deleteOld}
		if file != nil {
			input.Filename = file.Filename
			input.Content = file.Content
		}

		result, err := svc.UploadHeroImage(r.Context(), accountID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Storefront is the public shop page: shop details and active products.
func Storefront(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("shop"))
			return
		}

		view, err := svc.GetStorefront(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
