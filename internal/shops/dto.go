package shops

import (
	"strings"
	"time"

	"github.com/abelkene001/mini-biz/internal/products"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	"github.com/google/uuid"
)

type HeroImagesDTO struct {
	Landscape *string `json:"landscape,omitempty"`
	Portrait  *string `json:"portrait,omitempty"`
}

// ShopDTO is the owner's view, including the chat contact used for order
// notifications.
type ShopDTO struct {
	ID                uuid.UUID     `json:"id"`
	Name              string        `json:"name"`
	Slug              string        `json:"slug"`
	StorefrontURL     string        `json:"storefront_url"`
	ChatContactID     string        `json:"chat_contact_id"`
	WhatsAppNumber    string        `json:"whatsapp_number"`
	BankName          string        `json:"bank_name"`
	BankAccountNumber string        `json:"bank_account_number"`
	BankAccountName   string        `json:"bank_account_name"`
	HeroImages        HeroImagesDTO `json:"hero_images"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// PublicShopDTO is what storefront visitors see. Bank details are public
// because customers pay by transfer.
type PublicShopDTO struct {
	ID                uuid.UUID     `json:"id"`
	Name              string        `json:"name"`
	Slug              string        `json:"slug"`
	WhatsAppNumber    string        `json:"whatsapp_number"`
	BankName          string        `json:"bank_name"`
	BankAccountNumber string        `json:"bank_account_number"`
	BankAccountName   string        `json:"bank_account_name"`
	HeroImages        HeroImagesDTO `json:"hero_images"`
}

type StorefrontDTO struct {
	Shop     PublicShopDTO         `json:"shop"`
	Products []products.ProductDTO `json:"products"`
}

type HeroImageResult struct {
	Type     enums.HeroImageType `json:"image_type"`
	ImageURL *string             `json:"image_url"`
}

func heroImages(m *models.Shop) HeroImagesDTO {
	return HeroImagesDTO{Landscape: m.HeroLandscapeURL, Portrait: m.HeroPortraitURL}
}

func FromModel(m *models.Shop, appURL string) *ShopDTO {
	return &ShopDTO{
		ID:                m.ID,
		Name:              m.Name,
		Slug:              m.Slug,
		StorefrontURL:     strings.TrimRight(appURL, "/") + "/" + m.Slug,
		ChatContactID:     m.ChatContactID,
		WhatsAppNumber:    m.WhatsAppNumber,
		BankName:          m.BankName,
		BankAccountNumber: m.BankAccountNumber,
		BankAccountName:   m.BankAccountName,
		HeroImages:        heroImages(m),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toPublic(m *models.Shop) PublicShopDTO {
	return PublicShopDTO{
		ID:                m.ID,
		Name:              m.Name,
		Slug:              m.Slug,
		WhatsAppNumber:    m.WhatsAppNumber,
		BankName:          m.BankName,
		BankAccountNumber: m.BankAccountNumber,
		BankAccountName:   m.BankAccountName,
		HeroImages:        heroImages(m),
	}
}
