package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abelkene001/mini-biz/pkg/enums"
)

const (
	ShopSlugConstraint  = "shops_slug_key"
	ShopOwnerConstraint = "shops_owner_account_id_key"
)

// Shop is a merchant storefront. One per account; the slug is fixed at
// onboarding.
type Shop struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerAccountID      uuid.UUID `gorm:"column:owner_account_id;type:uuid;not null;uniqueIndex:shops_owner_account_id_key"`
	Name                string    `gorm:"column:name;not null"`
	Slug                string    `gorm:"column:slug;not null;uniqueIndex:shops_slug_key"`
	ChatContactID       string    `gorm:"column:chat_contact_id;not null"`
	WhatsAppNumber      string    `gorm:"column:whatsapp_number;not null"`
	BankName            string    `gorm:"column:bank_name;not null"`
	BankAccountNumber   string    `gorm:"column:bank_account_number;not null"`
	BankAccountName     string    `gorm:"column:bank_account_name;not null"`
	HeroLandscapeURL    *string   `gorm:"column:hero_image_landscape_url"`
	HeroLandscapeObject *string   `gorm:"column:hero_image_landscape_filename"`
	HeroPortraitURL     *string   `gorm:"column:hero_image_portrait_url"`
	HeroPortraitObject  *string   `gorm:"column:hero_image_portrait_filename"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Shop) TableName() string { return "shops" }

func (s *Shop) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// HeroImage returns the stored URL and object name for the given slot.
func (s *Shop) HeroImage(kind enums.HeroImageType) (url, object *string) {
	if kind == enums.HeroImagePortrait {
		return s.HeroPortraitURL, s.HeroPortraitObject
	}
	return s.HeroLandscapeURL, s.HeroLandscapeObject
}

// HeroImageColumns maps a slot onto its url and object-name columns.
func HeroImageColumns(kind enums.HeroImageType) (urlColumn, objectColumn string) {
	return "hero_image_" + kind.String() + "_url", "hero_image_" + kind.String() + "_filename"
}
