package products

import (
	"time"

	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func FromModel(m *models.Product) ProductDTO {
	return ProductDTO{
		ID:          m.ID,
		ShopID:      m.ShopID,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromModels(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, FromModel(&items[i]))
	}
	return out
}
