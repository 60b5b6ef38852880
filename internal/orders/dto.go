package orders

import (
	"time"

	"github.com/abelkene001/mini-biz/internal/notifications"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	ShopID          uuid.UUID           `json:"shop_id"`
	ProductID       *uuid.UUID          `json:"product_id,omitempty"`
	ProductName     string              `json:"product_name"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	Quantity        int                 `json:"quantity"`
	Amount          decimal.Decimal     `json:"amount"`
	CustomerName    string              `json:"customer_name"`
	CustomerPhone   string              `json:"customer_phone"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	ProofURL        string              `json:"proof_url"`
	Status          enums.OrderStatus   `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// SubmitResult reports the stored order. Notified is false when the
// merchant message could not be delivered; the order still stands.
type SubmitResult struct {
	Order        OrderDTO              `json:"order"`
	Notified     bool                  `json:"notified"`
	Notification *notifications.Result `json:"notification,omitempty"`
}

type ListResult struct {
	Orders []OrderDTO `json:"orders"`
	Count  int        `json:"count"`
}

func FromModel(m *models.Order, proofURL string) OrderDTO {
	return OrderDTO{
		ID:              m.ID,
		ShopID:          m.ShopID,
		ProductID:       m.ProductID,
		ProductName:     m.ProductName,
		UnitPrice:       m.UnitPrice,
		Quantity:        m.Quantity,
		Amount:          m.Amount,
		CustomerName:    m.CustomerName,
		CustomerPhone:   m.CustomerPhone,
		DeliveryAddress: m.DeliveryAddress,
		PaymentMethod:   m.PaymentMethod,
		ProofURL:        proofURL,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
