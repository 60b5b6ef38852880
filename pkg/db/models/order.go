package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abelkene001/mini-biz/pkg/enums"
)

// Order snapshots the product name and unit price at submission; Amount is
// never recomputed.
type Order struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID          uuid.UUID           `gorm:"column:shop_id;type:uuid;not null;index"`
	ProductID       *uuid.UUID          `gorm:"column:product_id;type:uuid"`
	ProductName     string              `gorm:"column:product_name;not null"`
	UnitPrice       decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity        int                 `gorm:"column:quantity;not null"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	CustomerName    string              `gorm:"column:customer_name;not null"`
	CustomerPhone   string              `gorm:"column:customer_phone;not null"`
	DeliveryAddress string              `gorm:"column:delivery_address;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	ProofObject     string              `gorm:"column:proof_object;not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}
