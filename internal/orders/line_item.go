package orders

import (
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricedLineItem freezes a product's name and price at submission. Orders
// keep this snapshot; later product edits never reach them.
type PricedLineItem struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

func lineItemFor(product *models.Product, quantity int) PricedLineItem {
	return PricedLineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
	}
}

func (li PricedLineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
