package notifications

import (
	"context"

	"github.com/abelkene001/mini-biz/pkg/enums"
	"github.com/abelkene001/mini-biz/pkg/logger"
)

// Log writes the message to the structured log instead of delivering it.
type Log struct {
	logg *logger.Logger
}

func NewLog(logg *logger.Logger) *Log {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Log{logg: logg}
}

func (l *Log) Transport() enums.NotifierTransport {
	return enums.NotifierTransportLog
}

func (l *Log) Notify(ctx context.Context, contactID string, order OrderSummary) Result {
	ctx = l.logg.WithFields(ctx, map[string]any{
		"contact_id": contactID,
		"order_id":   order.OrderID.String(),
		"shop_slug":  order.ShopSlug,
		"amount":     order.Amount.StringFixed(2),
	})
	l.logg.Info(ctx, "notify.log.order")
	return Result{Success: true, MessageID: "log-" + order.OrderID.String()}
}
