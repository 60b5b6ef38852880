package notifications

import (
	"context"
	"net/http"
	"time"

	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxResponseBody = 64 << 10

var ErrNotifier = pkgerrors.New(pkgerrors.CodeNotifier, "merchant notification failed")

// OrderSummary is the content of a new-order message.
type OrderSummary struct {
	OrderID       uuid.UUID
	ShopSlug      string
	CustomerName  string
	CustomerPhone string
	ProductName   string
	Quantity      int
	Amount        decimal.Decimal
}

// Result reports a delivery attempt. Skipped deliveries count as success:
// the merchant simply has no channel configured.
type Result struct {
	Success   bool   `json:"success"`
	Skipped   bool   `json:"skipped,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Err       error  `json:"-"`
}

// Notifier delivers new-order messages to a merchant contact.
type Notifier interface {
	Transport() enums.NotifierTransport
	Notify(ctx context.Context, contactID string, order OrderSummary) Result
}

// ContactFor picks the shop field the transport addresses.
func ContactFor(transport enums.NotifierTransport, shop *models.Shop) string {
	if shop == nil {
		return ""
	}
	switch transport {
	case enums.NotifierTransportWhatsApp:
		return shop.WhatsAppNumber
	case enums.NotifierTransportTelegram:
		return shop.ChatContactID
	default:
		if shop.ChatContactID != "" {
			return shop.ChatContactID
		}
		return shop.WhatsAppNumber
	}
}

// SampleOrder is sent by the test endpoint.
func SampleOrder() OrderSummary {
	return OrderSummary{
		OrderID:       uuid.MustParse("00000000-0000-0000-0000-000000000123"),
		ShopSlug:      "test-shop",
		CustomerName:  "Test Customer",
		CustomerPhone: "+234 800 000 0000",
		ProductName:   "Test Product",
		Quantity:      1,
		Amount:        decimal.NewFromInt(5000),
	}
}

type Params struct {
	Notifier   config.NotifierConfig
	Telegram   config.TelegramConfig
	Twilio     config.TwilioConfig
	AppURL     string
	HTTPClient *http.Client
	Metrics    *metrics.ExternalCallMetrics
	Logger     *logger.Logger
}

// New builds the notifier selected by configuration.
func New(params Params) (Notifier, error) {
	transport, err := enums.ParseNotifierTransport(params.Notifier.Transport)
	if err != nil {
		return nil, err
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	client := params.HTTPClient
	if client == nil {
		timeout := params.Notifier.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	switch transport {
	case enums.NotifierTransportTelegram:
		return NewTelegram(params.Telegram, client, params.Metrics, logg), nil
	case enums.NotifierTransportWhatsApp:
		return NewWhatsApp(params.Twilio, params.AppURL, client, params.Metrics, logg), nil
	default:
		return NewLog(logg), nil
	}
}

func skipped(reason string) Result {
	return Result{Success: true, Skipped: true, Reason: reason}
}

func failed(err error) Result {
	return Result{Success: false, Reason: err.Error(), Err: err}
}
