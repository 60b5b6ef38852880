package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/metrics"
)

var phoneSeparators = regexp.MustCompile(`[\s\-().]`)

// WhatsApp sends messages through the Twilio Messages API.
type WhatsApp struct {
	client      *http.Client
	baseURL     string
	accountSID  string
	authToken   string
	from        string
	countryCode string
	salesURL    string
	metrics     *metrics.ExternalCallMetrics
	logg        *logger.Logger
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewWhatsApp(cfg config.TwilioConfig, appURL string, client *http.Client, m *metrics.ExternalCallMetrics, logg *logger.Logger) *WhatsApp {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	countryCode := strings.TrimPrefix(strings.TrimSpace(cfg.DefaultCountryCode), "+")
	if countryCode == "" {
		countryCode = "234"
	}
	salesURL := ""
	if appURL = strings.TrimRight(strings.TrimSpace(appURL), "/"); appURL != "" {
		salesURL = appURL + "/dashboard/sales"
	}
	return &WhatsApp{
		client:      client,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accountSID:  strings.TrimSpace(cfg.AccountSID),
		authToken:   strings.TrimSpace(cfg.AuthToken),
		from:        NormalizePhone(cfg.WhatsAppFrom, countryCode),
		countryCode: countryCode,
		salesURL:    salesURL,
		metrics:     m,
		logg:        logg,
	}
}

func (w *WhatsApp) Transport() enums.NotifierTransport {
	return enums.NotifierTransportWhatsApp
}

func (w *WhatsApp) Notify(ctx context.Context, number string, order OrderSummary) Result {
	service := string(enums.NotifierTransportWhatsApp)
	if w.accountSID == "" || w.authToken == "" || w.from == "" {
		w.logg.Warn(ctx, "notify.whatsapp.not_configured")
		w.metrics.Observe(service, "send_message", metrics.OutcomeSkipped, 0)
		return skipped("twilio credentials not configured")
	}
	to := NormalizePhone(number, w.countryCode)
	if to == "" {
		w.logg.Warn(ctx, "notify.whatsapp.no_number")
		w.metrics.Observe(service, "send_message", metrics.OutcomeSkipped, 0)
		return skipped("whatsapp number not configured")
	}

	start := time.Now()
	sid, err := w.send(ctx, to, plainText(order, w.salesURL))
	w.metrics.Observe(service, "send_message", metrics.Outcome(err), time.Since(start))
	if err != nil {
		return failed(err)
	}
	return Result{Success: true, MessageID: sid}
}

func (w *WhatsApp) send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", "whatsapp:"+w.from)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", w.baseURL, url.PathEscape(w.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build twilio request")
	}
	req.SetBasicAuth(w.accountSID, w.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, fmt.Errorf("%w: %w", ErrNotifier, err), "twilio request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, err, "read twilio response")
	}
	var out twilioResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode >= 300 {
		msg := out.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, ErrNotifier, "twilio api error: "+msg).
			WithDetails(map[string]any{"status": resp.StatusCode, "twilio_code": out.Code})
	}
	if decodeErr != nil || out.SID == "" {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, ErrNotifier, "twilio response missing sid")
	}
	return out.SID, nil
}

// NormalizePhone converts a local or international number to E.164.
// Numbers with a leading 0 are treated as local to countryCode.
func NormalizePhone(raw, countryCode string) string {
	cleaned := phoneSeparators.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.TrimPrefix(cleaned, "whatsapp:")
	if cleaned == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "00"):
		return "+" + cleaned[2:]
	case strings.HasPrefix(cleaned, "0"):
		return "+" + countryCode + cleaned[1:]
	case strings.HasPrefix(cleaned, countryCode):
		return "+" + cleaned
	default:
		return "+" + countryCode + cleaned
	}
}
