package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() OrderSummary {
	order := SampleOrder()
	order.CustomerName = "Ngozi (VIP)"
	order.ProductName = "Ankara Dress"
	order.Quantity = 3
	order.Amount = decimal.NewFromInt(15000)
	return order
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `Hello\_world\! \(1\.5\) a\-b`, EscapeMarkdownV2("Hello_world! (1.5) a-b"))
	assert.Equal(t, `\\`, EscapeMarkdownV2(`\`))
}

func TestFormatNaira(t *testing.T) {
	cases := map[string]string{
		"0":        "₦0",
		"950":      "₦950",
		"15000":    "₦15,000",
		"1234567":  "₦1,234,567",
		"1234.5":   "₦1,234.50",
		"-2500.25": "-₦2,500.25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNaira(decimal.RequireFromString(in)), in)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"08031234567", "+2348031234567"},
		{"0803 123 4567", "+2348031234567"},
		{"2348031234567", "+2348031234567"},
		{"+44 (20) 7946-0958", "+442079460958"},
		{"8031234567", "+2348031234567"},
		{"whatsapp:+14155238886", "+14155238886"},
		{"0044 20 7946 0958", "+442079460958"},
		{"  ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in, "234"), tc.in)
	}
}

func TestContactFor(t *testing.T) {
	shop := &models.Shop{ChatContactID: "555", WhatsAppNumber: "0803"}
	assert.Equal(t, "555", ContactFor(enums.NotifierTransportTelegram, shop))
	assert.Equal(t, "0803", ContactFor(enums.NotifierTransportWhatsApp, shop))
	assert.Equal(t, "555", ContactFor(enums.NotifierTransportLog, shop))
	assert.Equal(t, "0803", ContactFor(enums.NotifierTransportLog, &models.Shop{WhatsAppNumber: "0803"}))
	assert.Equal(t, "", ContactFor(enums.NotifierTransportTelegram, nil))
}

func TestTelegramSendsMarkdownV2(t *testing.T) {
	var got telegramRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	tg := NewTelegram(config.TelegramConfig{BotToken: "TOKEN", BaseURL: srv.URL}, srv.Client(), metrics.NewExternalCallMetrics(reg), nil)
	res := tg.Notify(context.Background(), " 12345 ", sampleOrder())

	require.True(t, res.Success, res.Reason)
	assert.False(t, res.Skipped)
	assert.Equal(t, "42", res.MessageID)
	assert.Equal(t, "12345", got.ChatID)
	assert.Equal(t, "MarkdownV2", got.ParseMode)
	assert.Contains(t, got.Text, `Ngozi \(VIP\)`)
	assert.Contains(t, got.Text, `Ankara Dress x3`)
	assert.Contains(t, got.Text, `₦15,000`)

	count, err := testutil.GatherAndCount(reg, "minibiz_external_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTelegramAPIErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "TOKEN", BaseURL: srv.URL}, srv.Client(), nil, nil)
	res := tg.Notify(context.Background(), "1", sampleOrder())

	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "chat not found")
	assert.True(t, errors.Is(res.Err, ErrNotifier))
	assert.Equal(t, pkgerrors.CodeNotifier, pkgerrors.As(res.Err).Code())
}

func TestTelegramSkipsWithoutTokenOrChat(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	res := NewTelegram(config.TelegramConfig{BaseURL: srv.URL}, srv.Client(), nil, nil).Notify(context.Background(), "1", sampleOrder())
	assert.True(t, res.Success)
	assert.True(t, res.Skipped)

	res = NewTelegram(config.TelegramConfig{BotToken: "T", BaseURL: srv.URL}, srv.Client(), nil, nil).Notify(context.Background(), "", sampleOrder())
	assert.True(t, res.Skipped)
	assert.False(t, called)
}

func TestWhatsAppPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		assert.Equal(t, "whatsapp:+2348031234567", r.PostForm.Get("To"))
		assert.Contains(t, r.PostForm.Get("Body"), "https://minibiz.ng/dashboard/sales")
		assert.Contains(t, r.PostForm.Get("Body"), "Customer: Ngozi (VIP)")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	wa := NewWhatsApp(config.TwilioConfig{
		AccountSID:   "AC123",
		AuthToken:    "secret",
		WhatsAppFrom: "+14155238886",
		BaseURL:      srv.URL,
	}, "https://minibiz.ng/", srv.Client(), nil, nil)

	res := wa.Notify(context.Background(), "08031234567", sampleOrder())
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, "SM1", res.MessageID)
}

func TestWhatsAppErrorAndSkip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":63007,"message":"Twilio could not find a Channel with the specified From address"}`))
	}))
	defer srv.Close()

	cfg := config.TwilioConfig{AccountSID: "AC1", AuthToken: "t", WhatsAppFrom: "+1415", BaseURL: srv.URL}
	res := NewWhatsApp(cfg, "", srv.Client(), nil, nil).Notify(context.Background(), "0803", sampleOrder())
	assert.False(t, res.Success)
	assert.True(t, strings.Contains(res.Reason, "could not find a Channel"))

	res = NewWhatsApp(config.TwilioConfig{BaseURL: srv.URL}, "", srv.Client(), nil, nil).Notify(context.Background(), "0803", sampleOrder())
	assert.True(t, res.Skipped)
}

func TestNewSelectsTransport(t *testing.T) {
	for _, tc := range []struct {
		transport string
		want      enums.NotifierTransport
	}{
		{"telegram", enums.NotifierTransportTelegram},
		{"WhatsApp", enums.NotifierTransportWhatsApp},
		{"log", enums.NotifierTransportLog},
	} {
		n, err := New(Params{Notifier: config.NotifierConfig{Transport: tc.transport}})
		require.NoError(t, err)
		assert.Equal(t, tc.want, n.Transport())
	}

	_, err := New(Params{Notifier: config.NotifierConfig{Transport: "sms"}})
	assert.Error(t, err)
}

func TestLogTransportAlwaysSucceeds(t *testing.T) {
	res := NewLog(nil).Notify(context.Background(), "", SampleOrder())
	assert.True(t, res.Success)
	assert.Equal(t, "log-00000000-0000-0000-0000-000000000123", res.MessageID)
}
