package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/metrics"
)

// Telegram posts to the Bot API sendMessage method.
type Telegram struct {
	client  *http.Client
	baseURL string
	token   string
	metrics *metrics.ExternalCallMetrics
	logg    *logger.Logger
}

type telegramRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func NewTelegram(cfg config.TelegramConfig, client *http.Client, m *metrics.ExternalCallMetrics, logg *logger.Logger) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Telegram{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   strings.TrimSpace(cfg.BotToken),
		metrics: m,
		logg:    logg,
	}
}

func (t *Telegram) Transport() enums.NotifierTransport {
	return enums.NotifierTransportTelegram
}

func (t *Telegram) Notify(ctx context.Context, chatID string, order OrderSummary) Result {
	chatID = strings.TrimSpace(chatID)
	if t.token == "" {
		t.logg.Warn(ctx, "notify.telegram.not_configured")
		t.metrics.Observe(string(enums.NotifierTransportTelegram), "send_message", metrics.OutcomeSkipped, 0)
		return skipped("telegram bot token not configured")
	}
	if chatID == "" {
		t.logg.Warn(ctx, "notify.telegram.no_chat_id")
		t.metrics.Observe(string(enums.NotifierTransportTelegram), "send_message", metrics.OutcomeSkipped, 0)
		return skipped("chat id not configured")
	}

	start := time.Now()
	messageID, err := t.send(ctx, chatID, telegramText(order))
	t.metrics.Observe(string(enums.NotifierTransportTelegram), "send_message", metrics.Outcome(err), time.Since(start))
	if err != nil {
		return failed(err)
	}
	return Result{Success: true, MessageID: messageID}
}

func (t *Telegram) send(ctx context.Context, chatID, text string) (string, error) {
	body, err := json.Marshal(telegramRequest{ChatID: chatID, Text: text, ParseMode: "MarkdownV2"})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode telegram message")
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// the URL embeds the bot token; keep it out of the error text
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, ErrNotifier, "telegram request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, err, "read telegram response")
	}
	var out telegramResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode >= 300 || !out.OK {
		msg := out.Description
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, ErrNotifier, "telegram api error: "+msg).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	if decodeErr != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotifier, decodeErr, "decode telegram response")
	}
	return strconv.FormatInt(out.Result.MessageID, 10), nil
}
