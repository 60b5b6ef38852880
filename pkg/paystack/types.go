package paystack

import (
	"encoding/json"
	"time"
)

// TransactionStatusSuccess is the only verify status that grants access.
const TransactionStatusSuccess = "success"

type InitializeRequest struct {
	Email       string         `json:"email"`
	AmountKobo  int64          `json:"amount"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the verify payload. Raw keeps the full data object for the
// payment audit trail.
type Transaction struct {
	Status          string
	Reference       string
	AmountKobo      int64
	PaidAt          *time.Time
	Channel         string
	GatewayResponse string
	Metadata        json.RawMessage
	Raw             json.RawMessage
}

// Succeeded reports whether the gateway considers the transaction paid.
func (t *Transaction) Succeeded() bool {
	return t != nil && t.Status == TransactionStatusSuccess
}

// MetadataString returns a string metadata value. Paystack returns metadata
// as an object, but an empty string when none was attached.
func (t *Transaction) MetadataString(key string) string {
	if t == nil || len(t.Metadata) == 0 {
		return ""
	}
	var values map[string]any
	if err := json.Unmarshal(t.Metadata, &values); err != nil {
		return ""
	}
	if v, ok := values[key].(string); ok {
		return v
	}
	return ""
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type verifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	PaidAt          *string         `json:"paid_at"`
	Channel         string          `json:"channel"`
	GatewayResponse string          `json:"gateway_response"`
	Metadata        json.RawMessage `json:"metadata"`
}
