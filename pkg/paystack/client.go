package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abelkene001/mini-biz/pkg/config"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/metrics"
)

const (
	metricsService  = "paystack"
	maxResponseBody = 1 << 20
)

var (
	ErrGateway           = pkgerrors.New(pkgerrors.CodeGateway, "payment gateway request failed")
	ErrMalformedResponse = pkgerrors.New(pkgerrors.CodeGatewayMalformed, "payment gateway returned a malformed response")
)

// Client calls the Paystack transaction API. It never retries; callers
// surface failures and the user re-triggers the flow.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	metrics    *metrics.ExternalCallMetrics
}

func NewClient(cfg config.PaystackConfig, m *metrics.ExternalCallMetrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		metrics:    m,
	}
}

// Initialize creates a hosted payment session.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (resp *InitializeResponse, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe(metricsService, "initialize", metrics.Outcome(err), time.Since(start)) }()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode initialize request")
	}

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out InitializeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, ErrMalformedResponse, "decode initialize data")
	}
	if out.AuthorizationURL == "" || out.AccessCode == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, ErrMalformedResponse, "initialize response missing authorization_url or access_code")
	}
	if out.Reference == "" {
		out.Reference = req.Reference
	}
	return &out, nil
}

// Verify fetches the authoritative status of a transaction. A declined
// transaction is not an error; inspect Transaction.Succeeded.
func (c *Client) Verify(ctx context.Context, reference string) (tx *Transaction, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe(metricsService, "verify", metrics.Outcome(err), time.Since(start)) }()

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	data, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var vd verifyData
	if err := json.Unmarshal(data, &vd); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, ErrMalformedResponse, "decode verify data")
	}
	if vd.Status == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, ErrMalformedResponse, "verify response missing status")
	}

	tx = &Transaction{
		Status:          vd.Status,
		Reference:       vd.Reference,
		AmountKobo:      vd.Amount,
		Channel:         vd.Channel,
		GatewayResponse: vd.GatewayResponse,
		Metadata:        vd.Metadata,
		Raw:             data,
	}
	if tx.Reference == "" {
		tx.Reference = reference
	}
	if vd.PaidAt != nil && *vd.PaidAt != "" {
		paidAt, err := time.Parse(time.RFC3339Nano, *vd.PaidAt)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, ErrMalformedResponse, "verify response has unparseable paid_at").
				WithDetails(map[string]any{"paid_at": *vd.PaidAt})
		}
		paidAt = paidAt.UTC()
		tx.PaidAt = &paidAt
	}
	return tx, nil
}

// do sends the request and returns the envelope's data field.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	if c.secretKey == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, ErrGateway, "paystack secret key not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("%w: %w", ErrGateway, err), "gateway request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("%w: %w", ErrGateway, err), "read gateway response")
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, ErrGateway, "gateway returned non-success status").
			WithDetails(map[string]any{"http_status": resp.StatusCode, "gateway_message": msg})
	}
	if decodeErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, ErrMalformedResponse, "decode gateway envelope")
	}
	if !env.Status {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, ErrGateway, "gateway reported failure").
			WithDetails(map[string]any{"http_status": resp.StatusCode, "gateway_message": env.Message})
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayMalformed, ErrMalformedResponse, "gateway envelope missing data")
	}
	return env.Data, nil
}
