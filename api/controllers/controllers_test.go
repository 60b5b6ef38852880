package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abelkene001/mini-biz/api/middleware"
	"github.com/abelkene001/mini-biz/internal/notifications"
	"github.com/abelkene001/mini-biz/internal/orders"
	"github.com/abelkene001/mini-biz/internal/payments"
	"github.com/abelkene001/mini-biz/internal/products"
	"github.com/abelkene001/mini-biz/internal/subscriptions"
	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db/models"
	"github.com/abelkene001/mini-biz/pkg/enums"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
)

type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body
}

func withAccount(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithAccount(req.Context(), id, "owner@example.com"))
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	resp := httptest.NewRecorder()
	HealthReady(cfg, []ReadinessCheck{{Name: "db", Pinger: ok}, {Name: "redis"}}, nil).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, []ReadinessCheck{{Name: "db", Pinger: ok}, {Name: "storage", Pinger: down}}, nil).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", body.Code)
	}
}

type stubPayments struct {
	verify    *payments.VerifyResult
	verifyErr error
	lastInput payments.VerifyInput
	init      *payments.InitializeResult
	initInput payments.InitializeInput
}

func (s *stubPayments) Initialize(_ context.Context, input payments.InitializeInput) (*payments.InitializeResult, error) {
	s.initInput = input
	return s.init, nil
}

func (s *stubPayments) Verify(_ context.Context, input payments.VerifyInput) (*payments.VerifyResult, error) {
	s.lastInput = input
	return s.verify, s.verifyErr
}

func TestVerifyPaymentDeclined(t *testing.T) {
	svc := &stubPayments{verify: &payments.VerifyResult{Outcome: payments.OutcomeFailed, GatewayResponse: "Declined"}}

	req := httptest.NewRequest(http.MethodPost, "/api/payment/verify", strings.NewReader(`{"reference":"sub_x_1"}`))
	resp := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	body := decodeError(t, resp)
	if body.Code != string(pkgerrors.CodePaymentDeclined) {
		t.Fatalf("unexpected code %s", body.Code)
	}
	if body.Details["reference"] != "sub_x_1" || body.Details["gateway_response"] != "Declined" {
		t.Fatalf("unexpected details %v", body.Details)
	}
}

func TestVerifyPaymentSuccess(t *testing.T) {
	subID := uuid.New()
	svc := &stubPayments{verify: &payments.VerifyResult{
		Outcome:      payments.OutcomeVerified,
		Subscription: &models.Subscription{ID: subID, Status: enums.SubscriptionStatusActive},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/payment/verify", strings.NewReader(`{"reference":"sub_x_1","subscription_id":"`+subID.String()+`"}`))
	resp := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.SubscriptionID == nil || *svc.lastInput.SubscriptionID != subID {
		t.Fatalf("subscription id not forwarded: %+v", svc.lastInput)
	}
}

func TestInitializePaymentUsesTokenIdentity(t *testing.T) {
	accountID := uuid.New()
	svc := &stubPayments{init: &payments.InitializeResult{Outcome: payments.OutcomeAlreadyActive}}

	req := withAccount(httptest.NewRequest(http.MethodPost, "/api/payment/initialize", nil), accountID)
	resp := httptest.NewRecorder()
	InitializePayment(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.initInput.AccountID != accountID || svc.initInput.Email != "owner@example.com" {
		t.Fatalf("unexpected input %+v", svc.initInput)
	}
}

func TestPaymentCallbackRedirects(t *testing.T) {
	cases := []struct {
		name   string
		svc    *stubPayments
		query  string
		target string
	}{
		{"verified", &stubPayments{verify: &payments.VerifyResult{Outcome: payments.OutcomeVerified}}, "?reference=r1", "https://minibiz.ng/dashboard"},
		{"declined", &stubPayments{verify: &payments.VerifyResult{Outcome: payments.OutcomeFailed}}, "?trxref=r1", "https://minibiz.ng/payment?status=failed"},
		{"gateway error", &stubPayments{verifyErr: pkgerrors.New(pkgerrors.CodeGateway, "down")}, "?reference=r1", "https://minibiz.ng/payment?status=failed"},
		{"missing reference", &stubPayments{}, "", "https://minibiz.ng/payment?status=failed"},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		PaymentCallback(tc.svc, "https://minibiz.ng/", nil).
			ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/payment/callback"+tc.query, nil))
		if resp.Code != http.StatusFound {
			t.Fatalf("%s: expected 302 got %d", tc.name, resp.Code)
		}
		if got := resp.Header().Get("Location"); got != tc.target {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.target, got)
		}
	}
}

type stubGate struct {
	status subscriptions.Status
}

func (s stubGate) IsActive(context.Context, uuid.UUID) (subscriptions.Status, error) {
	return s.status, nil
}

func (s stubGate) EnsureAdminSubscription(context.Context, uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func TestCheckSubscription(t *testing.T) {
	accountID := uuid.New()
	gate := stubGate{status: subscriptions.Status{Active: true, IsAdmin: true}}

	resp := httptest.NewRecorder()
	CheckSubscription(gate, nil).ServeHTTP(resp, withAccount(httptest.NewRequest(http.MethodPost, "/api/subscription/check", nil), accountID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Data subscriptions.CheckResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Data.IsActive || !body.Data.IsAdmin {
		t.Fatalf("unexpected result %+v", body.Data)
	}

	other := `{"account_id":"` + uuid.NewString() + `"}`
	resp = httptest.NewRecorder()
	CheckSubscription(gate, nil).ServeHTTP(resp, withAccount(httptest.NewRequest(http.MethodPost, "/api/subscription/check", strings.NewReader(other)), accountID))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

type stubNotifier struct {
	result  notifications.Result
	contact string
}

func (s *stubNotifier) Transport() enums.NotifierTransport { return enums.NotifierTransportTelegram }

func (s *stubNotifier) Notify(_ context.Context, contactID string, _ notifications.OrderSummary) notifications.Result {
	s.contact = contactID
	return s.result
}

func TestTestNotification(t *testing.T) {
	accountID := uuid.New()

	ok := &stubNotifier{result: notifications.Result{Success: true, MessageID: "42"}}
	resp := httptest.NewRecorder()
	TestNotification(ok, nil).ServeHTTP(resp, withAccount(httptest.NewRequest(http.MethodPost, "/api/notifications/test", strings.NewReader(`{"contact_id":"777"}`)), accountID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ok.contact != "777" {
		t.Fatalf("expected contact forwarded, got %q", ok.contact)
	}

	failing := &stubNotifier{result: notifications.Result{Err: errors.New("chat not found")}}
	resp = httptest.NewRecorder()
	TestNotification(failing, nil).ServeHTTP(resp, withAccount(httptest.NewRequest(http.MethodPost, "/api/notifications/test", strings.NewReader(`{"contact_id":"777"}`)), accountID))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if body := decodeError(t, resp); body.Code != string(pkgerrors.CodeNotifier) {
		t.Fatalf("unexpected code %s", body.Code)
	}
}

type stubOrders struct {
	submitted  orders.SubmitInput
	listInput  orders.ListInput
	transition enums.OrderStatus
}

func (s *stubOrders) Submit(_ context.Context, input orders.SubmitInput) (*orders.SubmitResult, error) {
	s.submitted = input
	return &orders.SubmitResult{Notified: true}, nil
}

func (s *stubOrders) ListForOwner(_ context.Context, _ uuid.UUID, input orders.ListInput) (*orders.ListResult, error) {
	s.listInput = input
	return &orders.ListResult{Orders: []orders.OrderDTO{}}, nil
}

func (s *stubOrders) Transition(_ context.Context, orderID, _ uuid.UUID, target enums.OrderStatus) (*orders.OrderDTO, error) {
	s.transition = target
	return &orders.OrderDTO{ID: orderID, Status: target}, nil
}

func orderForm(t *testing.T, fields map[string]string, proof []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	if proof != nil {
		part, err := writer.CreateFormFile("proof", "receipt.png")
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write(proof)
	}
	_ = writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSubmitOrderForwardsForm(t *testing.T) {
	svc := &stubOrders{}
	productID := uuid.New()
	req := orderForm(t, map[string]string{
		"shop_slug":        "amakas-footwear",
		"product_id":       productID.String(),
		"quantity":         "3",
		"customer_name":    " Chidi ",
		"customer_phone":   "08031234567",
		"delivery_address": "12 Allen Avenue, Ikeja",
	}, []byte("proof"))

	resp := httptest.NewRecorder()
	SubmitOrder(svc, 1<<20, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	got := svc.submitted
	if got.ShopSlug != "amakas-footwear" || got.ProductID != productID || got.Quantity != 3 || got.CustomerName != "Chidi" {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Proof.Filename != "receipt.png" || string(got.Proof.Content) != "proof" {
		t.Fatalf("proof not forwarded: %+v", got.Proof)
	}
}

func TestSubmitOrderForwardsLongFieldsUntouched(t *testing.T) {
	svc := &stubOrders{}
	address := strings.Repeat("Plot 7, Admiralty Way, Lekki ", 40)
	req := orderForm(t, map[string]string{
		"shop_slug":        "amakas-footwear",
		"product_id":       uuid.NewString(),
		"customer_name":    "Chidi",
		"customer_phone":   "+234 803 123 4567 ext 1234567890123456789",
		"delivery_address": address,
	}, []byte("proof"))

	resp := httptest.NewRecorder()
	SubmitOrder(svc, 1<<20, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.submitted.DeliveryAddress != strings.TrimSpace(address) {
		t.Fatalf("address was altered: %d runes", len(svc.submitted.DeliveryAddress))
	}
	if svc.submitted.CustomerPhone != "+234 803 123 4567 ext 1234567890123456789" {
		t.Fatalf("phone was altered: %q", svc.submitted.CustomerPhone)
	}
}

func TestSubmitOrderRejectsBadProductID(t *testing.T) {
	req := orderForm(t, map[string]string{"shop_slug": "s", "product_id": "nope"}, nil)
	resp := httptest.NewRecorder()
	SubmitOrder(&stubOrders{}, 1<<20, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListOrdersPassesFilters(t *testing.T) {
	svc := &stubOrders{}
	req := withAccount(httptest.NewRequest(http.MethodGet, "/api/orders?shopSlug=amakas-footwear&status=pending", nil), uuid.New())
	resp := httptest.NewRecorder()
	ListOrders(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listInput.ShopSlug != "amakas-footwear" || svc.listInput.Status != "pending" {
		t.Fatalf("unexpected filters %+v", svc.listInput)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	svc := &stubOrders{}
	router := chi.NewRouter()
	router.Patch("/api/orders/{orderID}/status", UpdateOrderStatus(svc, nil))
	orderID := uuid.New()

	req := withAccount(httptest.NewRequest(http.MethodPatch, "/api/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"completed"}`)), uuid.New())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.transition != enums.OrderStatusCompleted {
		t.Fatalf("unexpected target %s", svc.transition)
	}

	req = withAccount(httptest.NewRequest(http.MethodPatch, "/api/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"pending"}`)), uuid.New())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

type stubProducts struct {
	created products.CreateInput
}

func (s *stubProducts) Create(_ context.Context, _ uuid.UUID, input products.CreateInput) (*products.ProductDTO, error) {
	s.created = input
	return &products.ProductDTO{Name: input.Name, Price: input.Price}, nil
}

func (s *stubProducts) Update(context.Context, uuid.UUID, uuid.UUID, products.UpdateInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{}, nil
}

func (s *stubProducts) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (s *stubProducts) ListForOwner(context.Context, uuid.UUID) ([]products.ProductDTO, error) {
	return nil, nil
}

func (s *stubProducts) ListActiveByShop(context.Context, uuid.UUID) ([]products.ProductDTO, error) {
	return nil, nil
}

func TestCreateProductParsesDecimalPrice(t *testing.T) {
	svc := &stubProducts{}
	req := withAccount(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Leather Sandals","price":"5000.50"}`)), uuid.New())
	resp := httptest.NewRecorder()
	CreateProduct(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.created.Price.Equal(decimal.RequireFromString("5000.5")) {
		t.Fatalf("unexpected price %s", svc.created.Price)
	}

	req = withAccount(httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Free","price":"0"}`)), uuid.New())
	resp = httptest.NewRecorder()
	CreateProduct(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero price got %d", resp.Code)
	}
}

func TestProtectedControllersNeedAccount(t *testing.T) {
	resp := httptest.NewRecorder()
	ListProducts(&stubProducts{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
