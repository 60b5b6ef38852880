package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abelkene001/mini-biz/pkg/auth"
	"github.com/abelkene001/mini-biz/pkg/config"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/google/uuid"
)

var testAuthConfig = config.AuthConfig{JWTSecret: "secret", Issuer: "https://auth.example", Audience: "authenticated"}

type stubAccounts struct {
	err    error
	synced map[uuid.UUID]string
}

func (s *stubAccounts) Sync(_ context.Context, id uuid.UUID, email string) error {
	if s.err != nil {
		return s.err
	}
	if s.synced == nil {
		s.synced = map[uuid.UUID]string{}
	}
	s.synced[id] = email
	return nil
}

func mintTestToken(t *testing.T, accountID uuid.UUID, email string) string {
	t.Helper()
	token, err := auth.MintAccessToken(testAuthConfig, time.Now(), time.Hour, auth.AccessTokenPayload{AccountID: accountID, Email: email})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testAuthConfig, &stubAccounts{}, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testAuthConfig, &stubAccounts{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsForeignSecret(t *testing.T) {
	other := testAuthConfig
	other.JWTSecret = "different"
	token, err := auth.MintAccessToken(other, time.Now(), time.Hour, auth.AccessTokenPayload{AccountID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	handler := Auth(testAuthConfig, &stubAccounts{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSyncsAccountAndSeedsContext(t *testing.T) {
	accountID := uuid.New()
	accounts := &stubAccounts{}

	var gotID uuid.UUID
	var gotEmail string
	handler := Auth(testAuthConfig, accounts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = AccountIDFromContext(r.Context())
		gotEmail = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, accountID, "owner@example.com"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotID != accountID {
		t.Fatalf("expected account %s got %s", accountID, gotID)
	}
	if gotEmail != "owner@example.com" {
		t.Fatalf("expected email in context got %q", gotEmail)
	}
	if accounts.synced[accountID] != "owner@example.com" {
		t.Fatalf("expected account to be synced, got %v", accounts.synced)
	}
}

func TestAuthSyncFailureIsDependencyError(t *testing.T) {
	accounts := &stubAccounts{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "sync account")}
	handler := Auth(testAuthConfig, accounts, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, uuid.New(), "a@b.c"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
