package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/abelkene001/mini-biz/api/responses"
	pkgAuth "github.com/abelkene001/mini-biz/pkg/auth"
	"github.com/abelkene001/mini-biz/pkg/config"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/google/uuid"
)

// AccountSyncer mirrors the token identity into the accounts table.
type AccountSyncer interface {
	Sync(ctx context.Context, id uuid.UUID, email string) error
}

// Auth validates the identity provider's bearer token and seeds the request
// context with the account.
func Auth(cfg config.AuthConfig, accounts AccountSyncer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			accountID, err := claims.AccountID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token subject"))
				return
			}

			if accounts != nil {
				if err := accounts.Sync(r.Context(), accountID, claims.Email); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}

			ctx := WithAccount(r.Context(), accountID, claims.Email)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, accountID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
