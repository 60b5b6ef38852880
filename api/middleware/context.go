package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxEmail     contextKey = "account_email"
)

// AccountIDFromContext returns the authenticated account, if any.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ctxAccountID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// WithAccount injects the authenticated identity into the context.
func WithAccount(ctx context.Context, accountID uuid.UUID, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAccountID, accountID)
	return context.WithValue(ctx, ctxEmail, email)
}
