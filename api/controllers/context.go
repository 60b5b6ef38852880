package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/abelkene001/mini-biz/api/middleware"
	pkgerrors "github.com/abelkene001/mini-biz/pkg/errors"
)

func requireAccount(r *http.Request) (uuid.UUID, error) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return accountID, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
