package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	Email     string
	Role      string
}

// AccessTokenClaims mirrors the access tokens issued by the hosted identity
// provider. The subject is the account id.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim.
func (c *AccessTokenClaims) AccountID() (uuid.UUID, error) {
	sub := strings.TrimSpace(c.Subject)
	if sub == "" {
		return uuid.Nil, fmt.Errorf("token subject is empty")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject is not a uuid: %w", err)
	}
	return id, nil
}
