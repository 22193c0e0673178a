package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the only supported JWT claims shape for this service. Identity
// is established by OTP verification; the phone carried here is the one the
// code was verified against.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenType TokenType `json:"token_type"`
}
