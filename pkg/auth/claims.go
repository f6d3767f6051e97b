package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenPayload captures the data available when minting a session JWT.
type SessionTokenPayload struct {
	UserID      string
	DisplayName string
	Email       string
	PhotoURL    string
	JTI         string
}

// SessionTokenClaims represents the typed JWT carried by an authenticated caller.
type SessionTokenClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	jwt.RegisteredClaims
}
