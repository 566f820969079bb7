package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an operator.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued session token and operator info.
type LoginResponse struct {
	SessionToken string       `json:"session_token"`
	ExpiresIn    int64        `json:"expires_in"`
	IssuedAt     time.Time    `json:"issued_at"`
	Operator     OperatorInfo `json:"operator"`
}

// OperatorInfo describes the authenticated operator in responses.
type OperatorInfo struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

// SessionClaims is the JWT payload for session tokens.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
