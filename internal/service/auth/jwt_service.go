// Package auth issues and verifies the operator tokens that protect the
// mutating task routes.
package auth

import (
	"context"
	"time"
)

// TokenTypeOperator is the only token type this service issues.
const TokenTypeOperator = "operator"

// JWTService defines operations for managing JWT operator tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT naming subject as its holder.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the verified content of an operator token.
type Claims struct {
	// Subject names the operator or service the token was issued for.
	Subject   string    `json:"sub,omitempty"`
	TokenType string    `json:"type,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
