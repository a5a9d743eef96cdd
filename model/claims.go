package model

import "github.com/golang-jwt/jwt/v5"

// TokenKind tags a signed token so that one kind cannot be replayed as the other.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

type AppClaims struct {
	Kind TokenKind `json:"type"`
	jwt.RegisteredClaims
}
