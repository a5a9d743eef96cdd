// file: model/token.go

package model

import "time"

// Token is a freshly signed access or refresh token. Only the refresh token's digest is ever persisted.
type Token struct {
	Value     string
	Kind      TokenKind
	Subject   string
	ExpiresAt time.Time
}

// TokenPair is what register, login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshSession is the single refresh slot of a principal.
type RefreshSession struct {
	TokenHash string    `json:"-"` // The hash is not exposed in JSON responses.
	ExpiresAt time.Time `json:"-"`
}
