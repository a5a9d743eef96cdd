package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("email or username already exists")
	// ErrSubscriptionGone is returned by a PushSender when the provider reports the endpoint as permanently invalid.
	ErrSubscriptionGone = errors.New("push subscription is gone")
)
