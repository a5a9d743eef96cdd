package model

import "time"

type Principal struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"-"`
	RefreshSession *RefreshSession `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
}
